package commands

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/powkey/powkey/internal/target"
)

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Generate a target hash for a desired solve duration",
	Long: `Compute the target under which a machine hashing at the given rate
takes the given duration to solve on average. The duration accepts human
spans such as "10s" or "4hr 25min".`,
	RunE: runTarget,
}

var (
	targetDuration string
	targetHashRate uint64
)

func init() {
	rootCmd.AddCommand(targetCmd)

	targetCmd.Flags().StringVarP(&targetDuration, "duration", "d", "", "how long a solve should take, e.g. \"4hr 25min\"")
	targetCmd.Flags().Uint64VarP(&targetHashRate, "hashrate", "r", 0, "hash rate in hashes per second")
	targetCmd.MarkFlagRequired("duration")
	targetCmd.MarkFlagRequired("hashrate")
}

func runTarget(cmd *cobra.Command, args []string) error {
	tgt, err := target.ForDuration(targetDuration, targetHashRate)
	if err != nil {
		return err
	}

	expected, err := target.ExpectedAttempts(tgt)
	if err != nil {
		return err
	}
	p90, err := target.P90Attempts(tgt)
	if err != nil {
		return err
	}
	p99, err := target.P99Attempts(tgt)
	if err != nil {
		return err
	}

	fmt.Printf("Expected attempts: %s\n", humanize.Comma(int64(expected)))
	fmt.Printf("p90 attempts: %s\n", humanize.Comma(int64(p90)))
	fmt.Printf("p99 attempts: %s\n", humanize.Comma(int64(p99)))
	fmt.Println(tgt.Hex())
	return nil
}
