package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/spf13/cobra"

	"github.com/powkey/powkey/internal/solver"
)

// A shorter run measures mostly scheduler warm-up noise.
const minTestLength = 20 * time.Second

var hashrateCmd = &cobra.Command{
	Use:   "hashrate",
	Short: "Estimate the hash rate this machine can sustain",
	Long: `Run the workers against an unsolvable target for a fixed window and
report the observed rate in hashes per second. Use the result with
"powkey target" to size targets for this machine.`,
	RunE: runHashrate,
}

var (
	hashrateWorkers int
	hashrateLength  time.Duration
)

func init() {
	rootCmd.AddCommand(hashrateCmd)

	hashrateCmd.Flags().IntVarP(&hashrateWorkers, "workers", "p", 0, "number of workers (0 = config/CPU count)")
	hashrateCmd.Flags().DurationVarP(&hashrateLength, "length", "l", 30*time.Second, "how long to run the test")
}

func runHashrate(cmd *cobra.Command, args []string) error {
	if hashrateLength < minTestLength {
		return fmt.Errorf("run the hashrate test for at least %s", minTestLength)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	workers := cfg.Solver.Workers
	if hashrateWorkers > 0 {
		workers = hashrateWorkers
	}

	printCPUInfo()
	fmt.Printf("Running test for %s with %d workers\n", hashrateLength, workers)

	farm, err := solver.NewThroughputFarm(logger.Named("hashrate"), workers, cfg.Solver.TickInterval.Std())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rate, err := farm.Run(ctx, hashrateLength)
	if err != nil {
		return err
	}

	fmt.Printf("Hashrate: %s (%.0f H/s)\n", humanize.SI(rate, "H/s"), rate)
	return nil
}

// printCPUInfo reports the machine topology so measured rates can be
// compared across hosts. Failures are cosmetic and ignored.
func printCPUInfo() {
	logical, err := cpu.Counts(true)
	if err != nil {
		return
	}
	physical, err := cpu.Counts(false)
	if err != nil {
		return
	}
	fmt.Printf("CPU: %d physical cores, %d logical\n", physical, logical)
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		fmt.Printf("Model: %s\n", infos[0].ModelName)
	}
}
