package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/powkey/powkey/internal/config"
	"github.com/powkey/powkey/internal/logging"
)

const Version = "1.0.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "powkey",
	Short: "Proof-of-work lock companion solver",
	Long: `powkey is the companion app for the proof-of-work lock: a device that
only opens upon presentation of a nonce whose SHA-256 digest with the
device's base string falls under a target.

It brute-forces such nonces across CPU workers, derives targets from a
desired solve duration, measures machine hash rate, and talks to the
lock device over its line protocol.`,
	Version: Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./powkey.yaml when present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig resolves the configuration: an explicit --config file must
// exist, the default ./powkey.yaml is picked up when present, otherwise the
// built-in defaults apply.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	if _, err := os.Stat("powkey.yaml"); err == nil {
		return config.Load("powkey.yaml")
	}
	return config.Default(), nil
}

// newLogger builds the command logger; --verbose forces debug level.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logCfg := cfg.Log
	if verbose {
		logCfg.Level = "debug"
	}
	return logging.New(logCfg)
}
