package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/powkey/powkey/internal/digest"
	"github.com/powkey/powkey/internal/solver"
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Find a nonce that will unlock the device",
	Long: `Search the 64-bit nonce space for a value whose SHA-256 digest with the
base string falls under the target. The base is the ASCII string the device
generated when it was locked; the target is its 64-character hex form.`,
	RunE: runSolve,
}

var (
	solveBase        string
	solveTarget      string
	solveWorkers     int
	solveMetricsAddr string
)

func init() {
	rootCmd.AddCommand(solveCmd)

	solveCmd.Flags().StringVarP(&solveBase, "base", "b", "", "base string generated by the device when it was locked")
	solveCmd.Flags().StringVarP(&solveTarget, "target", "t", "", "hex target the solution digest must fall under")
	solveCmd.Flags().IntVarP(&solveWorkers, "workers", "p", 0, "number of workers (0 = config/CPU count)")
	solveCmd.Flags().StringVar(&solveMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while solving")
	solveCmd.MarkFlagRequired("base")
	solveCmd.MarkFlagRequired("target")
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tgt, err := digest.ParseHex(solveTarget)
	if err != nil {
		return fmt.Errorf("invalid target: %w", err)
	}
	workers := cfg.Solver.Workers
	if solveWorkers > 0 {
		workers = solveWorkers
	}

	addr := solveMetricsAddr
	if addr == "" {
		addr = cfg.Solver.MetricsAddr
	}
	opts := []solver.Option{solver.WithProgress(printProgress)}
	if addr != "" {
		metrics, srv := startMetricsServer(logger, addr)
		defer srv.Close()
		opts = append(opts, solver.WithMetrics(metrics))
	}

	farm, err := solver.New(logger.Named("solver"), solver.Config{
		Base:         []byte(solveBase),
		Target:       tgt,
		Workers:      workers,
		TickInterval: cfg.Solver.TickInterval.Std(),
		MissBatch:    cfg.Solver.MissBatch,
	}, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	sol, err := farm.Solve(ctx)
	switch {
	case errors.Is(err, solver.ErrNoSolution):
		fmt.Println("No solution found")
		return nil
	case err != nil:
		return err
	}

	fmt.Printf("Base string: %s\n", solveBase)
	fmt.Printf("Solved with nonce: %d\n", sol.Nonce)
	fmt.Printf("As bytes: %s\n", sol.Nonce.HexBytes())
	fmt.Printf("Hash: %s\n", sol.Digest)
	fmt.Printf("Target: %s\n", tgt)
	fmt.Printf("Attempts: %s\n", humanize.Comma(int64(sol.Attempts)))
	fmt.Printf("Time: %s\n", time.Since(start).Round(time.Second))
	return nil
}

// printProgress renders one progress line per tick.
func printProgress(s solver.Snapshot) {
	fmt.Printf("Hash rate: %s | attempts: %s / %s expected (%s)\n",
		humanize.SI(s.HashRate, "H/s"),
		humanize.Comma(int64(s.Attempts)),
		humanize.Comma(int64(s.Expected)),
		s.Milestone,
	)
}

// startMetricsServer exposes solver metrics for scraping during the solve.
func startMetricsServer(logger *zap.Logger, addr string) (*solver.Metrics, *http.Server) {
	registry := prometheus.NewRegistry()
	metrics := solver.NewMetrics(registry)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))
	return metrics, srv
}
