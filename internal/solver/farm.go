// Package solver implements the concurrent brute-force search for a nonce
// whose SHA-256 digest with a fixed base falls under a target. The 64-bit
// nonce domain is partitioned across workers; a single aggregator consumes
// their outcomes under a first-success-wins protocol.
package solver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/powkey/powkey/internal/digest"
	"github.com/powkey/powkey/internal/target"
)

// ErrNoSolution is returned by Solve when every worker exhausts its range
// without finding a digest under the target.
var ErrNoSolution = errors.New("no nonce in the domain solves the target")

const (
	// DefaultTickInterval is how often progress is recomputed.
	DefaultTickInterval = 250 * time.Millisecond

	// DefaultMissBatch is how many unsuccessful hashes a worker accumulates
	// before reporting a miss delta. Cancellation is observed at the same
	// granularity.
	DefaultMissBatch = 4096

	// Outcome channel slots per worker. Bounded so a lagging aggregator
	// applies backpressure instead of growing a queue.
	outcomeSlotsPerWorker = 4
)

// Config carries the inputs of a solve.
type Config struct {
	// Base is the opaque byte string hashed ahead of each candidate nonce.
	Base []byte
	// Target is the exclusive upper bound a digest must fall under.
	Target digest.Digest
	// Workers is the number of concurrent scanners; the nonce domain is
	// split evenly between them.
	Workers int
	// TickInterval is the progress recomputation period. Zero selects
	// DefaultTickInterval.
	TickInterval time.Duration
	// MissBatch overrides DefaultMissBatch when positive.
	MissBatch int
}

// Solution is the terminal result of a successful solve. Attempts is the
// global count of misses the aggregator had observed when the winning nonce
// arrived; worker reports interleave non-deterministically, so it is an
// approximation, not an exact position in any scan order.
type Solution struct {
	Nonce    digest.Nonce
	Digest   digest.Digest
	Attempts uint64
}

// Milestone qualifies live progress against the geometric-model estimates.
type Milestone int

const (
	// MilestoneWithinExpected: fewer attempts so far than the mean.
	MilestoneWithinExpected Milestone = iota
	// MilestoneBeyondExpected: past the mean, still under the p90 bound.
	MilestoneBeyondExpected
	// MilestoneBeyondP90: past the p90 bound, still under p99.
	MilestoneBeyondP90
	// MilestoneBeyondP99: past the p99 bound; an unlucky solve.
	MilestoneBeyondP99
)

func (m Milestone) String() string {
	switch m {
	case MilestoneWithinExpected:
		return "within expected attempts"
	case MilestoneBeyondExpected:
		return "beyond expected attempts"
	case MilestoneBeyondP90:
		return "beyond p90 attempts"
	case MilestoneBeyondP99:
		return "beyond p99 attempts"
	default:
		return "unknown"
	}
}

// Snapshot is handed to the progress callback on every tick. Purely
// observational: it never influences the search.
type Snapshot struct {
	Attempts  uint64
	Elapsed   time.Duration
	HashRate  float64
	Expected  uint64
	P90       uint64
	P99       uint64
	Milestone Milestone
}

// ProgressFunc receives progress snapshots. Called from the aggregator
// goroutine; it must not block for long.
type ProgressFunc func(Snapshot)

// Option configures optional farm collaborators.
type Option func(*Farm)

// WithProgress installs a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(f *Farm) { f.progress = fn }
}

// WithMetrics wires Prometheus instrumentation into the solve.
func WithMetrics(m *Metrics) Option {
	return func(f *Farm) { f.metrics = m }
}

// Farm owns the partitioned workers for one base/target pair. Base, target
// and ranges are immutable after construction; the only shared mutable state
// during a solve is the outcome channel, and the attempt counters live in
// the single aggregator goroutine.
type Farm struct {
	logger   *zap.Logger
	cfg      Config
	ranges   []Range
	hasher   *digest.Hasher
	progress ProgressFunc
	metrics  *Metrics

	expected uint64
	p90      uint64
	p99      uint64
}

// New builds a farm. The target must be solvable in principle: the all-zero
// target is rejected here, it belongs to the throughput farm only.
func New(logger *zap.Logger, cfg Config, opts ...Option) (*Farm, error) {
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("need at least 1 worker, got %d", cfg.Workers)
	}
	if cfg.Workers > 255 {
		return nil, fmt.Errorf("at most 255 workers supported, got %d", cfg.Workers)
	}
	if cfg.Target.IsZero() {
		return nil, errors.New("the zero target is unsolvable")
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.MissBatch <= 0 {
		cfg.MissBatch = DefaultMissBatch
	}

	expected, err := target.ExpectedAttempts(cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("target calculus: %w", err)
	}
	p90, err := target.P90Attempts(cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("target calculus: %w", err)
	}
	p99, err := target.P99Attempts(cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("target calculus: %w", err)
	}

	f := &Farm{
		logger:   logger,
		cfg:      cfg,
		ranges:   partition(cfg.Workers),
		hasher:   digest.NewHasher(cfg.Base),
		expected: expected,
		p90:      p90,
		p99:      p99,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Solve runs the search until a worker finds a digest under the target,
// every worker exhausts its range, or ctx is cancelled. The returned
// Solution is the first success the aggregator observes, which is not
// necessarily the numerically lowest valid nonce in the domain. All worker
// goroutines are cancelled and joined before Solve returns.
func (f *Farm) Solve(ctx context.Context) (*Solution, error) {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan outcome, f.cfg.Workers*outcomeSlotsPerWorker)

	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	f.logger.Info("starting solve",
		zap.String("target", f.cfg.Target.Hex()),
		zap.Int("workers", f.cfg.Workers),
		zap.Uint64("expected_attempts", f.expected),
		zap.Uint64("p90_attempts", f.p90),
		zap.Uint64("p99_attempts", f.p99),
	)

	f.spawn(ctx, &wg, f.cfg.Target, out)
	f.spawnTicker(ctx, &wg, out)

	start := time.Now()
	var attempts uint64
	completed := 0

	for {
		var o outcome
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case o = <-out:
		}

		switch o.kind {
		case outcomeMiss:
			attempts += o.misses
			if f.metrics != nil {
				f.metrics.attempts.Add(float64(o.misses))
			}

		case outcomeSuccess:
			sol := &Solution{Nonce: o.nonce, Digest: o.sum, Attempts: attempts}
			elapsed := time.Since(start)
			f.logger.Info("solved",
				zap.Uint64("nonce", uint64(sol.Nonce)),
				zap.String("digest", sol.Digest.Hex()),
				zap.Uint64("attempts", sol.Attempts),
				zap.Duration("elapsed", elapsed),
				zap.Int("worker", o.worker),
			)
			if f.metrics != nil {
				f.metrics.solutions.Inc()
				f.metrics.solveSeconds.Observe(elapsed.Seconds())
			}
			return sol, nil

		case outcomeExhausted:
			completed++
			f.logger.Debug("worker exhausted its range",
				zap.Int("worker", o.worker),
				zap.Int("completed", completed),
			)
			if completed == len(f.ranges) {
				f.logger.Info("domain exhausted without a solution",
					zap.Uint64("attempts", attempts))
				return nil, ErrNoSolution
			}

		case outcomeTick:
			f.observe(start, attempts)
		}
	}
}

// spawn starts one goroutine per range, each with a cloned hasher so hashing
// never contends on shared memory.
func (f *Farm) spawn(ctx context.Context, wg *sync.WaitGroup, tgt digest.Digest, out chan<- outcome) {
	for i, rng := range f.ranges {
		w := &worker{
			id:        i,
			rng:       rng,
			hasher:    f.hasher.Clone(),
			target:    tgt,
			out:       out,
			missBatch: uint64(f.cfg.MissBatch),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.run(ctx)
		}()
	}
}

// spawnTicker feeds synthetic tick outcomes into the same channel the
// workers use, so the aggregator stays a single select loop.
func (f *Farm) spawnTicker(ctx context.Context, wg *sync.WaitGroup, out chan<- outcome) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(f.cfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case out <- outcome{kind: outcomeTick}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}

func (f *Farm) observe(start time.Time, attempts uint64) {
	elapsed := time.Since(start)
	rate := 0.0
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(attempts) / secs
	}

	milestone := MilestoneWithinExpected
	switch {
	case attempts >= f.p99:
		milestone = MilestoneBeyondP99
	case attempts >= f.p90:
		milestone = MilestoneBeyondP90
	case attempts >= f.expected:
		milestone = MilestoneBeyondExpected
	}

	if f.metrics != nil {
		f.metrics.hashRate.Set(rate)
	}
	f.logger.Debug("progress",
		zap.Uint64("attempts", attempts),
		zap.Float64("hash_rate", rate),
		zap.Stringer("milestone", milestone),
	)

	if f.progress != nil {
		f.progress(Snapshot{
			Attempts:  attempts,
			Elapsed:   elapsed,
			HashRate:  rate,
			Expected:  f.expected,
			P90:       f.p90,
			P99:       f.p99,
			Milestone: milestone,
		})
	}
}
