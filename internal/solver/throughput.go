package solver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/powkey/powkey/internal/digest"
)

// throughputBase is an arbitrary fixed base; the measured rate does not
// depend on its content, only on hashing work per attempt.
var throughputBase = []byte("anarbitrarystring")

// ThroughputFarm measures the machine's hash rate by running workers against
// the all-zero target, which no digest can fall under. Observing a success
// or an exhausted range therefore indicates a construction bug, and the farm
// panics rather than reporting a rate built on a broken measurement.
type ThroughputFarm struct {
	logger *zap.Logger
	cfg    Config
	ranges []Range
	hasher *digest.Hasher
}

// NewThroughputFarm builds the measurement farm. The target is fixed to
// all-zero; callers choose only the worker count and tick interval.
func NewThroughputFarm(logger *zap.Logger, workers int, tick time.Duration) (*ThroughputFarm, error) {
	if workers < 1 {
		return nil, fmt.Errorf("need at least 1 worker, got %d", workers)
	}
	if workers > 255 {
		return nil, fmt.Errorf("at most 255 workers supported, got %d", workers)
	}
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	return &ThroughputFarm{
		logger: logger,
		cfg: Config{
			Base:         throughputBase,
			Target:       digest.Digest{},
			Workers:      workers,
			TickInterval: tick,
			MissBatch:    DefaultMissBatch,
		},
		ranges: partition(workers),
		hasher: digest.NewHasher(throughputBase),
	}, nil
}

// Run hashes until elapsed time exceeds length, then reports the observed
// rate in hashes per second. Workers are cancelled and joined on return.
func (t *ThroughputFarm) Run(ctx context.Context, length time.Duration) (float64, error) {
	if length <= 0 {
		return 0, fmt.Errorf("test length must be positive, got %s", length)
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan outcome, t.cfg.Workers*outcomeSlotsPerWorker)

	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	t.logger.Info("measuring hash rate",
		zap.Int("workers", t.cfg.Workers),
		zap.Duration("length", length),
	)

	for i, rng := range t.ranges {
		w := &worker{
			id:        i,
			rng:       rng,
			hasher:    t.hasher.Clone(),
			target:    t.cfg.Target,
			out:       out,
			missBatch: uint64(t.cfg.MissBatch),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.run(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(t.cfg.TickInterval)
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

	start := time.Now()
	var attempts uint64

	for {
		var o outcome
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case o = <-out:
		}

		switch o.kind {
		case outcomeMiss:
			attempts += o.misses

		case outcomeSuccess:
			// The zero target admits no digest; a success means the farm was
			// built with a solvable target.
			panic(fmt.Sprintf("throughput farm observed a success (nonce %d, digest %s)", o.nonce, o.sum))

		case outcomeExhausted:
			// A worker cannot scan its share of 2^64 nonces within any sane
			// measurement window.
			panic(fmt.Sprintf("throughput farm worker %d exhausted its range", o.worker))

		case outcomeTick:
			elapsed := time.Since(start)
			if elapsed > length {
				rate := float64(attempts) / elapsed.Seconds()
				t.logger.Info("hash rate measured",
					zap.Uint64("attempts", attempts),
					zap.Duration("elapsed", elapsed),
					zap.Float64("hash_rate", rate),
				)
				return rate, nil
			}
		}
	}
}
