package solver

import (
	"context"

	"github.com/powkey/powkey/internal/digest"
)

// outcomeKind tags the variants a worker (or the tick timer) can report.
type outcomeKind uint8

const (
	outcomeMiss outcomeKind = iota
	outcomeSuccess
	outcomeExhausted
	outcomeTick
)

// outcome is the single message type flowing from workers and the timer to
// the aggregator. Misses are batched: one message carries a delta of
// unsuccessful attempts rather than a message per hash, keeping the shared
// channel bounded under full worker throughput.
type outcome struct {
	kind   outcomeKind
	worker int
	misses uint64
	nonce  digest.Nonce
	sum    digest.Digest
}

// worker scans one contiguous nonce range against the shared target.
type worker struct {
	id        int
	rng       Range
	hasher    *digest.Hasher
	target    digest.Digest
	out       chan<- outcome
	missBatch uint64
}

// run hashes every nonce in the assigned range in ascending order, stopping
// at the first digest under the target, at range exhaustion, or when ctx is
// cancelled. Cancellation is observed between miss batches, so a solved farm
// reclaims its workers promptly instead of leaving them hashing.
func (w *worker) run(ctx context.Context) {
	if w.rng.End != 0 && w.rng.Start >= w.rng.End {
		w.send(ctx, outcome{kind: outcomeExhausted, worker: w.id})
		return
	}

	var misses uint64
	n := w.rng.Start
	for {
		sum := w.hasher.Sum(n)
		if sum.Less(w.target) {
			if misses > 0 && !w.send(ctx, outcome{kind: outcomeMiss, worker: w.id, misses: misses}) {
				return
			}
			w.send(ctx, outcome{kind: outcomeSuccess, worker: w.id, nonce: n, sum: sum})
			return
		}
		misses++
		if misses >= w.missBatch {
			if !w.send(ctx, outcome{kind: outcomeMiss, worker: w.id, misses: misses}) {
				return
			}
			misses = 0
		}
		// End == 0 wraps to 2^64 - 1 here, covering the full domain.
		if n == w.rng.End-1 {
			break
		}
		n++
	}

	if misses > 0 && !w.send(ctx, outcome{kind: outcomeMiss, worker: w.id, misses: misses}) {
		return
	}
	w.send(ctx, outcome{kind: outcomeExhausted, worker: w.id})
}

// send delivers an outcome unless the farm has been cancelled. The channel
// is bounded; blocking here is the backpressure that keeps a lagging
// aggregator from accumulating unbounded queue growth.
func (w *worker) send(ctx context.Context, o outcome) bool {
	select {
	case w.out <- o:
		return true
	case <-ctx.Done():
		return false
	}
}
