package solver

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/powkey/powkey/internal/digest"
)

// Among nonces 0..99 over base "helloworld", nonce 15 hashes to
// 01c5d70b... and is the only digest under 0x02 << 248; nothing falls
// under 0x01 << 248.
const (
	testBase         = "helloworld"
	oneSolutionHex   = "0200000000000000000000000000000000000000000000000000000000000000"
	noSolutionHex    = "0100000000000000000000000000000000000000000000000000000000000000"
	knownNonce       = digest.Nonce(15)
	knownSolutionHex = "01c5d70b1a79e8581e4b89910ba2de6f22053ab626374ba0509306ee06ad691b"
)

func mustParse(t *testing.T, s string) digest.Digest {
	t.Helper()
	d, err := digest.ParseHex(s)
	require.NoError(t, err)
	return d
}

func TestNewValidation(t *testing.T) {
	logger := zaptest.NewLogger(t)
	allOnes := mustParse(t, strings.Repeat("f", 64))

	_, err := New(logger, Config{Base: []byte(testBase), Target: allOnes, Workers: 0})
	assert.Error(t, err)

	_, err = New(logger, Config{Base: []byte(testBase), Target: allOnes, Workers: 256})
	assert.Error(t, err)

	_, err = New(logger, Config{Base: []byte(testBase), Target: digest.Digest{}, Workers: 1})
	assert.Error(t, err)

	f, err := New(logger, Config{Base: []byte(testBase), Target: allOnes, Workers: 3})
	require.NoError(t, err)
	assert.Equal(t, DefaultTickInterval, f.cfg.TickInterval)
	assert.Equal(t, DefaultMissBatch, f.cfg.MissBatch)
	assert.Equal(t, uint64(1), f.expected)
}

func TestSolveImmediateTarget(t *testing.T) {
	logger := zaptest.NewLogger(t)
	allOnes := mustParse(t, strings.Repeat("f", 64))

	f, err := New(logger, Config{Base: []byte(testBase), Target: allOnes, Workers: 1})
	require.NoError(t, err)

	sol, err := f.Solve(context.Background())
	require.NoError(t, err)
	// Every digest but all-ones satisfies the all-ones target, so the first
	// nonce wins with no misses.
	assert.Equal(t, digest.Nonce(0), sol.Nonce)
	assert.Equal(t, uint64(0), sol.Attempts)
	assert.True(t, sol.Digest.Less(allOnes))
	assert.Equal(t, digest.NewHasher([]byte(testBase)).Sum(sol.Nonce), sol.Digest)
}

func TestSolveFindsKnownNonce(t *testing.T) {
	logger := zaptest.NewLogger(t)
	tgt := mustParse(t, oneSolutionHex)

	f, err := New(logger, Config{
		Base:      []byte(testBase),
		Target:    tgt,
		Workers:   2,
		MissBatch: 1,
	})
	require.NoError(t, err)
	// Shrink the domain so the test finishes instantly; nonce 15 is the only
	// solution inside it.
	f.ranges = []Range{{Start: 0, End: 50}, {Start: 50, End: 100}}

	sol, err := f.Solve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, knownNonce, sol.Nonce)
	assert.Equal(t, knownSolutionHex, sol.Digest.Hex())
	assert.True(t, sol.Digest.Less(tgt))
}

func TestSolveCountsAttempts(t *testing.T) {
	logger := zaptest.NewLogger(t)
	tgt := mustParse(t, oneSolutionHex)

	f, err := New(logger, Config{
		Base:      []byte(testBase),
		Target:    tgt,
		Workers:   1,
		MissBatch: 1,
	})
	require.NoError(t, err)
	f.ranges = []Range{{Start: 0, End: 100}}

	sol, err := f.Solve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, knownNonce, sol.Nonce)
	// A single worker reports every miss before its success in ascending
	// order, so the count is exact: nonces 0..14 missed.
	assert.Equal(t, uint64(15), sol.Attempts)
}

func TestSolveExhaustsDomain(t *testing.T) {
	logger := zaptest.NewLogger(t)
	tgt := mustParse(t, noSolutionHex)

	f, err := New(logger, Config{
		Base:      []byte(testBase),
		Target:    tgt,
		Workers:   3,
		MissBatch: 7,
	})
	require.NoError(t, err)
	f.ranges = []Range{{Start: 0, End: 40}, {Start: 40, End: 70}, {Start: 70, End: 100}}

	sol, err := f.Solve(context.Background())
	assert.Nil(t, sol)
	assert.ErrorIs(t, err, ErrNoSolution)
}

func TestSolveHonorsCancellation(t *testing.T) {
	logger := zaptest.NewLogger(t)
	// No digest in a reasonable window falls under this target, so Solve
	// only returns because of the cancellation.
	tgt := mustParse(t, noSolutionHex)

	f, err := New(logger, Config{Base: []byte(testBase), Target: tgt, Workers: 2})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	var solveErr error
	go func() {
		_, solveErr = f.Solve(ctx)
		close(done)
	}()

	select {
	case <-done:
		assert.ErrorIs(t, solveErr, context.DeadlineExceeded)
	case <-time.After(5 * time.Second):
		t.Fatal("Solve did not return after cancellation")
	}
}

func TestSolveReportsProgress(t *testing.T) {
	logger := zaptest.NewLogger(t)
	tgt := mustParse(t, noSolutionHex)

	snaps := make(chan Snapshot, 64)
	f, err := New(logger, Config{
		Base:         []byte(testBase),
		Target:       tgt,
		Workers:      2,
		TickInterval: 5 * time.Millisecond,
	}, WithProgress(func(s Snapshot) {
		select {
		case snaps <- s:
		default:
		}
	}))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, _ = f.Solve(ctx)

	require.NotEmpty(t, snaps)
	s := <-snaps
	assert.Equal(t, uint64(255), s.Expected)
	assert.GreaterOrEqual(t, s.P90, s.Expected)
	assert.GreaterOrEqual(t, s.P99, s.P90)
	assert.GreaterOrEqual(t, s.Elapsed, time.Duration(0))
}

func TestSolveUpdatesMetrics(t *testing.T) {
	logger := zaptest.NewLogger(t)
	tgt := mustParse(t, oneSolutionHex)

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	f, err := New(logger, Config{
		Base:      []byte(testBase),
		Target:    tgt,
		Workers:   1,
		MissBatch: 1,
	}, WithMetrics(metrics))
	require.NoError(t, err)
	f.ranges = []Range{{Start: 0, End: 100}}

	_, err = f.Solve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.solutions))
	assert.Equal(t, float64(15), testutil.ToFloat64(metrics.attempts))
}

func TestMilestoneString(t *testing.T) {
	assert.Equal(t, "within expected attempts", MilestoneWithinExpected.String())
	assert.Equal(t, "beyond expected attempts", MilestoneBeyondExpected.String())
	assert.Equal(t, "beyond p90 attempts", MilestoneBeyondP90.String())
	assert.Equal(t, "beyond p99 attempts", MilestoneBeyondP99.String())
}
