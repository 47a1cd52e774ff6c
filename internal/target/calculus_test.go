package target

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powkey/powkey/internal/digest"
)

func mustParse(t *testing.T, s string) digest.Digest {
	t.Helper()
	d, err := digest.ParseHex(s)
	require.NoError(t, err)
	return d
}

func TestForExpectedAttemptsOne(t *testing.T) {
	got, err := ForExpectedAttempts(1)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("f", 64), got.Hex())
}

func TestForExpectedAttemptsRejectsZero(t *testing.T) {
	_, err := ForExpectedAttempts(0)
	assert.Error(t, err)
}

func TestForExpectedAttemptsMonotone(t *testing.T) {
	pairs := [][2]uint64{{1, 2}, {2, 3}, {10, 100}, {100, 1_000_000}}
	for _, p := range pairs {
		lo, err := ForExpectedAttempts(p[0])
		require.NoError(t, err)
		hi, err := ForExpectedAttempts(p[1])
		require.NoError(t, err)
		// Harder solves (more attempts) mean smaller targets.
		assert.True(t, hi.Less(lo), "target(%d) should be below target(%d)", p[1], p[0])
	}
}

func TestExpectedAttemptsInverts(t *testing.T) {
	// Exact for divisors of MAX; 2^n divides 2^256-1 for no n>0, but small
	// targets round-trip exactly because floor(MAX/floor(MAX/n)) == n when
	// the quotient is large.
	for _, n := range []uint64{1, 2, 3, 10, 100, 4096, 1_000_000} {
		tgt, err := ForExpectedAttempts(n)
		require.NoError(t, err)
		got, err := ExpectedAttempts(tgt)
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
}

func TestExpectedAttemptsKnownTargets(t *testing.T) {
	all := mustParse(t, strings.Repeat("f", 64))
	n, err := ExpectedAttempts(all)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	tgt := mustParse(t, "00000000ffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	n, err = ExpectedAttempts(tgt)
	require.NoError(t, err)
	assert.Equal(t, uint64(4_294_967_296), n)
}

func TestExpectedAttemptsRejectsZeroTarget(t *testing.T) {
	_, err := ExpectedAttempts(digest.Digest{})
	assert.Error(t, err)
}

func TestExpectedAttemptsOverflow(t *testing.T) {
	// A one-byte target makes MAX/target exceed 64 bits.
	tiny := mustParse(t, "00000000000000000000000000000000000000000000000000000000000000ff")
	_, err := ExpectedAttempts(tiny)
	assert.Error(t, err)
}

func TestStdDev(t *testing.T) {
	tgt, err := ForExpectedAttempts(1)
	require.NoError(t, err)
	sd, err := StdDev(tgt)
	require.NoError(t, err)
	// p = 1: success on the first attempt, no spread.
	assert.Zero(t, sd)

	tgt, err = ForExpectedAttempts(1_000_000)
	require.NoError(t, err)
	sd, err = StdDev(tgt)
	require.NoError(t, err)
	// For large n the geometric stddev approaches the mean.
	assert.InDelta(t, 1_000_000, sd, 1.0)
}

func TestQuantilesOrdering(t *testing.T) {
	tgt, err := ForExpectedAttempts(1_000_000)
	require.NoError(t, err)

	expected, err := ExpectedAttempts(tgt)
	require.NoError(t, err)
	p90, err := P90Attempts(tgt)
	require.NoError(t, err)
	p99, err := P99Attempts(tgt)
	require.NoError(t, err)

	assert.Less(t, expected, p90)
	assert.Less(t, p90, p99)
	assert.InDelta(t, float64(expected)*(1+z90), float64(p90), float64(expected)*0.01)
	assert.InDelta(t, float64(expected)*(1+z99), float64(p99), float64(expected)*0.01)
}

func TestForDuration(t *testing.T) {
	want, err := ForExpectedAttempts(100)
	require.NoError(t, err)
	got, err := ForDuration("10s", 10) // 10 H/s for 10s = 100 hashes
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestForDurationErrors(t *testing.T) {
	_, err := ForDuration("not a span", 10)
	assert.Error(t, err)

	_, err = ForDuration("10s", 0)
	assert.Error(t, err)

	_, err = ForDuration("0s", 10)
	assert.Error(t, err)
}
