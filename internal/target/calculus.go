// Package target converts between proof-of-work targets, expected attempt
// counts and wall-clock durations. A solve is modeled as a geometric
// distribution with per-hash success probability p = target / 2^256, so a
// target chosen as floor(MAX/n) yields an expected n attempts to first
// success.
package target

import (
	"fmt"
	"math"

	"github.com/holiman/uint256"

	"github.com/powkey/powkey/internal/digest"
	"github.com/powkey/powkey/internal/timespan"
)

// Normal-approximation quantiles applied to the geometric tail. Only
// accurate for large expected-attempt counts.
const (
	z90 = 1.28
	z99 = 2.33
)

var maxDigest = func() *uint256.Int {
	z := new(uint256.Int)
	z.SetAllOne()
	return z
}()

func toInt(d digest.Digest) *uint256.Int {
	return new(uint256.Int).SetBytes(d[:])
}

func toDigest(z *uint256.Int) digest.Digest {
	return digest.Digest(z.Bytes32())
}

// ForExpectedAttempts returns the target under which a solve takes n hash
// attempts on average: floor(MAX / n). n must be at least 1; n == 1 yields
// the all-ones target, which every digest but all-ones itself satisfies.
func ForExpectedAttempts(n uint64) (digest.Digest, error) {
	if n == 0 {
		return digest.Digest{}, fmt.Errorf("expected attempts must be at least 1")
	}
	q := new(uint256.Int).Div(maxDigest, uint256.NewInt(n))
	return toDigest(q), nil
}

// ExpectedAttempts inverts ForExpectedAttempts: floor(MAX / target), the
// mean number of hash attempts before a digest falls under the target.
func ExpectedAttempts(t digest.Digest) (uint64, error) {
	if t.IsZero() {
		return 0, fmt.Errorf("the zero target is unsolvable")
	}
	q := new(uint256.Int).Div(maxDigest, toInt(t))
	if !q.IsUint64() {
		return 0, fmt.Errorf("expected attempts for target %s overflow uint64", t)
	}
	return q.Uint64(), nil
}

// StdDev returns the standard deviation of the attempt count: with
// p = 1/expected, geometric variance is (1-p)/p^2.
func StdDev(t digest.Digest) (float64, error) {
	expected, err := ExpectedAttempts(t)
	if err != nil {
		return 0, err
	}
	p := 1.0 / float64(expected)
	variance := (1.0 - p) / (p * p)
	return math.Sqrt(variance), nil
}

// P90Attempts returns the attempt count below which 90% of solves complete.
func P90Attempts(t digest.Digest) (uint64, error) {
	return quantile(t, z90)
}

// P99Attempts returns the attempt count below which 99% of solves complete.
func P99Attempts(t digest.Digest) (uint64, error) {
	return quantile(t, z99)
}

func quantile(t digest.Digest, z float64) (uint64, error) {
	expected, err := ExpectedAttempts(t)
	if err != nil {
		return 0, err
	}
	sd, err := StdDev(t)
	if err != nil {
		return 0, err
	}
	return expected + uint64(z*sd), nil
}

// ForDuration sizes a target so that a machine hashing at hashRate hashes
// per second solves it in the given span on average. The span uses the
// human grammar of timespan.Parse ("10s", "4hr 25min").
func ForDuration(span string, hashRate uint64) (digest.Digest, error) {
	d, err := timespan.Parse(span)
	if err != nil {
		return digest.Digest{}, fmt.Errorf("invalid duration: %w", err)
	}
	secs := uint64(d.Seconds())
	if secs == 0 || hashRate == 0 {
		return digest.Digest{}, fmt.Errorf("duration %q at %d H/s expects zero attempts", span, hashRate)
	}
	attempts := secs * hashRate
	if attempts/secs != hashRate {
		return digest.Digest{}, fmt.Errorf("duration %q at %d H/s overflows the attempt count", span, hashRate)
	}
	return ForExpectedAttempts(attempts)
}
