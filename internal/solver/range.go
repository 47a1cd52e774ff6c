package solver

import "github.com/powkey/powkey/internal/digest"

// Range is a half-open interval [Start, End) over the 64-bit nonce domain.
// End == 0 denotes 2^64, which does not fit a uint64; the final range of a
// partition uses it so the full domain is covered with no remainder dropped.
type Range struct {
	Start digest.Nonce
	End   digest.Nonce
}

// partition splits [0, 2^64) into workers contiguous ranges of
// floor(2^64/workers) nonces each, the last one extended to absorb the
// division remainder. The result is sorted, pairwise disjoint and covers
// the full domain.
func partition(workers int) []Range {
	const max = ^uint64(0)

	per := max / uint64(workers)
	if max%uint64(workers) == uint64(workers)-1 {
		// workers divides 2^64 evenly (a power of two).
		per++
	}

	ranges := make([]Range, workers)
	start := uint64(0)
	for i := 0; i < workers-1; i++ {
		ranges[i] = Range{Start: digest.Nonce(start), End: digest.Nonce(start + per)}
		start += per
	}
	ranges[workers-1] = Range{Start: digest.Nonce(start), End: 0}
	return ranges
}
