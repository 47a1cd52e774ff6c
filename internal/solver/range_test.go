package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionCoversDomain(t *testing.T) {
	for workers := 1; workers <= 255; workers++ {
		ranges := partition(workers)
		require.Len(t, ranges, workers)

		// First range starts at the bottom of the domain, the last one ends
		// at 2^64 (the End == 0 sentinel).
		assert.Zero(t, ranges[0].Start)
		assert.Zero(t, ranges[workers-1].End)

		for i := 0; i < workers-1; i++ {
			// Contiguous and sorted: no gap, no overlap, no empty range.
			assert.Equal(t, ranges[i].End, ranges[i+1].Start, "workers=%d i=%d", workers, i)
			assert.Less(t, uint64(ranges[i].Start), uint64(ranges[i].End), "workers=%d i=%d", workers, i)
		}
		if workers > 1 {
			last := ranges[workers-1]
			assert.NotZero(t, last.Start)
		}
	}
}

func TestPartitionSingleWorker(t *testing.T) {
	ranges := partition(1)
	require.Len(t, ranges, 1)
	assert.Equal(t, Range{Start: 0, End: 0}, ranges[0])
}

func TestPartitionEvenSplit(t *testing.T) {
	// A power-of-two worker count divides the domain exactly.
	ranges := partition(4)
	require.Len(t, ranges, 4)
	per := uint64(1) << 62
	assert.Equal(t, per, uint64(ranges[0].End))
	assert.Equal(t, per, uint64(ranges[1].Start))
	assert.Equal(t, 3*per, uint64(ranges[3].Start))
}
