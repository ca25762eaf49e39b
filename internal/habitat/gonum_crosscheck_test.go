package habitat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/nmxmxh/necsim/internal/rng"
)

// TestInMemoryTotalCapacityMatchesGonumSum cross-checks the prefix-sum
// table's cached total against an independent summation of the raw
// capacity grid via gonum/floats, catching an off-by-one in the
// prefix-sum construction that TotalCapacity alone wouldn't reveal.
func TestInMemoryTotalCapacityMatchesGonumSum(t *testing.T) {
	capacity := []uint32{3, 0, 5, 2, 0, 1, 4, 7}
	h, err := NewInMemory(4, 2, capacity)
	require.NoError(t, err)

	asFloat := make([]float64, len(capacity))
	for i, c := range capacity {
		asFloat[i] = float64(c)
	}
	want := floats.Sum(asFloat)

	assert.Equal(t, uint64(want), h.TotalCapacity().Value)
}

// TestInMemorySampleWeightedLocationMatchesCapacityShare draws a large
// number of samples and checks the empirical visit share per column
// against the capacity shares gonum/floats.AddScaled normalises to,
// catching a biased or off-by-one binary search in
// SampleWeightedLocation.
func TestInMemorySampleWeightedLocationMatchesCapacityShare(t *testing.T) {
	capacity := []uint32{1, 2, 4, 3} // width=4, height=1
	h, err := NewInMemory(4, 1, capacity)
	require.NoError(t, err)

	asFloat := []float64{1, 2, 4, 3}
	shares := make([]float64, len(asFloat))
	total := floats.Sum(asFloat)
	floats.AddScaled(shares, 1/total, asFloat)

	const n = 20000
	counts := make([]float64, len(capacity))
	src := rng.PCGSeedFromU64(42)
	for i := 0; i < n; i++ {
		loc := h.SampleWeightedLocation(src)
		counts[loc.X]++
	}

	for i, want := range shares {
		got := counts[i] / n
		assert.InDelta(t, want, got, 0.03, "column %d visit share", i)
	}
}
