package habitat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmxmxh/necsim/internal/lineage"
	"github.com/nmxmxh/necsim/internal/rng"
)

func TestNonSpatialCapacityOnlyAtOrigin(t *testing.T) {
	h := NewNonSpatial(10)
	assert.Equal(t, uint32(10), h.CapacityAt(lineage.Location{}))
	assert.Equal(t, uint32(0), h.CapacityAt(lineage.Location{X: 1}))
	assert.True(t, h.Contains(lineage.Location{}))
	assert.False(t, h.Contains(lineage.Location{X: 1}))
}

func TestNonSpatialHabitableYieldsOriginOnce(t *testing.T) {
	h := NewNonSpatial(3)
	var locs []lineage.Location
	for loc := range h.Habitable() {
		locs = append(locs, loc)
	}
	assert.Equal(t, []lineage.Location{{}}, locs)
}

func TestNonSpatialHabitableEmptyWhenZeroCapacity(t *testing.T) {
	h := NewNonSpatial(0)
	count := 0
	for range h.Habitable() {
		count++
	}
	assert.Equal(t, 0, count)
}

func TestInMemoryCapacityAndHabitableMatchGrid(t *testing.T) {
	// 2x2 grid: top row habitable, bottom row not.
	h, err := NewInMemory(2, 2, []uint32{1, 1, 0, 0})
	require.NoError(t, err)

	assert.Equal(t, uint32(1), h.CapacityAt(lineage.Location{X: 0, Y: 0}))
	assert.Equal(t, uint32(0), h.CapacityAt(lineage.Location{X: 0, Y: 1}))
	assert.Equal(t, uint32(0), h.CapacityAt(lineage.Location{X: 5, Y: 5}), "out of bounds is uninhabitable")

	var locs []lineage.Location
	for loc := range h.Habitable() {
		locs = append(locs, loc)
	}
	assert.ElementsMatch(t, []lineage.Location{{X: 0, Y: 0}, {X: 1, Y: 0}}, locs)
}

func TestInMemoryTotalCapacitySumsGrid(t *testing.T) {
	h, err := NewInMemory(2, 1, []uint32{3, 4})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), h.TotalCapacity().Value)
	assert.False(t, h.TotalCapacity().Overflowed)
}

func TestInMemorySampleWeightedLocationOnlyPicksHabitableCells(t *testing.T) {
	h, err := NewInMemory(3, 1, []uint32{0, 5, 0})
	require.NoError(t, err)

	src := rng.PCGSeedFromU64(7)
	for i := 0; i < 50; i++ {
		loc := h.SampleWeightedLocation(src)
		assert.Equal(t, lineage.Location{X: 1, Y: 0}, loc)
	}
}

func TestInMemoryLocationKeyInjectiveOverIndexAndCell(t *testing.T) {
	h, err := NewInMemory(2, 2, []uint32{2, 2, 2, 2})
	require.NoError(t, err)

	a := h.LocationKey(lineage.IndexedLocation{Location: lineage.Location{X: 1, Y: 0}, Index: 0})
	b := h.LocationKey(lineage.IndexedLocation{Location: lineage.Location{X: 1, Y: 0}, Index: 1})
	c := h.LocationKey(lineage.IndexedLocation{Location: lineage.Location{X: 0, Y: 0}, Index: 0})
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestSpatiallyImplicitSeparatesLocalFromMeta(t *testing.T) {
	h, err := NewSpatiallyImplicit(2, 2, 1, 1000)
	require.NoError(t, err)

	assert.False(t, h.IsMeta(lineage.Location{X: 0, Y: 0}))
	assert.True(t, h.IsMeta(h.MetaLocation()))
	assert.Equal(t, uint32(1000), h.CapacityAt(h.MetaLocation()))
	assert.Equal(t, uint64(4)+1000, h.TotalCapacity().Value)

	var sawMeta bool
	for loc := range h.Habitable() {
		if h.IsMeta(loc) {
			sawMeta = true
		}
	}
	assert.True(t, sawMeta, "Habitable must include the metacommunity sentinel")
}

func TestSpatiallyImplicitOmitsMetaWhenCapacityZero(t *testing.T) {
	h, err := NewSpatiallyImplicit(1, 1, 1, 0)
	require.NoError(t, err)
	assert.False(t, h.Contains(h.MetaLocation()))
}

func TestAlmostInfiniteFullCoverageEverywhereHabitable(t *testing.T) {
	h := NewAlmostInfinite(1)
	assert.Equal(t, uint32(1), h.CapacityAt(lineage.Location{X: 123456, Y: 987654}))
	assert.True(t, h.TotalCapacity().Overflowed)
}

func TestAlmostInfiniteWithCoverageRestrictsSomeCells(t *testing.T) {
	h := NewAlmostInfiniteWithCoverage(1, 3, 4096, 0.5)
	habitableCount := 0
	const n = 64
	for y := uint32(0); y < n; y++ {
		for x := uint32(0); x < n; x++ {
			if h.CapacityAt(lineage.Location{X: x, Y: y}) > 0 {
				habitableCount++
			}
		}
	}
	assert.Greater(t, habitableCount, 0)
	assert.Less(t, habitableCount, n*n, "coverage below 1.0 must exclude some cells")
}

func TestAlmostInfiniteLocationKeyIgnoresDemeIndex(t *testing.T) {
	h := NewAlmostInfinite(1)
	loc := lineage.Location{X: 5, Y: 9}
	a := h.LocationKey(lineage.IndexedLocation{Location: loc, Index: 0})
	b := h.LocationKey(lineage.IndexedLocation{Location: loc, Index: 7})
	assert.Equal(t, a, b)
}
