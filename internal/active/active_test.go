package active

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmxmxh/necsim/internal/lineage"
	"github.com/nmxmxh/necsim/internal/rng"
	"github.com/nmxmxh/necsim/internal/turnover"
)

func TestClassicalPopNextReturnsEarliestFirst(t *testing.T) {
	occupants := map[lineage.Location][]lineage.GlobalReference{
		{X: 0, Y: 0}: {1},
		{X: 1, Y: 0}: {2},
	}
	c := NewClassical(turnover.Uniform{Rate: 1}, func(loc lineage.Location) []lineage.GlobalReference {
		return occupants[loc]
	})
	src := rng.PCGSeedFromU64(1)

	c.Arrive(src, lineage.Location{X: 0, Y: 0}, 0, 1)
	c.Arrive(src, lineage.Location{X: 1, Y: 0}, 0, 1)
	require.Equal(t, 2, c.Len())

	_, _, t1, ok := c.PopNext(src)
	require.True(t, ok)
	require.Equal(t, 1, c.Len())

	_, _, t2, ok := c.PopNext(src)
	require.True(t, ok)
	assert.Less(t, float64(t1), float64(t2))
}

func TestClassicalDepartRemovesLocation(t *testing.T) {
	c := NewClassical(turnover.Uniform{Rate: 1}, func(lineage.Location) []lineage.GlobalReference { return nil })
	src := rng.PCGSeedFromU64(2)
	loc := lineage.Location{X: 3, Y: 3}
	c.Arrive(src, loc, 0, 1)
	require.Equal(t, 1, c.Len())
	c.Depart(loc)
	assert.Equal(t, 0, c.Len())
}

func TestIndependentScheduleAndPop(t *testing.T) {
	s := NewIndependent(turnover.Uniform{Rate: 1}, 1.0)
	s.Schedule(1, lineage.IndexedLocation{}, 5.0)
	s.Schedule(2, lineage.IndexedLocation{}, 1.0)
	s.Schedule(3, lineage.IndexedLocation{}, 3.0)

	ref, _, at, ok := s.PopNext(nil)
	require.True(t, ok)
	assert.Equal(t, lineage.GlobalReference(2), ref)
	assert.Equal(t, lineage.Time(1.0), at)
	assert.Equal(t, 2, s.Len())
}

func TestIndependentUnscheduleRemovesEntry(t *testing.T) {
	s := NewIndependent(turnover.Uniform{Rate: 1}, 1.0)
	s.Schedule(1, lineage.IndexedLocation{}, 1.0)
	s.Unschedule(1)
	assert.Equal(t, 0, s.Len())
	_, _, _, ok := s.PopNext(nil)
	assert.False(t, ok)
}

// TestIndependentArriveAtIsDeterministic checks spec §4.6's Primeable
// contract: two independently-seeded RNGs re-deriving the same
// (locationKey, floor) pair for the same lineage must schedule the
// same event time, regardless of arrival order.
func TestIndependentArriveAtIsDeterministic(t *testing.T) {
	loc := lineage.IndexedLocation{Location: lineage.Location{X: 2, Y: 5}}
	const locationKey = 42

	s1 := NewIndependent(turnover.Uniform{Rate: 1}, 1.0)
	s1.ArriveAt(rng.PCGSeedFromU64(7), 1, loc, locationKey, 0)
	_, _, at1, ok := s1.PopNext(nil)
	require.True(t, ok)

	s2 := NewIndependent(turnover.Uniform{Rate: 1}, 1.0)
	s2.ArriveAt(rng.PCGSeedFromU64(99), 1, loc, locationKey, 0)
	_, _, at2, ok := s2.PopNext(nil)
	require.True(t, ok)

	assert.Equal(t, at1, at2)
}

// TestIndependentArriveAtAdvancesPastFloor checks that re-deriving from
// a non-zero floor always yields a time strictly after it.
func TestIndependentArriveAtAdvancesPastFloor(t *testing.T) {
	loc := lineage.IndexedLocation{Location: lineage.Location{X: 1, Y: 1}}
	s := NewIndependent(turnover.Uniform{Rate: 1}, 0.5)
	s.ArriveAt(rng.PCGSeedFromU64(3), 1, loc, 17, 4.0)
	_, _, at, ok := s.PopNext(nil)
	require.True(t, ok)
	assert.Greater(t, float64(at), 4.0)
}

func TestGillespieAliasWeightedByRate(t *testing.T) {
	occupants := map[lineage.Location][]lineage.GlobalReference{
		{X: 0, Y: 0}: {10},
	}
	g := NewGillespieAlias(4, func(loc lineage.Location) []lineage.GlobalReference {
		return occupants[loc]
	})
	g.SetWeight(lineage.Location{X: 0, Y: 0}, 2.0)
	assert.Equal(t, 1, g.Len())

	src := rng.PCGSeedFromU64(9)
	ref, _, _, ok := g.PopNext(src)
	require.True(t, ok)
	assert.Equal(t, lineage.GlobalReference(10), ref)
}
