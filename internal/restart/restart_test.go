package restart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmxmxh/necsim/internal/habitat"
	"github.com/nmxmxh/necsim/internal/lineage"
)

func TestClassifyOutOfHabitatWhenCellGone(t *testing.T) {
	hab := habitat.NewNonSpatial(0)
	cat, exceptional := Classify(hab, lineage.Location{}, 1)
	require.True(t, exceptional)
	assert.Equal(t, CategoryOutOfHabitat, cat)
}

func TestClassifyCoalescenceWhenSingletonDemeOverfull(t *testing.T) {
	hab := habitat.NewNonSpatial(1)
	cat, exceptional := Classify(hab, lineage.Location{}, 2)
	require.True(t, exceptional)
	assert.Equal(t, CategoryCoalescence, cat)
}

func TestClassifyOutOfDemeWhenMultiDemeOverfull(t *testing.T) {
	hab := habitat.NewNonSpatial(3)
	cat, exceptional := Classify(hab, lineage.Location{}, 4)
	require.True(t, exceptional)
	assert.Equal(t, CategoryOutOfDeme, cat)
}

func TestClassifyNotExceptionalWhenWithinCapacity(t *testing.T) {
	hab := habitat.NewNonSpatial(5)
	_, exceptional := Classify(hab, lineage.Location{}, 3)
	assert.False(t, exceptional)
}

func TestNearestHabitableCellPicksClosestByChebyshev(t *testing.T) {
	h, err := habitat.NewInMemory(3, 3, []uint32{
		0, 0, 0,
		0, 0, 1,
		0, 0, 0,
	})
	require.NoError(t, err)

	e := Exceptional{GlobalRef: 1, Location: lineage.Location{X: 0, Y: 0}, Category: CategoryOutOfHabitat}
	loc, ok := NearestHabitableCell{}.Repair(e, h)
	require.True(t, ok)
	assert.Equal(t, lineage.Location{X: 2, Y: 1}, loc)
}

func TestNearestHabitableCellFailsWhenHabitatEmpty(t *testing.T) {
	h, err := habitat.NewInMemory(2, 2, []uint32{0, 0, 0, 0})
	require.NoError(t, err)

	_, ok := NearestHabitableCell{}.Repair(Exceptional{}, h)
	assert.False(t, ok)
}

func TestFixUpReturnsResumeErrorListingUnrepairable(t *testing.T) {
	h, err := habitat.NewInMemory(1, 1, []uint32{0})
	require.NoError(t, err)

	exceptional := []Exceptional{
		{GlobalRef: 1, Location: lineage.Location{}, Category: CategoryOutOfHabitat},
	}
	_, err = FixUp(exceptional, h, NearestHabitableCell{})
	assert.Error(t, err)
}

func TestFixUpSucceedsWhenRepairFindsACell(t *testing.T) {
	h, err := habitat.NewInMemory(2, 1, []uint32{0, 4})
	require.NoError(t, err)

	exceptional := []Exceptional{
		{GlobalRef: 9, Location: lineage.Location{X: 0, Y: 0}, Category: CategoryOutOfHabitat},
	}
	placed, err := FixUp(exceptional, h, NearestHabitableCell{})
	require.NoError(t, err)
	assert.Equal(t, lineage.Location{X: 1, Y: 0}, placed[9])
}
