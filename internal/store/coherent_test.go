package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmxmxh/necsim/internal/lineage"
)

func TestLocallyCoherentInsertLookupRoundTrip(t *testing.T) {
	s := NewLocallyCoherent()
	loc := lineage.IndexedLocation{Location: lineage.Location{X: 1, Y: 1}, Index: 0}
	l := &lineage.Lineage{GlobalRef: 7}
	l.Activate(loc)

	require.NoError(t, s.Insert(l, loc))
	ref, ok := s.Lookup(loc)
	require.True(t, ok)
	assert.Equal(t, lineage.GlobalReference(7), ref)
	assert.Equal(t, 1, s.Len())
}

func TestLocallyCoherentExtractSwapRemovePreservesBijection(t *testing.T) {
	s := NewLocallyCoherent()
	loc := lineage.Location{X: 2, Y: 2}

	refs := []lineage.GlobalReference{10, 20, 30}
	for i, ref := range refs {
		idxLoc := lineage.IndexedLocation{Location: loc, Index: uint32(i)}
		l := &lineage.Lineage{GlobalRef: ref}
		l.Activate(idxLoc)
		require.NoError(t, s.Insert(l, idxLoc))
	}

	// Extract the middle occupant; the last occupant should be
	// swapped into its slot and remain independently look-up-able.
	_, err := s.Extract(lineage.IndexedLocation{Location: loc, Index: 1})
	require.NoError(t, err)

	assert.Equal(t, 2, s.Len())
	occupants := s.LookupUnordered(loc)
	assert.ElementsMatch(t, []lineage.GlobalReference{10, 30}, occupants)

	// Every remaining occupant must still be reachable by its current
	// IndexedLocation (the bijection invariant).
	for _, ref := range occupants {
		l, ok := s.Get(ref)
		require.True(t, ok)
		require.NotNil(t, l.Active)
		found, ok := s.Lookup(*l.Active)
		require.True(t, ok)
		assert.Equal(t, ref, found)
	}
}

func TestLocallyCoherentLenMatchesActiveCount(t *testing.T) {
	s := NewLocallyCoherent()
	for i := 0; i < 5; i++ {
		idxLoc := lineage.IndexedLocation{Location: lineage.Location{X: uint32(i), Y: 0}, Index: 0}
		l := &lineage.Lineage{GlobalRef: lineage.GlobalReference(i)}
		l.Activate(idxLoc)
		require.NoError(t, s.Insert(l, idxLoc))
	}
	assert.Equal(t, 5, s.Len())

	n := 0
	for range s.Iter() {
		n++
	}
	assert.Equal(t, 5, n)
}
