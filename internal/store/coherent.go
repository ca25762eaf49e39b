package store

import (
	"fmt"
	"iter"

	"github.com/nmxmxh/necsim/internal/lineage"
)

// LocallyCoherent is the single-partition lineage store used by the
// classical and Gillespie algorithms (spec §4.3): a slab of lineages
// indexed by a small integer reference, an IndexedLocation ->
// (GlobalRef, index-within-unordered-slice) map, and a per-cell vector
// of active references. Extraction is swap-remove, updating the
// displaced element's back-index — see design note "Ownership of
// lineage graphs": encode via arena + free-list, not linked pointers.
type LocallyCoherent struct {
	slab []lineage.Lineage
	free []int32

	byRef map[lineage.GlobalReference]int32

	// perCell[loc] is the unordered set of active global references at
	// loc; position within the slice is what IndexedLocation.Index
	// indexes into the "index-within-unordered-slice" map below.
	perCell map[lineage.Location][]lineage.GlobalReference
	indexed map[lineage.IndexedLocation]int
}

var _ Coherent = (*LocallyCoherent)(nil)

func NewLocallyCoherent() *LocallyCoherent {
	return &LocallyCoherent{
		byRef:   make(map[lineage.GlobalReference]int32),
		perCell: make(map[lineage.Location][]lineage.GlobalReference),
		indexed: make(map[lineage.IndexedLocation]int),
	}
}

// Create registers a brand-new lineage in the slab without activating
// it. Insert also registers a lineage it has not seen before, so calling
// Create first is optional.
func (s *LocallyCoherent) Create(ref lineage.GlobalReference, at lineage.Time) *lineage.Lineage {
	l := lineage.Lineage{GlobalRef: ref, LastEventTime: at}
	var idx int32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
		s.slab[idx] = l
	} else {
		idx = int32(len(s.slab))
		s.slab = append(s.slab, l)
	}
	s.byRef[ref] = idx
	return &s.slab[idx]
}

func (s *LocallyCoherent) Len() int {
	n := 0
	for _, refs := range s.perCell {
		n += len(refs)
	}
	return n
}

func (s *LocallyCoherent) Iter() iter.Seq[*lineage.Lineage] {
	return func(yield func(*lineage.Lineage) bool) {
		for idx := range s.slab {
			if s.slab[idx].IsActive() {
				if !yield(&s.slab[idx]) {
					return
				}
			}
		}
	}
}

func (s *LocallyCoherent) Get(ref lineage.GlobalReference) (*lineage.Lineage, bool) {
	idx, ok := s.byRef[ref]
	if !ok {
		return nil, false
	}
	return &s.slab[idx], true
}

func (s *LocallyCoherent) Insert(l *lineage.Lineage, loc lineage.IndexedLocation) error {
	if _, exists := s.indexed[loc]; exists {
		return fmt.Errorf("store: slot %s already occupied", loc)
	}
	l.Activate(loc)
	if _, known := s.byRef[l.GlobalRef]; !known {
		s.byRef[l.GlobalRef] = int32(len(s.slab))
		s.slab = append(s.slab, *l)
	}
	refs := s.perCell[loc.Location]
	pos := len(refs)
	s.perCell[loc.Location] = append(refs, l.GlobalRef)
	s.indexed[loc] = pos
	return nil
}

func (s *LocallyCoherent) Extract(loc lineage.IndexedLocation) (*lineage.Lineage, error) {
	pos, ok := s.indexed[loc]
	if !ok {
		return nil, fmt.Errorf("store: slot %s is empty", loc)
	}
	refs := s.perCell[loc.Location]
	ref := refs[pos]

	last := len(refs) - 1
	if pos != last {
		displaced := refs[last]
		refs[pos] = displaced
		// The displaced element's own IndexedLocation.Index is whatever
		// deme slot it held; find and update its back-index entry to
		// point at its new position.
		s.reindexDisplaced(loc.Location, displaced, pos)
	}
	refs = refs[:last]
	if len(refs) == 0 {
		delete(s.perCell, loc.Location)
	} else {
		s.perCell[loc.Location] = refs
	}
	delete(s.indexed, loc)

	idx := s.byRef[ref]
	l := &s.slab[idx]
	l.Active = nil
	s.free = append(s.free, idx)
	return l, nil
}

// reindexDisplaced updates the indexed map entry for the lineage that
// was moved into pos during swap-remove. Locating its IndexedLocation
// requires scanning the lineage's own Active field, which still holds
// its deme index at the time of the swap.
func (s *LocallyCoherent) reindexDisplaced(loc lineage.Location, displacedRef lineage.GlobalReference, newPos int) {
	idx, ok := s.byRef[displacedRef]
	if !ok {
		return
	}
	l := &s.slab[idx]
	if l.Active == nil {
		return
	}
	s.indexed[lineage.IndexedLocation{Location: loc, Index: l.Active.Index}] = newPos
}

func (s *LocallyCoherent) Lookup(loc lineage.IndexedLocation) (lineage.GlobalReference, bool) {
	pos, ok := s.indexed[loc]
	if !ok {
		return 0, false
	}
	return s.perCell[loc.Location][pos], true
}

func (s *LocallyCoherent) LookupUnordered(loc lineage.Location) []lineage.GlobalReference {
	return s.perCell[loc]
}

func (s *LocallyCoherent) IterActiveLocations() iter.Seq[lineage.Location] {
	return func(yield func(lineage.Location) bool) {
		for loc, refs := range s.perCell {
			if len(refs) == 0 {
				continue
			}
			if !yield(loc) {
				return
			}
		}
	}
}

// GloballyCoherent is identical to LocallyCoherent in every invariant;
// it is kept as a distinct named type (rather than a type alias),
// matching spec §4.3's distinction between single-partition and
// multi-partition coherent storage even though their implementations
// coincide. The builder (internal/builder) always constructs a
// LocallyCoherent store, and nothing in the engine calls
// IterActiveLocations.
type GloballyCoherent struct {
	LocallyCoherent
}

var _ GloballyCoherentStore = (*GloballyCoherent)(nil)

func NewGloballyCoherent() *GloballyCoherent {
	return &GloballyCoherent{LocallyCoherent: *NewLocallyCoherent()}
}
