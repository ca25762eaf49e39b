package store

import (
	"iter"

	"github.com/nmxmxh/necsim/internal/lineage"
)

// Independent is the CUDA / independent-algorithm lineage store: there
// is no shared coherence state. Lineages carry their own active sampler
// state; Insert only activates (and on first sight registers) the
// lineage, while Extract, Lookup and LookupUnordered scan every owned
// lineage (spec §4.3).
type Independent struct {
	lineages []*lineage.Lineage
	byRef    map[lineage.GlobalReference]*lineage.Lineage
}

var _ Store = (*Independent)(nil)
var _ Coherent = (*Independent)(nil) // the simulation loop calls LookupUnordered for coalescence and target slots

func NewIndependent() *Independent {
	return &Independent{byRef: make(map[lineage.GlobalReference]*lineage.Lineage)}
}

// Own registers a lineage with this worker's store without activating
// it.
func (s *Independent) Own(l *lineage.Lineage) {
	s.lineages = append(s.lineages, l)
	s.byRef[l.GlobalRef] = l
}

func (s *Independent) Len() int {
	n := 0
	for _, l := range s.lineages {
		if l.IsActive() {
			n++
		}
	}
	return n
}

func (s *Independent) Iter() iter.Seq[*lineage.Lineage] {
	return func(yield func(*lineage.Lineage) bool) {
		for _, l := range s.lineages {
			if l.IsActive() {
				if !yield(l) {
					return
				}
			}
		}
	}
}

func (s *Independent) Get(ref lineage.GlobalReference) (*lineage.Lineage, bool) {
	l, ok := s.byRef[ref]
	return l, ok
}

// Insert activates l at loc, registering it via Own if this store has
// not seen it before. No per-cell index is kept: "who else is here"
// queries (LookupUnordered, used by the coalescence check) scan the
// owned lineages.
func (s *Independent) Insert(l *lineage.Lineage, loc lineage.IndexedLocation) error {
	l.Activate(loc)
	if _, known := s.byRef[l.GlobalRef]; !known {
		s.Own(l)
	}
	return nil
}

// Extract clears l's active slot. The lineage reference itself
// (already known to the caller, since the independent sampler carries
// it directly rather than looking it up by IndexedLocation) is
// terminated via Lineage.Terminate, not through this store.
func (s *Independent) Extract(loc lineage.IndexedLocation) (*lineage.Lineage, error) {
	for _, l := range s.lineages {
		if l.IsActive() && *l.Active == loc {
			l.Active = nil
			return l, nil
		}
	}
	return nil, nil
}

func (s *Independent) Lookup(loc lineage.IndexedLocation) (lineage.GlobalReference, bool) {
	for _, l := range s.lineages {
		if l.IsActive() && *l.Active == loc {
			return l.GlobalRef, true
		}
	}
	return 0, false
}

func (s *Independent) LookupUnordered(loc lineage.Location) []lineage.GlobalReference {
	var out []lineage.GlobalReference
	for _, l := range s.lineages {
		if l.IsActive() && l.Active.Location == loc {
			out = append(out, l.GlobalRef)
		}
	}
	return out
}
