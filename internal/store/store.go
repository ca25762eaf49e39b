// Package store implements the LineageStore role (spec §2, §4.3): owns
// lineages and maintains the indexed-location <-> lineage bijection at
// active positions.
package store

import (
	"iter"

	"github.com/nmxmxh/necsim/internal/lineage"
)

// Store is the common read interface shared by every LineageStore
// variant (spec §4.3: "len, iter, get(reference)").
type Store interface {
	Len() int
	Iter() iter.Seq[*lineage.Lineage]
	Get(ref lineage.GlobalReference) (*lineage.Lineage, bool)
}

// Coherent is implemented by the locally- and globally-coherent store
// variants: it maintains the IndexedLocation <-> lineage bijection
// described in spec §3 ("LineageStore bijection").
type Coherent interface {
	Store
	Insert(l *lineage.Lineage, loc lineage.IndexedLocation) error
	Extract(loc lineage.IndexedLocation) (*lineage.Lineage, error)
	Lookup(loc lineage.IndexedLocation) (lineage.GlobalReference, bool)
	LookupUnordered(loc lineage.Location) []lineage.GlobalReference
}

// GloballyCoherentStore additionally exposes the set of currently-
// occupied locations (spec §4.3). No sampler in the engine calls
// IterActiveLocations; GillespieAlias keeps its own per-location
// weights, set by the simulation loop.
type GloballyCoherentStore interface {
	Coherent
	IterActiveLocations() iter.Seq[lineage.Location]
}
