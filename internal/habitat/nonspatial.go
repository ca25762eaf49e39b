package habitat

import (
	"iter"

	"github.com/nmxmxh/necsim/internal/lineage"
)

// NonSpatial is the single-cell habitat variant: every lineage resides
// at the same Location, distinguished only by deme index, with total
// capacity equal to width*height*deme (the non-spatial "W x H x D"
// scenario sizing convention from spec §8 boundary behaviour / S1).
type NonSpatial struct {
	capacity uint32
}

var _ Habitat = (*NonSpatial)(nil)

// NewNonSpatial builds a non-spatial habitat with the given total
// capacity (conventionally width*height*deme).
func NewNonSpatial(capacity uint32) *NonSpatial {
	return &NonSpatial{capacity: capacity}
}

func (h *NonSpatial) Extent() Extent { return Extent{Width: 1, Height: 1} }

func (h *NonSpatial) CapacityAt(loc lineage.Location) uint32 {
	if loc.X != 0 || loc.Y != 0 {
		return 0
	}
	return h.capacity
}

func (h *NonSpatial) TotalCapacity() Capacity { return CapacityOf(uint64(h.capacity)) }

func (h *NonSpatial) Contains(loc lineage.Location) bool {
	return loc.X == 0 && loc.Y == 0 && h.capacity > 0
}

func (h *NonSpatial) LocationKey(il lineage.IndexedLocation) uint64 {
	return uint64(il.Index)
}

func (h *NonSpatial) Habitable() iter.Seq[lineage.Location] {
	return func(yield func(lineage.Location) bool) {
		if h.capacity > 0 {
			yield(lineage.Location{})
		}
	}
}
