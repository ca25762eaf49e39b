package habitat

import (
	"iter"

	"github.com/nmxmxh/necsim/internal/lineage"
)

// metaLocation is the single sentinel location representing the
// metacommunity pool in a SpatiallyImplicit habitat. Local coordinates
// never reach (MaxUint32, MaxUint32) for any realistic local extent, so
// this is unambiguous.
var metaLocation = lineage.Location{X: ^uint32(0), Y: ^uint32(0)}

// SpatiallyImplicit models a local deme grid plus a single implicit
// metacommunity pool (spec §2 Habitat row; scenario S3): lineages
// migrate from the local grid into the metacommunity with some
// probability, and the metacommunity itself has its own (typically much
// larger) capacity and speciation rate, handled by the turnover/
// speciation roles, not here.
type SpatiallyImplicit struct {
	local          *InMemory
	metaCapacity   uint64
}

var _ Habitat = (*SpatiallyImplicit)(nil)

// NewSpatiallyImplicit builds a habitat with a local W x H grid at
// uniform deme capacity localDeme, plus a metacommunity pool of the
// given total capacity (conventionally metaW*metaH*metaDeme).
func NewSpatiallyImplicit(localWidth, localHeight, localDeme uint32, metaCapacity uint64) (*SpatiallyImplicit, error) {
	cap := make([]uint32, int(localWidth)*int(localHeight))
	for i := range cap {
		cap[i] = localDeme
	}
	local, err := NewInMemory(localWidth, localHeight, cap)
	if err != nil {
		return nil, err
	}
	return &SpatiallyImplicit{local: local, metaCapacity: metaCapacity}, nil
}

// IsMeta reports whether loc is the metacommunity sentinel location.
func (h *SpatiallyImplicit) IsMeta(loc lineage.Location) bool { return loc == metaLocation }

// MetaLocation returns the sentinel Location identifying the
// metacommunity pool.
func (h *SpatiallyImplicit) MetaLocation() lineage.Location { return metaLocation }

func (h *SpatiallyImplicit) Extent() Extent { return h.local.Extent() }

func (h *SpatiallyImplicit) CapacityAt(loc lineage.Location) uint32 {
	if h.IsMeta(loc) {
		if h.metaCapacity > 0xFFFFFFFF {
			return 0xFFFFFFFF
		}
		return uint32(h.metaCapacity)
	}
	return h.local.CapacityAt(loc)
}

func (h *SpatiallyImplicit) TotalCapacity() Capacity {
	local := h.local.TotalCapacity()
	return CapacityOf(local.Value + h.metaCapacity)
}

func (h *SpatiallyImplicit) Contains(loc lineage.Location) bool {
	if h.IsMeta(loc) {
		return h.metaCapacity > 0
	}
	return h.local.Contains(loc)
}

func (h *SpatiallyImplicit) LocationKey(il lineage.IndexedLocation) uint64 {
	if h.IsMeta(il.Location) {
		return ^uint64(0) - uint64(il.Index)
	}
	return h.local.LocationKey(il)
}

func (h *SpatiallyImplicit) Habitable() iter.Seq[lineage.Location] {
	return func(yield func(lineage.Location) bool) {
		for loc := range h.local.Habitable() {
			if !yield(loc) {
				return
			}
		}
		if h.metaCapacity > 0 {
			yield(metaLocation)
		}
	}
}
