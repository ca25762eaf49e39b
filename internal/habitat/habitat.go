// Package habitat implements the Habitat role (spec §2, §4.2): landscape
// geometry, per-cell capacity (deme count), total habitat, and the
// injective (location, index) -> u64 key mapping.
package habitat

import (
	"iter"

	"github.com/nmxmxh/necsim/internal/lineage"
)

// Extent describes a habitat's bounding rectangle.
type Extent struct {
	X0, Y0 uint32
	Width  uint32
	Height uint32
}

// Contains reports whether loc falls within the extent's bounding box.
// Habitats with wraparound semantics (AlmostInfinite) do not use this —
// every location is in range by construction.
func (e Extent) Contains(loc lineage.Location) bool {
	dx := loc.X - e.X0
	dy := loc.Y - e.Y0
	return dx < e.Width && dy < e.Height
}

// Capacity is a total-habitat capacity value that may equal 2^64, which
// is not representable in a uint64. Overflowed==true means the true
// total is 2^64 exactly (only the AlmostInfinite habitat without a
// coverage overlay, i.e. its full 2^32 x 2^32 torus, reports this).
type Capacity struct {
	Value      uint64
	Overflowed bool
}

func CapacityOf(v uint64) Capacity { return Capacity{Value: v} }

// Habitat is the engine's landscape contract.
type Habitat interface {
	Extent() Extent
	CapacityAt(loc lineage.Location) uint32
	TotalCapacity() Capacity
	Contains(loc lineage.Location) bool
	// LocationKey injectively maps an IndexedLocation to a 64-bit key;
	// encoding then decoding via this map is the identity over
	// habitable cells (testable property, "round-trip laws").
	LocationKey(il lineage.IndexedLocation) uint64
	// Habitable iterates every location with CapacityAt(loc) > 0.
	Habitable() iter.Seq[lineage.Location]
}
