package habitat

import (
	"fmt"
	"iter"

	"github.com/nmxmxh/necsim/internal/lineage"
	"github.com/nmxmxh/necsim/internal/rng"
)

// InMemory is a raster habitat of width W, height H with an explicit
// per-cell capacity (deme count) and an auxiliary prefix-sum table
// enabling O(log N) uniform sampling of habitable cells weighted by
// capacity (spec §4.2).
type InMemory struct {
	width, height uint32
	capacity      []uint32 // row-major, len == width*height
	prefix        []uint64 // prefix[i] == sum(capacity[:i]); len == width*height+1
	total         uint64
}

var _ Habitat = (*InMemory)(nil)

// NewInMemory builds an InMemory habitat from a row-major capacity
// grid. Returns an error if dims don't match len(capacity) or any entry
// is negative-equivalent (capacity is unsigned, so only dimension
// mismatch is checked here; §7 ConfigurationError "habitat map of size
// 0" is the caller's responsibility to reject before construction).
func NewInMemory(width, height uint32, capacity []uint32) (*InMemory, error) {
	if len(capacity) != int(width)*int(height) {
		return nil, fmt.Errorf("habitat: capacity has %d cells, want %d (= %d x %d)", len(capacity), int(width)*int(height), width, height)
	}
	h := &InMemory{width: width, height: height, capacity: capacity}
	h.prefix = make([]uint64, len(capacity)+1)
	var acc uint64
	for i, c := range capacity {
		acc += uint64(c)
		h.prefix[i+1] = acc
	}
	h.total = acc
	return h, nil
}

func (h *InMemory) Extent() Extent {
	return Extent{Width: h.width, Height: h.height}
}

func (h *InMemory) index(loc lineage.Location) (int, bool) {
	if loc.X >= h.width || loc.Y >= h.height {
		return 0, false
	}
	return int(loc.Y)*int(h.width) + int(loc.X), true
}

func (h *InMemory) CapacityAt(loc lineage.Location) uint32 {
	i, ok := h.index(loc)
	if !ok {
		return 0
	}
	return h.capacity[i]
}

func (h *InMemory) TotalCapacity() Capacity { return CapacityOf(h.total) }

func (h *InMemory) Contains(loc lineage.Location) bool {
	return h.CapacityAt(loc) > 0
}

func (h *InMemory) LocationKey(il lineage.IndexedLocation) uint64 {
	i, _ := h.index(il.Location)
	return uint64(i)<<32 | uint64(il.Index)
}

func (h *InMemory) Habitable() iter.Seq[lineage.Location] {
	return func(yield func(lineage.Location) bool) {
		for y := uint32(0); y < h.height; y++ {
			for x := uint32(0); x < h.width; x++ {
				if h.capacity[int(y)*int(h.width)+int(x)] == 0 {
					continue
				}
				if !yield(lineage.Location{X: x, Y: y}) {
					return
				}
			}
		}
	}
}

// SampleWeightedLocation draws a habitable location with probability
// proportional to its capacity, via binary search over the prefix-sum
// table (O(log N)); used by the origin sampler at initialisation.
func (h *InMemory) SampleWeightedLocation(src rng.Source) lineage.Location {
	if h.total == 0 {
		return lineage.Location{}
	}
	target := rng.Index(src, h.total)
	// binary search for the smallest i such that prefix[i+1] > target
	lo, hi := 0, len(h.capacity)
	for lo < hi {
		mid := (lo + hi) / 2
		if h.prefix[mid+1] > target {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lineage.Location{X: uint32(lo) % h.width, Y: uint32(lo) / h.width}
}
