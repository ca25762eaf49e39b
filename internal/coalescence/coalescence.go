// Package coalescence implements the CoalescenceSampler role (spec §2,
// §4.5): given an arrival location, decide whether the dispersing
// lineage coalesces with a resident.
package coalescence

import (
	"github.com/nmxmxh/necsim/internal/lineage"
	"github.com/nmxmxh/necsim/internal/rng"
)

// Occupancy gives the coalescence sampler just enough of the target
// cell's state to decide an interaction, without depending on a
// concrete LineageStore implementation.
type Occupancy interface {
	// OccupantsAt returns the active global references currently
	// resident at loc (the store's LookupUnordered).
	OccupantsAt(loc lineage.Location) []lineage.GlobalReference
	CapacityAt(loc lineage.Location) uint32
}

// Sampler is the engine's coalescence contract: given the target
// location of a dispersing lineage, decide whether it coalesces with a
// resident, consuming exactly one RNG sample when it does decide.
type Sampler interface {
	SampleInteraction(src rng.Source, occ Occupancy, target lineage.Location) (coalesced bool, parent lineage.GlobalReference)
}

// Unconditional coalesces with probability occupancy/capacity — a
// dispersing lineage lands in a deme slot chosen uniformly among all
// capacity slots, some of which may already be occupied (spec §2,
// "unconditional (probability = occupancy/capacity)").
type Unconditional struct{}

var _ Sampler = Unconditional{}

func (Unconditional) SampleInteraction(src rng.Source, occ Occupancy, target lineage.Location) (bool, lineage.GlobalReference) {
	occupants := occ.OccupantsAt(target)
	capacity := occ.CapacityAt(target)
	if capacity == 0 || len(occupants) == 0 {
		return false, 0
	}
	u := rng.UniformClosedOpenUnit(src) * float64(capacity)
	if u < float64(len(occupants)) {
		return true, occupants[int(u)]
	}
	return false, 0
}

// Conditional always coalesces if the target cell is occupied at all —
// used by scenarios where every deme slot is guaranteed distinct from
// every other lineage's slot except on genuine coalescence (spec §2,
// "conditional (always coalesce if any)").
type Conditional struct{}

var _ Sampler = Conditional{}

func (Conditional) SampleInteraction(src rng.Source, occ Occupancy, target lineage.Location) (bool, lineage.GlobalReference) {
	occupants := occ.OccupantsAt(target)
	if len(occupants) == 0 {
		return false, 0
	}
	parent := occupants[rng.Index(src, uint64(len(occupants)))]
	return true, parent
}
