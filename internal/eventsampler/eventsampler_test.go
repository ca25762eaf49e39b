package eventsampler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nmxmxh/necsim/internal/coalescence"
	"github.com/nmxmxh/necsim/internal/dispersal"
	"github.com/nmxmxh/necsim/internal/emigration"
	"github.com/nmxmxh/necsim/internal/lineage"
	"github.com/nmxmxh/necsim/internal/rng"
	"github.com/nmxmxh/necsim/internal/speciation"
)

type stubOccupancy struct {
	occupants []lineage.GlobalReference
	capacity  uint32
}

func (o stubOccupancy) OccupantsAt(lineage.Location) []lineage.GlobalReference { return o.occupants }
func (o stubOccupancy) CapacityAt(lineage.Location) uint32                    { return o.capacity }

// stubDispersal always disperses to a fixed, caller-chosen target,
// independent of the lineage's RNG stream or origin.
type stubDispersal struct{ target lineage.Location }

func (d stubDispersal) SampleTarget(rng.Source, lineage.Location) lineage.Location { return d.target }

func TestUnconditionalSpeciatesWhenProbabilityIsOne(t *testing.T) {
	deps := Dependencies{
		Speciation:  speciation.Uniform{P: 1.0},
		Dispersal:   dispersal.NonSpatialUniform{},
		Emigration:  emigration.Never{},
		Coalescence: coalescence.Unconditional{},
		Occupancy:   stubOccupancy{},
	}
	src := rng.PCGSeedFromU64(1)
	out := Unconditional{}.SampleEvent(src, 1, lineage.IndexedLocation{}, 0, 1.0, deps)
	assert.Equal(t, OutcomeSpeciation, out.Kind)
}

func TestUnconditionalEmigratesWhenExitAccepts(t *testing.T) {
	deps := Dependencies{
		Speciation: speciation.Uniform{P: 0.0},
		Dispersal:  dispersal.NonSpatialUniform{},
		Emigration: emigration.NewDomainDecomposition(func(lineage.Location) uint32 { return 1 }, 0),
		Coalescence: coalescence.Unconditional{},
		Occupancy:  stubOccupancy{},
	}
	src := rng.PCGSeedFromU64(2)
	out := Unconditional{}.SampleEvent(src, 5, lineage.IndexedLocation{}, 0, 1.0, deps)
	assert.Equal(t, OutcomeEmigration, out.Kind)
	assert.Equal(t, lineage.GlobalReference(5), out.Migrating.GlobalRef)
}

func TestUnconditionalCoalescesWhenTargetFull(t *testing.T) {
	deps := Dependencies{
		Speciation:  speciation.Uniform{P: 0.0},
		Dispersal:   dispersal.NonSpatialUniform{},
		Emigration:  emigration.Never{},
		Coalescence: coalescence.Conditional{},
		Occupancy:   stubOccupancy{occupants: []lineage.GlobalReference{77}, capacity: 1},
	}
	src := rng.PCGSeedFromU64(3)
	out := Unconditional{}.SampleEvent(src, 9, lineage.IndexedLocation{}, 0, 1.0, deps)
	assert.Equal(t, OutcomeDispersal, out.Kind)
	assert.True(t, out.Coalesced)
	assert.Equal(t, lineage.GlobalReference(77), out.Parent)
}

func TestGillespieConditionalAlwaysCoalescesOnSelfDispersal(t *testing.T) {
	deps := Dependencies{
		Speciation: speciation.Uniform{P: 0.0},
		Dispersal:  dispersal.NonSpatialUniform{}, // SampleTarget always returns origin: self-dispersal
		Emigration: emigration.Never{},
		// coalescence.Unconditional would only coalesce probabilistically
		// on occupancy/capacity; leaving it wired here (rather than
		// Conditional) proves GillespieConditional's self-dispersal rule
		// bypasses it entirely.
		Coalescence: coalescence.Unconditional{},
		Occupancy:   stubOccupancy{occupants: []lineage.GlobalReference{77}, capacity: 100},
	}
	src := rng.PCGSeedFromU64(11)
	out := GillespieConditional{}.SampleEvent(src, 9, lineage.IndexedLocation{}, 0, 1.0, deps)
	assert.Equal(t, OutcomeDispersal, out.Kind)
	assert.True(t, out.Coalesced)
	assert.Equal(t, lineage.GlobalReference(77), out.Parent)
}

func TestGillespieConditionalSpeciatesWhenProbabilityIsOne(t *testing.T) {
	deps := Dependencies{
		Speciation:  speciation.Uniform{P: 1.0},
		Dispersal:   dispersal.NonSpatialUniform{},
		Emigration:  emigration.Never{},
		Coalescence: coalescence.Conditional{},
		Occupancy:   stubOccupancy{},
	}
	src := rng.PCGSeedFromU64(12)
	out := GillespieConditional{}.SampleEvent(src, 1, lineage.IndexedLocation{}, 0, 1.0, deps)
	assert.Equal(t, OutcomeSpeciation, out.Kind)
}

func TestGillespieConditionalDefersToCoalescenceOnOutDispersal(t *testing.T) {
	origin := lineage.IndexedLocation{Location: lineage.Location{X: 0, Y: 0}}
	deps := Dependencies{
		Speciation:  speciation.Uniform{P: 0.0},
		Dispersal:   stubDispersal{target: lineage.Location{X: 1, Y: 0}},
		Emigration:  emigration.Never{},
		Coalescence: coalescence.Conditional{},
		Occupancy:   stubOccupancy{occupants: nil, capacity: 10},
	}
	src := rng.PCGSeedFromU64(13)
	out := GillespieConditional{}.SampleEvent(src, 1, origin, 0, 1.0, deps)
	assert.Equal(t, OutcomeDispersal, out.Kind)
	assert.False(t, out.Coalesced, "coalescence.Conditional never coalesces onto an empty cell")
}

func TestTrackedRecordsSpeciationSample(t *testing.T) {
	deps := Dependencies{
		Speciation:  speciation.Uniform{P: 1.0},
		Dispersal:   dispersal.NonSpatialUniform{},
		Emigration:  emigration.Never{},
		Coalescence: coalescence.Unconditional{},
		Occupancy:   stubOccupancy{},
	}
	tracked := Tracked{LocationKeyOf: func(loc lineage.Location) uint64 { return uint64(loc.X)<<32 | uint64(loc.Y) }}
	src := rng.PCGSeedFromU64(4)
	out, sample := tracked.SampleEventTracked(src, 1, lineage.IndexedLocation{Location: lineage.Location{X: 3, Y: 4}}, 0, 2.0, deps)
	assert.Equal(t, OutcomeSpeciation, out.Kind)
	assert.Equal(t, lineage.Time(2.0), sample.Time)
	assert.Equal(t, uint64(3)<<32|4, sample.LocationKey)
}
