// Package eventsampler implements the EventSampler role (spec §2, §4.5):
// deciding the next event type for a popped lineage, in the fixed order
// mandated by spec §4.1 step 3 (speciation roll, then dispersal target,
// then emigration check, then coalescence check) — this order is load
// bearing for reproducibility: changing it changes which RNG draws are
// consumed by which sub-sampler.
package eventsampler

import (
	"github.com/nmxmxh/necsim/internal/coalescence"
	"github.com/nmxmxh/necsim/internal/dispersal"
	"github.com/nmxmxh/necsim/internal/emigration"
	"github.com/nmxmxh/necsim/internal/lineage"
	"github.com/nmxmxh/necsim/internal/rng"
	"github.com/nmxmxh/necsim/internal/speciation"
)

// OutcomeKind discriminates the three possible results of sampling an
// event for a lineage (spec §4.1 step 3).
type OutcomeKind uint8

const (
	OutcomeSpeciation OutcomeKind = iota
	OutcomeDispersal
	OutcomeEmigration
)

// Outcome is the result of sampling one event for one lineage.
type Outcome struct {
	Kind OutcomeKind

	// Valid when Kind == OutcomeDispersal.
	Target     lineage.Location
	Coalesced  bool
	Parent     lineage.GlobalReference

	// Valid when Kind == OutcomeEmigration.
	Migrating lineage.MigratingLineage
}

// Dependencies bundles the sub-samplers an EventSampler consults, kept
// as an explicit struct (rather than threading five separate interfaces
// through every call) so call sites read like the spec's step list.
type Dependencies struct {
	Speciation  speciation.Probability
	Dispersal   dispersal.Sampler
	Emigration  emigration.Exit
	Coalescence coalescence.Sampler
	Occupancy   coalescence.Occupancy
}

// Sampler is the engine's event-sampler contract.
type Sampler interface {
	SampleEvent(
		src rng.Source,
		global lineage.GlobalReference,
		origin lineage.IndexedLocation,
		prior, at lineage.Time,
		deps Dependencies,
	) Outcome
}

// Unconditional implements spec §4.5 "Unconditional": roll a uniform
// against the speciation probability; if it doesn't speciate, sample a
// dispersal target, give EmigrationExit first refusal, then consult
// CoalescenceSampler.
type Unconditional struct{}

var _ Sampler = Unconditional{}

func (Unconditional) SampleEvent(
	src rng.Source,
	global lineage.GlobalReference,
	origin lineage.IndexedLocation,
	prior, at lineage.Time,
	deps Dependencies,
) Outcome {
	u1 := rng.UniformClosedOpenUnit(src)
	if u1 < deps.Speciation.At(origin.Location) {
		return Outcome{Kind: OutcomeSpeciation}
	}

	target := deps.Dispersal.SampleTarget(src, origin.Location)

	// Reserve the coalescence RNG sample now, before consulting
	// emigration, so a remote receiver can finish dispersal sampling
	// deterministically without re-drawing (spec §3 MigratingLineage,
	// §4.1 step 3).
	coalescenceRNG := src.SampleU64()

	if mig, ok := deps.Emigration.MaybeEmigrate(global, origin.Location, target, prior, at, coalescenceRNG); ok {
		return Outcome{Kind: OutcomeEmigration, Migrating: mig}
	}

	coalesced, parent := deps.Coalescence.SampleInteraction(src, deps.Occupancy, target)
	return Outcome{Kind: OutcomeDispersal, Target: target, Coalesced: coalesced, Parent: parent}
}

// GillespieConditional implements spec §4.5 "Gillespie (conditional)":
// the same fixed draw order as Unconditional (speciation roll, then
// dispersal target, then emigration), but a dispersal target equal to
// the lineage's own origin is treated as self-dispersal and always
// coalesces, without consuming CoalescenceSampler's occupancy-ratio
// roll — matching the spec's "always coalesces on self-dispersal"
// rule, which Unconditional's occupancy/capacity roll does not
// guarantee. Out-dispersal still defers to CoalescenceSampler, which
// the builder pairs with coalescence.Conditional for this algorithm.
type GillespieConditional struct{}

var _ Sampler = GillespieConditional{}

func (GillespieConditional) SampleEvent(
	src rng.Source,
	global lineage.GlobalReference,
	origin lineage.IndexedLocation,
	prior, at lineage.Time,
	deps Dependencies,
) Outcome {
	u1 := rng.UniformClosedOpenUnit(src)
	if u1 < deps.Speciation.At(origin.Location) {
		return Outcome{Kind: OutcomeSpeciation}
	}

	target := deps.Dispersal.SampleTarget(src, origin.Location)
	coalescenceRNG := src.SampleU64()

	if mig, ok := deps.Emigration.MaybeEmigrate(global, origin.Location, target, prior, at, coalescenceRNG); ok {
		return Outcome{Kind: OutcomeEmigration, Migrating: mig}
	}

	if target == origin.Location {
		occupants := deps.Occupancy.OccupantsAt(target)
		var parent lineage.GlobalReference
		if len(occupants) > 0 {
			parent = occupants[rng.Index(src, uint64(len(occupants)))]
		}
		return Outcome{Kind: OutcomeDispersal, Target: target, Coalesced: true, Parent: parent}
	}

	coalesced, parent := deps.Coalescence.SampleInteraction(src, deps.Occupancy, target)
	return Outcome{Kind: OutcomeDispersal, Target: target, Coalesced: coalesced, Parent: parent}
}

// Tracker is implemented by event samplers that additionally report the
// SpeciationSample consumed on a step, so the driver can route it
// through a DedupCache (spec §4.8(a)).
type Tracker interface {
	Sampler
	SampleEventTracked(
		src rng.Source,
		global lineage.GlobalReference,
		origin lineage.IndexedLocation,
		prior, at lineage.Time,
		deps Dependencies,
	) (Outcome, lineage.SpeciationSample)
}

// Tracked is the independent algorithm's EventSampler: the same fixed
// step order as Unconditional, but it additionally records the
// (location, time, uniform) triple consumed for the speciation roll, so
// a DedupCache (internal/dedup) can detect two lineages independently
// sampling the same speciation event without either knowing about the
// other (spec §4.8).
type Tracked struct {
	LocationKeyOf func(lineage.Location) uint64
}

var _ Sampler = Tracked{}
var _ Tracker = Tracked{}

// SampleEvent satisfies Sampler by discarding the tracked sample,
// letting a Tracked value be stored directly in Roles.EventSample; the
// driver recovers the sample by type-asserting to Tracker.
func (t Tracked) SampleEvent(
	src rng.Source,
	global lineage.GlobalReference,
	origin lineage.IndexedLocation,
	prior, at lineage.Time,
	deps Dependencies,
) Outcome {
	outcome, _ := t.SampleEventTracked(src, global, origin, prior, at, deps)
	return outcome
}

func (t Tracked) SampleEventTracked(
	src rng.Source,
	global lineage.GlobalReference,
	origin lineage.IndexedLocation,
	prior, at lineage.Time,
	deps Dependencies,
) (Outcome, lineage.SpeciationSample) {
	u1 := rng.UniformClosedOpenUnit(src)
	sample := lineage.SpeciationSample{
		LocationKey: t.LocationKeyOf(origin.Location),
		Time:        at,
		Uniform:     u1,
	}

	if u1 < deps.Speciation.At(origin.Location) {
		return Outcome{Kind: OutcomeSpeciation}, sample
	}

	target := deps.Dispersal.SampleTarget(src, origin.Location)
	coalescenceRNG := src.SampleU64()

	if mig, ok := deps.Emigration.MaybeEmigrate(global, origin.Location, target, prior, at, coalescenceRNG); ok {
		return Outcome{Kind: OutcomeEmigration, Migrating: mig}, sample
	}

	coalesced, parent := deps.Coalescence.SampleInteraction(src, deps.Occupancy, target)
	return Outcome{Kind: OutcomeDispersal, Target: target, Coalesced: coalesced, Parent: parent}, sample
}
