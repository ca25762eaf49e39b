// Package simulation assembles the roles (internal/habitat, rng,
// speciation, turnover, dispersal, store, coalescence, emigration,
// immigration, eventsampler, active) into the engine's main loop (spec
// §4.1).
package simulation

import (
	"github.com/nmxmxh/necsim/internal/active"
	"github.com/nmxmxh/necsim/internal/coalescence"
	"github.com/nmxmxh/necsim/internal/dedup"
	"github.com/nmxmxh/necsim/internal/dispersal"
	"github.com/nmxmxh/necsim/internal/emigration"
	"github.com/nmxmxh/necsim/internal/event"
	"github.com/nmxmxh/necsim/internal/eventsampler"
	"github.com/nmxmxh/necsim/internal/habitat"
	"github.com/nmxmxh/necsim/internal/immigration"
	"github.com/nmxmxh/necsim/internal/lineage"
	"github.com/nmxmxh/necsim/internal/rng"
	"github.com/nmxmxh/necsim/internal/speciation"
	"github.com/nmxmxh/necsim/internal/store"
	"github.com/nmxmxh/necsim/internal/turnover"
)

// Sink receives every sampled speciation and dispersal outcome; the
// caller's reporter implements it.
type Sink interface {
	Speciation(global lineage.GlobalReference, origin lineage.IndexedLocation, prior, at lineage.Time)
	Dispersal(global lineage.GlobalReference, origin, target lineage.IndexedLocation, prior, at lineage.Time, coalesced bool, parent lineage.GlobalReference)
}

// Roles bundles every pluggable component a Simulation needs (spec §2).
type Roles struct {
	Habitat     habitat.Habitat
	RNG         rng.Source
	Speciation  speciation.Probability
	Dispersal   dispersal.Sampler
	Turnover    turnover.Rate
	Store       store.Coherent
	Coalescence coalescence.Sampler
	EventSample eventsampler.Sampler
	Emigration  emigration.Exit
	Immigration immigration.Entry
	Active      active.Sampler

	// Dedup is non-nil only for the independent algorithm: it catches two
	// lineages independently re-deriving the same speciation sample
	// (spec §4.8(a)).
	Dedup *dedup.Cache
	// LocationKeyOf is required when Active is an *active.Independent,
	// supplying the per-(location, deme-slot) key ArriveAt primes its RNG
	// with; habitat.Habitat.LocationKey is injective over
	// IndexedLocation specifically so that two lineages sharing a cell
	// still derive distinct event streams (spec §4.2, §4.4).
	LocationKeyOf func(lineage.IndexedLocation) uint64
}

// Occupancy adapts a store.Coherent to coalescence.Occupancy.
type storeOccupancy struct {
	s   store.Coherent
	hab habitat.Habitat
}

func (o storeOccupancy) OccupantsAt(loc lineage.Location) []lineage.GlobalReference {
	return o.s.LookupUnordered(loc)
}

func (o storeOccupancy) CapacityAt(loc lineage.Location) uint32 {
	return o.hab.CapacityAt(loc)
}

// Simulation drives the coalescence engine's main loop for one
// partition. It is deliberately free of any transport concerns:
// emigrants are handed to roles.Immigration and arrivals are taken from
// it, and internal/partition never references a Simulation.
type Simulation struct {
	roles Roles
	occ   storeOccupancy
	sink  Sink

	activeLineages uint64
	time           lineage.Time
}

// New builds a Simulation over the given roles, wired to report sampled
// events to sink.
func New(roles Roles, sink Sink) *Simulation {
	return &Simulation{
		roles: roles,
		occ:   storeOccupancy{s: roles.Store, hab: roles.Habitat},
		sink:  sink,
	}
}

// ActiveLineageCount reports the number of lineages still awaiting
// coalescence or speciation — the termination signal for
// simulate_incremental_early_stop (spec §4.1).
func (s *Simulation) ActiveLineageCount() uint64 { return s.activeLineages }

// Time reports the simulation's current (backwards) time cursor.
func (s *Simulation) Time() lineage.Time { return s.time }

// Seed activates l at loc, inserts it into the store and arms whichever
// active-lineage sampler is configured, and counts it into
// ActiveLineageCount. This is the one path by which a lineage enters
// the simulation already wired to produce events; builder.SeedSample
// and any restart/immigration intake must go through it rather than
// touching roles.Store directly (a direct Store.Insert leaves the
// active sampler unarmed and activeLineages under-counted).
func (s *Simulation) Seed(l *lineage.Lineage, loc lineage.IndexedLocation) error {
	l.Activate(loc)
	if err := s.roles.Store.Insert(l, loc); err != nil {
		return err
	}
	s.activeLineages++
	s.arrive(l.GlobalRef, loc, l.LastEventTime)
	return nil
}

// arrive (re)arms whichever active-lineage sampler is configured for
// the lineage now occupying idx, given floor as the time after which
// its next event must fall. It replaces the duplicated ad-hoc type
// assertions DrainImmigrants and StepOnce used to perform inline.
func (s *Simulation) arrive(global lineage.GlobalReference, idx lineage.IndexedLocation, floor lineage.Time) {
	switch a := s.roles.Active.(type) {
	case *active.Classical:
		a.Arrive(s.roles.RNG, idx.Location, floor, uint32(len(s.roles.Store.LookupUnordered(idx.Location))))
	case *active.GillespieAlias:
		occupancy := len(s.roles.Store.LookupUnordered(idx.Location))
		a.SetWeight(idx.Location, s.roles.Turnover.At(idx.Location)*float64(occupancy))
	case *active.Independent:
		if global == lineage.Invalid || s.roles.LocationKeyOf == nil {
			return
		}
		primeable, ok := s.roles.RNG.(rng.Primeable)
		if !ok {
			return
		}
		a.ArriveAt(primeable, global, idx, s.roles.LocationKeyOf(idx), floor)
	}
}

// DrainImmigrants pulls any buffered arrivals and activates them in the
// local store (spec §4.1 step 7), to be called before each StepOnce.
func (s *Simulation) DrainImmigrants() {
	for _, mig := range s.roles.Immigration.Drain() {
		l := &lineage.Lineage{GlobalRef: mig.GlobalRef, LastEventTime: mig.EventTime}
		occupants := s.roles.Store.LookupUnordered(mig.DispersalTarget)
		idx := uint32(len(occupants))
		loc := lineage.IndexedLocation{Location: mig.DispersalTarget, Index: idx}
		_ = s.Seed(l, loc)
	}
}

// StepOnce pops the globally-next lineage and samples one event for it,
// in the order mandated by spec §4.1 step 3: speciation roll, dispersal
// target, emigration check, coalescence check.
//
// It returns ok==false once the active-lineage queue is empty — the
// caller (simulate_incremental_early_stop) uses this, combined with
// ActiveLineageCount()==0 and ImmigrationEntry.Empty(), to decide
// whether the partition has genuinely finished or is merely waiting on
// remote input.
func (s *Simulation) StepOnce() (ok bool) {
	global, origin, at, ok := s.roles.Active.PopNext(s.roles.RNG)
	if !ok {
		return false
	}
	l, found := s.roles.Store.Get(global)
	if !found || !l.IsActive() {
		return true
	}
	origin = *l.Active
	prior := l.LastEventTime
	s.time = at

	deps := eventsampler.Dependencies{
		Speciation:  s.roles.Speciation,
		Dispersal:   s.roles.Dispersal,
		Emigration:  s.roles.Emigration,
		Coalescence: s.roles.Coalescence,
		Occupancy:   s.occ,
	}
	var outcome eventsampler.Outcome
	if tracker, ok := s.roles.EventSample.(eventsampler.Tracker); ok {
		var sample lineage.SpeciationSample
		outcome, sample = tracker.SampleEventTracked(s.roles.RNG, global, origin, prior, at, deps)
		if outcome.Kind == eventsampler.OutcomeSpeciation && s.roles.Dedup != nil && s.roles.Dedup.CheckAndInsert(sample) {
			// Another lineage already reported this speciation event;
			// this lineage still terminates here, but must not be
			// double-counted by the reporter.
			s.terminate(l, origin, at)
			return true
		}
	} else {
		outcome = s.roles.EventSample.SampleEvent(s.roles.RNG, global, origin, prior, at, deps)
	}

	switch outcome.Kind {
	case eventsampler.OutcomeSpeciation:
		s.terminate(l, origin, at)
		s.sink.Speciation(global, origin, prior, at)

	case eventsampler.OutcomeEmigration:
		s.terminate(l, origin, at)
		s.roles.Immigration.Push(outcome.Migrating)

	case eventsampler.OutcomeDispersal:
		s.roles.Store.Extract(origin)
		targetOccupants := s.roles.Store.LookupUnordered(outcome.Target)
		targetIdx := uint32(len(targetOccupants))
		for {
			if _, taken := s.roles.Store.Lookup(lineage.IndexedLocation{Location: outcome.Target, Index: targetIdx}); !taken {
				break
			}
			targetIdx++
		}
		targetLoc := lineage.IndexedLocation{Location: outcome.Target, Index: targetIdx}

		if outcome.Coalesced {
			l.Terminate(at)
			s.activeLineages--
			s.sink.Dispersal(global, origin, targetLoc, prior, at, true, outcome.Parent)
		} else {
			l.Activate(targetLoc)
			l.LastEventTime = at
			s.roles.Store.Insert(l, targetLoc)
			s.sink.Dispersal(global, origin, targetLoc, prior, at, false, 0)
		}

		s.arrive(lineage.Invalid, origin, at)
		if outcome.Coalesced {
			s.arrive(lineage.Invalid, targetLoc, at)
		} else {
			s.arrive(global, targetLoc, at)
		}
	}

	return true
}

// TotalEventRate sums the per-location turnover rate over every
// currently-active lineage, the denominator the independent algorithm's
// water-level loop uses to size each round's rise (spec §4.8(b)
// "event_slice / total_event_rate").
func (s *Simulation) TotalEventRate() float64 {
	var total float64
	for l := range s.roles.Store.Iter() {
		if l.Active == nil {
			continue
		}
		total += s.roles.Turnover.At(l.Active.Location)
	}
	return total
}

func (s *Simulation) terminate(l *lineage.Lineage, origin lineage.IndexedLocation, at lineage.Time) {
	s.roles.Store.Extract(origin)
	l.Terminate(at)
	s.activeLineages--
	s.arrive(lineage.Invalid, origin, at)
}

// SimulateIncrementalEarlyStop runs StepOnce until either the queue is
// empty and no immigrants remain, or budget events have been processed
// (spec §4.1's simulate_incremental_early_stop; cmd/necsim's run loop
// calls it in budgeted slices, flushing and polling its partition
// between calls, rather than running a partition to full completion in
// one call).
func SimulateIncrementalEarlyStop(s *Simulation, budget uint64) (steps uint64, exhausted bool) {
	for steps = 0; steps < budget; steps++ {
		s.DrainImmigrants()
		if !s.roles.Immigration.Empty() {
			continue
		}
		if s.activeLineages == 0 {
			if _, hasNext := s.roles.Active.PeekTime(); !hasNext {
				return steps, false
			}
		}
		if !s.StepOnce() {
			return steps, false
		}
	}
	return steps, true
}

// waterLevelSink buffers sampled events into a dedup.WaterLevel instead
// of forwarding them to a real Sink immediately, so the independent
// algorithm's driver can re-sort a round's events into total order
// before they are ever observed (spec §4.8(b)).
type waterLevelSink struct {
	wl *dedup.WaterLevel
}

var _ Sink = (*waterLevelSink)(nil)

func (w *waterLevelSink) Speciation(global lineage.GlobalReference, origin lineage.IndexedLocation, prior, at lineage.Time) {
	w.wl.Push(event.NewSpeciation(global, origin, prior, at))
}

func (w *waterLevelSink) Dispersal(global lineage.GlobalReference, origin, target lineage.IndexedLocation, prior, at lineage.Time, coalesced bool, parent lineage.GlobalReference) {
	interaction := event.Interaction{Tag: event.InteractionNone}
	if coalesced {
		interaction = event.Interaction{Tag: event.InteractionCoalescence, Parent: parent}
	}
	w.wl.Push(event.NewDispersal(global, origin, target, interaction, prior, at))
}

// NewIndependentRound builds a Simulation for the independent algorithm
// whose events are buffered through a water-level sorter rather than
// delivered directly, plus the WaterLevel driving that buffering.
// roles.Active must be an *active.Independent.
func NewIndependentRound(roles Roles, eventSlice uint64) (*Simulation, *dedup.WaterLevel) {
	wl := dedup.NewWaterLevel(eventSlice)
	sim := New(roles, &waterLevelSink{wl: wl})
	return sim, wl
}

// SimulateIndependentRound advances sim by one water-level slice (spec
// §4.8(b)): it raises the level by event_slice/total_event_rate, steps
// every lineage whose next event now falls below it, then flushes the
// resulting batch to real in total order. It returns done once no
// lineages remain active, nothing is buffered, and no immigrants are
// pending.
func SimulateIndependentRound(sim *Simulation, wl *dedup.WaterLevel, real Sink) (done bool) {
	sim.DrainImmigrants()

	rate := sim.TotalEventRate()
	wl.Raise(rate)

	for {
		at, ok := sim.roles.Active.PeekTime()
		if !ok || !wl.BelowLevel(at) {
			break
		}
		if !sim.StepOnce() {
			break
		}
	}

	for _, ev := range wl.Flush() {
		deliver(real, ev)
	}

	return sim.activeLineages == 0 && !wl.Pending() && sim.roles.Immigration.Empty()
}

func deliver(sink Sink, ev event.Event) {
	switch ev.Kind {
	case event.KindSpeciation:
		sink.Speciation(ev.GlobalLineage, ev.Origin, ev.PriorTime, ev.EventTime)
	case event.KindDispersal:
		coalesced := ev.Interaction.Tag == event.InteractionCoalescence
		sink.Dispersal(ev.GlobalLineage, ev.Origin, ev.Target, ev.PriorTime, ev.EventTime, coalesced, ev.Interaction.Parent)
	}
}
