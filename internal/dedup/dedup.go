// Package dedup implements the independent algorithm's speciation
// sample cache and water-level event sorting (spec §4.8): because each
// lineage in the independent algorithm samples its own speciation roll
// without coordinating with others, two lineages that visit the same
// cell can draw the exact same (location, time, uniform) triple and
// must be recognised as the same underlying speciation event rather
// than two distinct ones.
package dedup

import (
	"sort"

	"github.com/nmxmxh/necsim/internal/event"
	"github.com/nmxmxh/necsim/internal/lineage"
)

// Policy controls how large a Cache is allowed to grow before it starts
// evicting entries, trading determinism-at-scale against memory.
type Policy int

const (
	// PolicyNone disables the cache: every sample is treated as novel.
	// Only correct for scenarios where no two lineages can coincide on
	// a sample (e.g. non-spatial habitats with a single deme).
	PolicyNone Policy = iota
	// PolicyAbsolute bounds the cache at a fixed entry count.
	PolicyAbsolute
	// PolicyRelative bounds the cache at a fraction of the habitat's
	// total capacity.
	PolicyRelative
)

// Cache is a direct-mapped cache of previously-seen SpeciationSamples,
// keyed by a hash of (LocationKey, Time) so that two independent
// lineages sampling the same event collide into the same slot and can
// be compared for exact equality.
type Cache struct {
	policy Policy
	slots  []lineage.SpeciationSample
	valid  []bool
}

// NewCache builds a cache with capacity entries (0 disables it,
// matching PolicyNone).
func NewCache(policy Policy, capacity int) *Cache {
	if policy == PolicyNone || capacity <= 0 {
		return &Cache{policy: PolicyNone}
	}
	return &Cache{
		policy: policy,
		slots:  make([]lineage.SpeciationSample, capacity),
		valid:  make([]bool, capacity),
	}
}

// NewRelativeCache sizes an PolicyRelative cache as a fraction of the
// habitat's total capacity, per spec §4.8.
func NewRelativeCache(fraction float64, totalHabitatCapacity uint64) *Cache {
	n := int(float64(totalHabitatCapacity) * fraction)
	if n < 1 {
		n = 1
	}
	return NewCache(PolicyRelative, n)
}

func (c *Cache) slot(key uint64, t lineage.Time) int {
	h := key*1099511628211 ^ uint64(int64(t*1e9))
	return int(h % uint64(len(c.slots)))
}

// CheckAndInsert reports whether sample has already been seen (a true
// "Duplicate" result means the caller must NOT re-emit the speciation
// event; the simulation loop then discards the lineage without
// reporting anything for it).
// It always inserts/overwrites the slot, so the most recent sample
// occupying a colliding slot wins direct-mapped eviction.
func (c *Cache) CheckAndInsert(sample lineage.SpeciationSample) (duplicate bool) {
	if c.policy == PolicyNone || len(c.slots) == 0 {
		return false
	}
	i := c.slot(sample.LocationKey, sample.Time)
	if c.valid[i] && c.slots[i] == sample {
		return true
	}
	c.slots[i] = sample
	c.valid[i] = true
	return false
}

// SortWaterLevel orders a batch of events the way the independent
// algorithm must before flushing them to a reporter: strictly by the
// engine's total event order (internal/event.Less), so that out-of-order
// arrival across independently-scheduled lineages is corrected before
// anything observes the stream (spec §4.8). events may be large (up to
// on the order of a million per round), so this uses sort.Slice rather
// than an allocation-light but quadratic algorithm.
func SortWaterLevel(events []event.Event) {
	sort.Slice(events, func(i, j int) bool { return event.Less(events[i], events[j]) })
}

// WaterLevel implements spec §4.8(b)'s event-sorting state machine for
// the independent algorithm: each lineage advances on its own clock, so
// events cannot simply be emitted as they're popped — a lineage with a
// slow clock might still produce an event earlier than one already
// delivered from a fast lineage. Events are buffered until a rising
// "water level" passes their event time, at which point they are known
// final and are flushed in total order.
//
// Usage: each round, Raise the level by one slice, Push every event
// sampled from lineages below it, then Flush once all of the round's
// lineages have been stepped.
type WaterLevel struct {
	level      lineage.Time
	eventSlice uint64

	slow []event.Event
	fast []event.Event
}

// NewWaterLevel builds a WaterLevel that rises by
// eventSlice/total_event_rate each round (spec §4.8(b)).
func NewWaterLevel(eventSlice uint64) *WaterLevel {
	if eventSlice == 0 {
		eventSlice = 1
	}
	return &WaterLevel{eventSlice: eventSlice}
}

// Level reports the current water level.
func (w *WaterLevel) Level() lineage.Time { return w.level }

// Raise advances the level by event_slice / total_event_rate (spec
// §4.8(b)); totalEventRate is the sum of per-lineage event rates over
// all lineages still active this round. Any fast event whose time has
// now fallen below the new level is promoted into slow, since it is
// now known to be final relative to every lineage yet to be stepped.
func (w *WaterLevel) Raise(totalEventRate float64) {
	if totalEventRate > 0 {
		w.level += lineage.Time(float64(w.eventSlice) / totalEventRate)
	}
	remaining := w.fast[:0]
	for _, ev := range w.fast {
		if ev.EventTime < w.level {
			w.slow = append(w.slow, ev)
		} else {
			remaining = append(remaining, ev)
		}
	}
	w.fast = remaining
}

// Push buffers a newly-sampled event, routing it to slow or fast
// depending on whether its time already falls below the current level.
func (w *WaterLevel) Push(ev event.Event) {
	if ev.EventTime < w.level {
		w.slow = append(w.slow, ev)
	} else {
		w.fast = append(w.fast, ev)
	}
}

// BelowLevel reports whether t falls below the current water level,
// i.e. whether a lineage whose next event is at t may still be stepped
// this round (spec §4.8(b) "lineages with last_event_time < water_level
// stay in slow_lineages").
func (w *WaterLevel) BelowLevel(t lineage.Time) bool {
	return t < w.level
}

// Flush sorts and drains the slow buffer in total order, ready for
// delivery to a reporter; it is the caller's responsibility to call it
// only once every lineage below the current level has been exhausted
// (spec §4.8(b) "after all slow lineages exhausted").
func (w *WaterLevel) Flush() []event.Event {
	out := w.slow
	SortWaterLevel(out)
	w.slow = nil
	return out
}

// Pending reports whether either buffer still holds events, the
// water-level loop's termination condition (spec §4.8(b) "termination
// on both empty").
func (w *WaterLevel) Pending() bool {
	return len(w.slow) > 0 || len(w.fast) > 0
}
