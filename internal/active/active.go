// Package active implements the ActiveLineageSampler role (spec §2,
// §4.4): picking which lineage moves next and at what time.
package active

import (
	"container/heap"
	"math"

	"github.com/nmxmxh/necsim/internal/lineage"
	"github.com/nmxmxh/necsim/internal/rng"
	"github.com/nmxmxh/necsim/internal/turnover"
)

// Sampler is the engine's active-lineage-sampler contract: a priority
// queue over "next event" keyed by lineage.Time, with enough surface
// for the simulation loop to drive it without knowing which scheduling
// strategy is underneath.
type Sampler interface {
	// Len reports how many lineages are currently scheduled.
	Len() int
	// PeekTime returns, without popping, the time of the next scheduled
	// event for Classical and Independent; GillespieAlias draws its next
	// event time only inside PopNext and reports its last event time.
	PeekTime() (lineage.Time, bool)
	// PopNext removes and returns the globally-next lineage to act and
	// the location it acts from.
	PopNext(src rng.Source) (global lineage.GlobalReference, origin lineage.IndexedLocation, at lineage.Time, ok bool)
}

// Classical schedules by location: every occupied cell owns a single
// exponential clock (rate = turnover rate × occupancy), kept in a
// binary heap on next-event time. On pop, the simulation loop chooses
// one of the cell's occupants uniformly (spec §4.4 "Classical").
type Classical struct {
	rate      turnover.Rate
	items     map[lineage.Location]*classicalItem
	h         classicalHeap
	occupants func(lineage.Location) []lineage.GlobalReference
}

var _ Sampler = (*Classical)(nil)

type classicalItem struct {
	loc   lineage.Location
	at    lineage.Time
	index int
}

func NewClassical(rate turnover.Rate, occupants func(lineage.Location) []lineage.GlobalReference) *Classical {
	return &Classical{
		rate:      rate,
		items:     make(map[lineage.Location]*classicalItem),
		occupants: occupants,
	}
}

func (c *Classical) Len() int { return len(c.h) }

func (c *Classical) PeekTime() (lineage.Time, bool) {
	if len(c.h) == 0 {
		return 0, false
	}
	return c.h[0].at, true
}

// Arrive (re)schedules loc's next event given its current occupancy and
// the time of the event that just happened there (floor), to be called
// by the simulation loop whenever a location's occupancy changes from
// zero to non-zero or its count changes.
func (c *Classical) Arrive(src rng.Source, loc lineage.Location, floor lineage.Time, occupancy uint32) {
	if occupancy == 0 {
		c.Depart(loc)
		return
	}
	rate := c.rate.At(loc) * float64(occupancy)
	if rate <= 0 {
		c.Depart(loc)
		return
	}
	at := lineage.NextAfter(floor, floor+lineage.Time(rng.Exponential(src, rate)))
	if it, ok := c.items[loc]; ok {
		it.at = at
		heap.Fix(&c.h, it.index)
		return
	}
	it := &classicalItem{loc: loc, at: at}
	c.items[loc] = it
	heap.Push(&c.h, it)
}

// Depart removes loc from the schedule (its occupancy reached zero).
func (c *Classical) Depart(loc lineage.Location) {
	it, ok := c.items[loc]
	if !ok {
		return
	}
	heap.Remove(&c.h, it.index)
	delete(c.items, loc)
}

func (c *Classical) PopNext(src rng.Source) (lineage.GlobalReference, lineage.IndexedLocation, lineage.Time, bool) {
	if len(c.h) == 0 {
		return 0, lineage.IndexedLocation{}, 0, false
	}
	it := heap.Pop(&c.h).(*classicalItem)
	delete(c.items, it.loc)

	occs := c.occupants(it.loc)
	if len(occs) == 0 {
		return 0, lineage.IndexedLocation{}, it.at, false
	}
	idx := uint32(rng.Index(src, uint64(len(occs))))
	return occs[idx], lineage.IndexedLocation{Location: it.loc, Index: idx}, it.at, true
}

type classicalHeap []*classicalItem

func (h classicalHeap) Len() int            { return len(h) }
func (h classicalHeap) Less(i, j int) bool  { return h[i].at < h[j].at }
func (h classicalHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *classicalHeap) Push(x any) {
	it := x.(*classicalItem)
	it.index = len(*h)
	*h = append(*h, it)
}
func (h *classicalHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

// Independent schedules by lineage rather than by location: the
// independent algorithm gives each lineage its own Poisson event
// stream, re-derived deterministically from the lineage's own
// location key and an integer time-step counter rather than consumed
// from a shared RNG stream (spec §4.4 "Independent"). This sampler
// owns no coupling to the lineage store; ArriveAt derives and
// schedules a lineage's next event, and Schedule/Unschedule remain
// available as the underlying heap primitive for callers (and tests)
// that already have a concrete event time in hand.
type Independent struct {
	rate   turnover.Rate
	deltaT float64

	items map[lineage.GlobalReference]*independentItem
	h     independentHeap
}

var _ Sampler = (*Independent)(nil)

type independentItem struct {
	global lineage.GlobalReference
	origin lineage.IndexedLocation
	at     lineage.Time
	index  int
}

// NewIndependent builds an Independent sampler whose per-lineage event
// rate at a location is rate.At(loc), stepping in deltaT increments
// (spec §4.4 "where Δt and λ are algorithm parameters"); deltaT <= 0
// is treated as 1.
func NewIndependent(rate turnover.Rate, deltaT float64) *Independent {
	if deltaT <= 0 {
		deltaT = 1
	}
	return &Independent{rate: rate, deltaT: deltaT, items: make(map[lineage.GlobalReference]*independentItem)}
}

// ArriveAt derives global's next event step deterministically from its
// own location key rather than consuming the shared RNG stream, then
// schedules it (spec §4.4 "Independent", §4.6 Primeable: any worker
// recomputing (locationKey, step) reproduces the same answer,
// independent of arrival order — testable property 6):
//
//	rng.prime(location_key(L), k)
//	if rng.uniform() < 1 - exp(-λ·Δt): event at t_k = k·Δt
//	else: k += 1, repeat
//
// floor is the lineage's own last event time; the step search starts
// from floor/Δt so re-deriving from the same floor always reproduces
// the same step, and the result is advanced strictly past floor.
func (s *Independent) ArriveAt(primeable rng.Primeable, global lineage.GlobalReference, origin lineage.IndexedLocation, locationKey uint64, floor lineage.Time) {
	rate := s.rate.At(origin.Location)
	if rate <= 0 {
		s.Unschedule(global)
		return
	}
	pEvent := 1 - math.Exp(-rate*s.deltaT)

	var k uint64
	if floor > 0 {
		k = uint64(math.Ceil(float64(floor) / s.deltaT))
	}
	for {
		primeable.PrimeWith(locationKey, k)
		if rng.Bernoulli(primeable, pEvent) {
			break
		}
		k++
	}
	tk := lineage.Time(float64(k) * s.deltaT)
	s.Schedule(global, origin, lineage.NextAfter(floor, tk))
}

func (s *Independent) Len() int { return len(s.h) }

func (s *Independent) PeekTime() (lineage.Time, bool) {
	if len(s.h) == 0 {
		return 0, false
	}
	return s.h[0].at, true
}

// Schedule arms or re-arms global's next event at the given origin and
// time. Calling it twice for the same global reschedules in place.
func (s *Independent) Schedule(global lineage.GlobalReference, origin lineage.IndexedLocation, at lineage.Time) {
	if it, ok := s.items[global]; ok {
		it.origin, it.at = origin, at
		heap.Fix(&s.h, it.index)
		return
	}
	it := &independentItem{global: global, origin: origin, at: at}
	s.items[global] = it
	heap.Push(&s.h, it)
}

// Unschedule removes global from the queue (it coalesced or
// speciated).
func (s *Independent) Unschedule(global lineage.GlobalReference) {
	it, ok := s.items[global]
	if !ok {
		return
	}
	heap.Remove(&s.h, it.index)
	delete(s.items, global)
}

func (s *Independent) PopNext(rng.Source) (lineage.GlobalReference, lineage.IndexedLocation, lineage.Time, bool) {
	if len(s.h) == 0 {
		return 0, lineage.IndexedLocation{}, 0, false
	}
	it := heap.Pop(&s.h).(*independentItem)
	delete(s.items, it.global)
	return it.global, it.origin, it.at, true
}

type independentHeap []*independentItem

func (h independentHeap) Len() int           { return len(h) }
func (h independentHeap) Less(i, j int) bool { return h[i].at < h[j].at }
func (h independentHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *independentHeap) Push(x any) {
	it := x.(*independentItem)
	it.index = len(*h)
	*h = append(*h, it)
}
func (h *independentHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}
