package active

import (
	"github.com/nmxmxh/necsim/internal/lineage"
	"github.com/nmxmxh/necsim/internal/rng"
)

// GillespieAlias schedules a single global exponential clock whose rate
// is the sum of every occupied cell's turnover rate × occupancy, then
// picks the firing location weighted by its share of that sum (spec
// §4.4 "Location-alias Gillespie"). Per-location weights are kept in a
// Fenwick (binary-indexed) tree so updating one location's weight and
// drawing a weighted sample are both O(log n), which matters because
// occupancy — and therefore weight — changes after every event.
type GillespieAlias struct {
	fenwick   []float64 // 1-indexed
	locOf     []lineage.Location
	indexOf   map[lineage.Location]int
	occupants func(lineage.Location) []lineage.GlobalReference
	lastTime  lineage.Time
}

var _ Sampler = (*GillespieAlias)(nil)

// NewGillespieAlias pre-allocates the Fenwick tree for up to n distinct
// locations; locations are assigned tree slots on first SetWeight call.
func NewGillespieAlias(n int, occupants func(lineage.Location) []lineage.GlobalReference) *GillespieAlias {
	return &GillespieAlias{
		fenwick:   make([]float64, n+1),
		locOf:     make([]lineage.Location, 0, n),
		indexOf:   make(map[lineage.Location]int, n),
		occupants: occupants,
	}
}

func (g *GillespieAlias) slotFor(loc lineage.Location) int {
	if i, ok := g.indexOf[loc]; ok {
		return i
	}
	i := len(g.locOf) + 1
	g.locOf = append(g.locOf, loc)
	g.indexOf[loc] = i
	if i >= len(g.fenwick) {
		grown := make([]float64, i+1)
		copy(grown, g.fenwick)
		g.fenwick = grown
	}
	return i
}

// SetWeight sets loc's rate contribution (turnover × occupancy) to w,
// growing the tree lazily on first use of a location.
func (g *GillespieAlias) SetWeight(loc lineage.Location, w float64) {
	i := g.slotFor(loc)
	delta := w - g.weightAt(i)
	if delta == 0 {
		return
	}
	for ; i < len(g.fenwick); i += i & (-i) {
		g.fenwick[i] += delta
	}
}

func (g *GillespieAlias) weightAt(i int) float64 {
	return g.prefixSum(i) - g.prefixSum(i-1)
}

func (g *GillespieAlias) prefixSum(i int) float64 {
	var s float64
	for ; i > 0; i -= i & (-i) {
		s += g.fenwick[i]
	}
	return s
}

func (g *GillespieAlias) total() float64 { return g.prefixSum(len(g.fenwick) - 1) }

// findByCumulative returns the smallest index whose prefix sum exceeds
// target, the standard Fenwick "find by order" walk.
func (g *GillespieAlias) findByCumulative(target float64) int {
	pos := 0
	logN := 1
	for logN<<1 < len(g.fenwick) {
		logN <<= 1
	}
	for step := logN; step > 0; step >>= 1 {
		next := pos + step
		if next < len(g.fenwick) && g.fenwick[next] <= target {
			pos = next
			target -= g.fenwick[next]
		}
	}
	return pos + 1
}

func (g *GillespieAlias) Len() int {
	n := 0
	for _, loc := range g.locOf {
		if g.weightAt(g.indexOf[loc]) > 0 {
			n++
		}
	}
	return n
}

// PeekTime reports the time of the most recently popped event (0 before
// the first pop) while any location has positive weight. The next event
// time is drawn only inside PopNext, so the value returned here is not
// the time the next PopNext will return.
func (g *GillespieAlias) PeekTime() (lineage.Time, bool) {
	if g.total() <= 0 {
		return 0, false
	}
	return g.lastTime, true
}

func (g *GillespieAlias) PopNext(src rng.Source) (lineage.GlobalReference, lineage.IndexedLocation, lineage.Time, bool) {
	total := g.total()
	if total <= 0 {
		return 0, lineage.IndexedLocation{}, 0, false
	}
	at := lineage.NextAfter(g.lastTime, g.lastTime+lineage.Time(rng.Exponential(src, total)))
	g.lastTime = at

	u := rng.UniformClosedOpenUnit(src) * total
	slot := g.findByCumulative(u)
	if slot < 1 || slot > len(g.locOf) {
		return 0, lineage.IndexedLocation{}, at, false
	}
	loc := g.locOf[slot-1]

	occs := g.occupants(loc)
	if len(occs) == 0 {
		return 0, lineage.IndexedLocation{}, at, false
	}
	idx := uint32(rng.Index(src, uint64(len(occs))))
	return occs[idx], lineage.IndexedLocation{Location: loc, Index: idx}, at, true
}
