package habitat

import (
	"iter"
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/nmxmxh/necsim/internal/lineage"
)

// AlmostInfinite is the 2^32 x 2^32 torus habitat variant: capacity is
// 1 at every location (singleton demes), optionally restricted to a
// coverage mask evaluated from wrapping Simplex noise (spec §4.2).
//
// The noise overlay is grounded on github.com/ojrac/opensimplex-go (a
// direct dependency of the "mini-world" habitat/terrain project in the
// retrieved example pack). Seamless wrapping at period P is achieved
// with the standard technique of lifting each 2D coordinate onto a
// circle of circumference P in two extra dimensions and sampling 4D
// noise, so that Eval4(x=0) and Eval4(x=P) coincide exactly.
type AlmostInfinite struct {
	noise    opensimplex.Noise
	octaves  int
	period   float64
	coverage float64 // target fraction of locations considered habitable; 0 means no overlay (full torus habitable)
	threshold float64 // noise value at or above which a cell is habitable, solved for the target coverage
}

var _ Habitat = (*AlmostInfinite)(nil)

const almostInfiniteSide = 1 << 32 // 2^32, held as float64/uint64 as needed

// NewAlmostInfinite builds a torus habitat with capacity 1 everywhere
// (no noise overlay; every location is habitable).
func NewAlmostInfinite(seed int64) *AlmostInfinite {
	return &AlmostInfinite{noise: opensimplex.New(seed)}
}

// NewAlmostInfiniteWithCoverage builds a torus habitat whose habitable
// locations are thresholded wrapping Simplex noise, covering
// approximately targetCoverage (in [0,1]) of all locations, sampled
// with the given number of octaves and spatial period.
func NewAlmostInfiniteWithCoverage(seed int64, octaves int, period float64, targetCoverage float64) *AlmostInfinite {
	h := &AlmostInfinite{
		noise:    opensimplex.New(seed),
		octaves:  octaves,
		period:   period,
		coverage: targetCoverage,
	}
	h.threshold = h.solveQuantileThreshold(targetCoverage)
	return h
}

func (h *AlmostInfinite) Extent() Extent {
	return Extent{Width: math.MaxUint32, Height: math.MaxUint32}
}

func (h *AlmostInfinite) wrappingNoise(x, y uint32) float64 {
	period := h.period
	if period <= 0 {
		period = almostInfiniteSide
	}
	angX := 2 * math.Pi * float64(x) / period
	angY := 2 * math.Pi * float64(y) / period
	r := period / (2 * math.Pi)
	nx1, ny1 := r*math.Cos(angX), r*math.Sin(angX)
	nx2, ny2 := r*math.Cos(angY), r*math.Sin(angY)

	var sum, amp, freq, ampSum float64
	amp, freq = 1, 1
	for o := 0; o < max(1, h.octaves); o++ {
		sum += amp * h.noise.Eval4(nx1*freq, ny1*freq, nx2*freq, ny2*freq)
		ampSum += amp
		amp *= 0.5
		freq *= 2
	}
	if ampSum == 0 {
		return 0
	}
	return sum / ampSum
}

// solveQuantileThreshold estimates, by Monte-Carlo sampling of the
// octave-summed noise field, the threshold t such that
// P(noise(x,y) >= t) ~= targetCoverage. Deterministic: the sample grid
// is fixed, not RNG-drawn, so the same (seed, octaves, period,
// targetCoverage) always yields the same threshold.
func (h *AlmostInfinite) solveQuantileThreshold(targetCoverage float64) float64 {
	if targetCoverage <= 0 {
		return math.Inf(1)
	}
	if targetCoverage >= 1 {
		return math.Inf(-1)
	}
	const grid = 256
	samples := make([]float64, 0, grid*grid)
	period := h.period
	if period <= 0 {
		period = almostInfiniteSide
	}
	step := uint32(period / grid)
	if step == 0 {
		step = 1
	}
	for y := uint32(0); y < grid; y++ {
		for x := uint32(0); x < grid; x++ {
			samples = append(samples, h.wrappingNoise(x*step, y*step))
		}
	}
	sortFloat64s(samples)
	idx := int(float64(len(samples)) * (1 - targetCoverage))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(samples) {
		idx = len(samples) - 1
	}
	return samples[idx]
}

func sortFloat64s(s []float64) {
	// insertion sort is fine: called once per habitat construction over
	// a fixed 256x256 calibration grid, not on a hot path.
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func (h *AlmostInfinite) CapacityAt(loc lineage.Location) uint32 {
	if h.coverage <= 0 {
		return 1
	}
	if h.wrappingNoise(loc.X, loc.Y) >= h.threshold {
		return 1
	}
	return 0
}

func (h *AlmostInfinite) TotalCapacity() Capacity {
	if h.coverage <= 0 {
		// Every one of 2^32 * 2^32 locations has capacity 1: the true
		// total is 2^64, which overflows uint64 by exactly one.
		return Capacity{Value: 0, Overflowed: true}
	}
	total := h.coverage * almostInfiniteSide * almostInfiniteSide
	return CapacityOf(uint64(total))
}

func (h *AlmostInfinite) Contains(loc lineage.Location) bool {
	return h.CapacityAt(loc) > 0
}

func (h *AlmostInfinite) LocationKey(il lineage.IndexedLocation) uint64 {
	// Deme index is always 0 (capacity 1); the (x,y) pair alone is
	// already injective over the torus.
	return uint64(il.Location.X)<<32 | uint64(il.Location.Y)
}

// Habitable is unsupported for AlmostInfinite: with up to 2^64 cells,
// an eager iterator is not meaningful. Callers that need habitable
// locations on this variant (e.g. the origin sampler) use a bounded
// sampling region instead (see internal/simulation's origin sampler).
func (h *AlmostInfinite) Habitable() iter.Seq[lineage.Location] {
	return func(yield func(lineage.Location) bool) {}
}
