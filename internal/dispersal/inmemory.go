package dispersal

import (
	"fmt"

	"github.com/nmxmxh/necsim/internal/lineage"
	"github.com/nmxmxh/necsim/internal/rng"
)

// InMemoryAlias precomputes, for each source location, a Vose alias
// table over all target locations weighted by target capacity (spec
// §4.2). A single flat buffer backs every source's atoms; ranges index
// into it per source.
type InMemoryAlias struct {
	width, height uint32
	locOf         func(flat uint32) lineage.Location
	flatOf        func(loc lineage.Location) (uint32, bool)

	atoms  []aliasAtom
	ranges []aliasRange // len == width*height
}

var _ Sampler = (*InMemoryAlias)(nil)

// NewInMemoryAlias builds the alias table from an N x N dispersal
// probability matrix (N == width*height, row-major: matrix[i] is the
// unnormalised dispersal weights out of flat source cell i) and a
// capacity lookup used to weight each column by the target's deme
// count, per §4.2 ("multiplying each target probability by the
// target's capacity"). Returns a ConfigurationError-flavoured error if
// the matrix dimensions don't match width*height (spec §7).
func NewInMemoryAlias(width, height uint32, matrix [][]float64, capacityAt func(lineage.Location) uint32) (*InMemoryAlias, error) {
	n := int(width) * int(height)
	if len(matrix) != n {
		return nil, fmt.Errorf("dispersal: matrix has %d rows, want %d (= %d x %d)", len(matrix), n, width, height)
	}

	locOf := func(flat uint32) lineage.Location {
		return lineage.Location{X: flat % width, Y: flat / width}
	}
	flatOf := func(loc lineage.Location) (uint32, bool) {
		if loc.X >= width || loc.Y >= height {
			return 0, false
		}
		return loc.Y*width + loc.X, true
	}

	a := &InMemoryAlias{width: width, height: height, locOf: locOf, flatOf: flatOf}
	a.ranges = make([]aliasRange, n)

	for i, row := range matrix {
		if len(row) != n {
			return nil, fmt.Errorf("dispersal: matrix row %d has %d columns, want %d", i, len(row), n)
		}
		weighted := make([]float64, n)
		for j, w := range row {
			weighted[j] = w * float64(capacityAt(locOf(uint32(j))))
		}
		atoms := buildVoseAlias(weighted)
		start := uint32(len(a.atoms))
		a.atoms = append(a.atoms, atoms...)
		a.ranges[i] = aliasRange{Start: start, Len: uint32(len(atoms))}
	}
	return a, nil
}

func (a *InMemoryAlias) SampleTarget(src rng.Source, from lineage.Location) lineage.Location {
	flat, ok := a.flatOf(from)
	if !ok {
		return from
	}
	r := a.ranges[flat]
	if r.Len == 0 {
		// An empty dispersal range at a habitable source is a
		// configuration error the builder should have rejected; at
		// runtime the least surprising fallback is to stay in place.
		return from
	}
	idx := uint32(rng.Index(src, uint64(r.Len)))
	unit := rng.UniformClosedOpenUnit(src)
	picked := sampleAlias(a.atoms[r.Start:r.Start+r.Len], idx, unit)
	return a.locOf(picked)
}

// RangeLen returns the number of alias atoms recorded for source flat
// index flat; it is 0 exactly when that source's weighted row is
// all-zero.
func (a *InMemoryAlias) RangeLen(flat uint32) uint32 { return a.ranges[flat].Len }
