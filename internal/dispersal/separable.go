package dispersal

import (
	"fmt"

	"github.com/nmxmxh/necsim/internal/lineage"
	"github.com/nmxmxh/necsim/internal/rng"
)

// SeparableAlias maintains, per source, the exact self-dispersal
// probability and a distinct non-self dispersal alias table excluding
// the self atom entirely (spec §4.2). Two entry points exist:
// SampleTarget (unrestricted) and SampleNonSelfTarget, which draws only
// from the non-self table; a self-hit from that table is returned
// unchanged, not replaced.
type SeparableAlias struct {
	nonSelf *InMemoryAlias
	pSelf   []float64 // len == width*height, indexed by flat source
	flatOf  func(loc lineage.Location) (uint32, bool)
}

var _ SeparableSampler = (*SeparableAlias)(nil)

// NewSeparableAlias builds the table the same way as NewInMemoryAlias,
// except the diagonal (self-dispersal) weight is recorded separately
// and excluded from the non-self alias table's weights before
// construction.
func NewSeparableAlias(width, height uint32, matrix [][]float64, capacityAt func(lineage.Location) uint32) (*SeparableAlias, error) {
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

	s := &SeparableAlias{flatOf: flatOf, pSelf: make([]float64, n)}
	nonSelf := &InMemoryAlias{width: width, height: height, locOf: locOf, flatOf: flatOf}
	nonSelf.ranges = make([]aliasRange, n)

	for i, row := range matrix {
		if len(row) != n {
			return nil, fmt.Errorf("dispersal: matrix row %d has %d columns, want %d", i, len(row), n)
		}
		weighted := make([]float64, n)
		var total, selfWeight float64
		for j, w := range row {
			wc := w * float64(capacityAt(locOf(uint32(j))))
			weighted[j] = wc
			total += wc
			if j == i {
				selfWeight = wc
			}
		}
		if total > 0 {
			s.pSelf[i] = selfWeight / total
		}
		weighted[i] = 0 // exclude self from the non-self table entirely
		atoms := buildVoseAlias(weighted)
		start := uint32(len(nonSelf.atoms))
		nonSelf.atoms = append(nonSelf.atoms, atoms...)
		nonSelf.ranges[i] = aliasRange{Start: start, Len: uint32(len(atoms))}
	}
	s.nonSelf = nonSelf
	return s, nil
}

// SampleTarget draws from the unrestricted distribution: self with
// probability pSelf[from], otherwise from the non-self alias table.
func (s *SeparableAlias) SampleTarget(src rng.Source, from lineage.Location) lineage.Location {
	flat, ok := s.flatOf(from)
	if !ok {
		return from
	}
	if rng.Bernoulli(src, s.pSelf[flat]) {
		return from
	}
	return s.nonSelf.SampleTarget(src, from)
}

// SampleNonSelfTarget truncates the CDF to exclude the self-dispersal
// atom outright — used when the caller has already decided dispersal
// must leave the source cell (e.g. after a separate self-dispersal
// coalescence check upstream). The non-self table is built with the
// self weight zeroed; if a draw still yields "from" (the row has no
// non-self weight, or rounding in the alias construction left the self
// atom as a full bucket), "from" is returned as is: no replacement
// non-self target is recorded or substituted.
func (s *SeparableAlias) SampleNonSelfTarget(src rng.Source, from lineage.Location) lineage.Location {
	target := s.nonSelf.SampleTarget(src, from)
	if target == from {
		// All non-self weights were zero: no legal non-self target
		// exists. This is a configuration error upstream; returning
		// `from` here is the least-surprising degenerate behaviour.
		return from
	}
	return target
}
