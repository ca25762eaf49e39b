package dispersal

import (
	"math"

	"github.com/nmxmxh/necsim/internal/lineage"
	"github.com/nmxmxh/necsim/internal/rng"
)

// Normal disperses on the AlmostInfinite torus via a 2D Gaussian kernel
// of standard deviation Sigma centred on the source location (spec
// §2 DispersalSampler row, "normal (Gaussian) for almost-infinite").
type Normal struct {
	Sigma float64
}

var _ Sampler = Normal{}

func (n Normal) SampleTarget(src rng.Source, from lineage.Location) lineage.Location {
	dx, dy := rng.Normal2D(src, 0, n.Sigma)
	return lineage.Location{
		X: uint32(int64(from.X) + int64(math.Round(dx))),
		Y: uint32(int64(from.Y) + int64(math.Round(dy))),
	}
}

// NonSpatialUniform disperses uniformly among all demes at the single
// non-spatial location, distinguished only by deme index — dispersal
// never changes Location, only the receiving deme index chosen later by
// the coalescence/store layer (spec §2, "non-spatial uniform").
type NonSpatialUniform struct{}

var _ Sampler = NonSpatialUniform{}

func (NonSpatialUniform) SampleTarget(_ rng.Source, from lineage.Location) lineage.Location {
	return from
}
