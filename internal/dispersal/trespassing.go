package dispersal

import (
	"github.com/nmxmxh/necsim/internal/lineage"
	"github.com/nmxmxh/necsim/internal/rng"
)

// HabitatContains is the minimal habitat capability the trespassing
// samplers need, kept narrow so this package does not import
// internal/habitat (avoiding an import cycle with habitat's own use of
// dispersal in future scenario wiring).
type HabitatContains func(lineage.Location) bool

// AntiTrespassing disperses from out-of-habitat locations to in-habitat
// locations: used only for restart fix-up (spec §4.2, §4.8), when a
// resumed lineage's recorded location has fallen outside the (possibly
// edited) habitat.
type AntiTrespassing struct {
	contains HabitatContains
	habitable []lineage.Location // candidate in-habitat targets, sampled uniformly
}

// NewAntiTrespassing builds an anti-trespassing sampler over the given
// (small, enumerable) set of in-habitat candidate locations.
func NewAntiTrespassing(contains HabitatContains, habitable []lineage.Location) *AntiTrespassing {
	return &AntiTrespassing{contains: contains, habitable: habitable}
}

func (a *AntiTrespassing) SampleTarget(src rng.Source, from lineage.Location) lineage.Location {
	if len(a.habitable) == 0 {
		return from
	}
	idx := rng.Index(src, uint64(len(a.habitable)))
	return a.habitable[idx]
}

// Trespassing wraps a legal dispersal sampler plus an AntiTrespassing
// sampler: if the source is in the habitat, legal dispersal semantics
// apply (spec testable property 7); otherwise the anti-trespassing
// sampler repairs the source into the habitat.
type Trespassing struct {
	contains HabitatContains
	legal    Sampler
	repair   *AntiTrespassing
}

var _ Sampler = (*Trespassing)(nil)

func NewTrespassing(contains HabitatContains, legal Sampler, repair *AntiTrespassing) *Trespassing {
	return &Trespassing{contains: contains, legal: legal, repair: repair}
}

func (t *Trespassing) SampleTarget(src rng.Source, from lineage.Location) lineage.Location {
	if t.contains(from) {
		return t.legal.SampleTarget(src, from)
	}
	return t.repair.SampleTarget(src, from)
}
