// Package dispersal implements the DispersalSampler role (spec §2,
// §4.2): sampling a target location given a source location.
package dispersal

import (
	"github.com/nmxmxh/necsim/internal/lineage"
	"github.com/nmxmxh/necsim/internal/rng"
)

// Sampler is the engine's dispersal contract.
type Sampler interface {
	SampleTarget(src rng.Source, from lineage.Location) lineage.Location
}

// SeparableSampler additionally exposes a non-self dispersal draw,
// used by samplers that track self-dispersal probability separately
// (spec §4.2 "Separable self-dispersal").
type SeparableSampler interface {
	Sampler
	SampleNonSelfTarget(src rng.Source, from lineage.Location) lineage.Location
}
