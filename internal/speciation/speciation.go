// Package speciation implements the SpeciationProbability role (spec
// §2): a per-location speciation rate in (0, 1].
package speciation

import "github.com/nmxmxh/necsim/internal/lineage"

// Probability is the engine's speciation-rate contract.
type Probability interface {
	At(loc lineage.Location) float64
}

// Uniform applies the same speciation probability everywhere.
type Uniform struct {
	P float64
}

var _ Probability = Uniform{}

func (u Uniform) At(lineage.Location) float64 { return u.P }

// Map applies a spatially varying speciation probability, keyed by
// location, with a fallback for locations absent from the map (e.g. a
// metacommunity sentinel location configured separately).
type Map struct {
	Values  map[lineage.Location]float64
	Default float64
}

var _ Probability = Map{}

func (m Map) At(loc lineage.Location) float64 {
	if v, ok := m.Values[loc]; ok {
		return v
	}
	return m.Default
}
