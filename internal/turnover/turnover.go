// Package turnover implements the TurnoverRate role (spec §2): the
// per-location event rate.
package turnover

import "github.com/nmxmxh/necsim/internal/lineage"

// Rate is the engine's per-location event-rate contract.
type Rate interface {
	At(loc lineage.Location) float64
}

// Uniform applies the same turnover rate everywhere.
type Uniform struct {
	Rate float64
}

var _ Rate = Uniform{}

func (u Uniform) At(lineage.Location) float64 { return u.Rate }

// Map applies a spatially varying turnover rate.
type Map struct {
	Values  map[lineage.Location]float64
	Default float64
}

var _ Rate = Map{}

func (m Map) At(loc lineage.Location) float64 {
	if v, ok := m.Values[loc]; ok {
		return v
	}
	return m.Default
}
