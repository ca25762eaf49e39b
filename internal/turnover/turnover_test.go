package turnover

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nmxmxh/necsim/internal/lineage"
)

func TestUniformIsConstantEverywhere(t *testing.T) {
	r := Uniform{Rate: 2.5}
	assert.Equal(t, 2.5, r.At(lineage.Location{X: 1, Y: 1}))
	assert.Equal(t, 2.5, r.At(lineage.Location{X: 99, Y: 99}))
}

func TestMapFallsBackToDefaultForMissingLocation(t *testing.T) {
	m := Map{
		Values:  map[lineage.Location]float64{{X: 1, Y: 1}: 10},
		Default: 1,
	}
	assert.Equal(t, 10.0, m.At(lineage.Location{X: 1, Y: 1}))
	assert.Equal(t, 1.0, m.At(lineage.Location{X: 5, Y: 5}))
}
