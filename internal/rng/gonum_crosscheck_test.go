package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/stat"
)

// TestNormal2DMatchesGonumMomentEstimate cross-checks Normal2D's
// empirical mean and standard deviation against gonum/stat's estimators
// over a large sample, catching a Box-Muller regression (wrong sign, a
// dropped factor of 2, sigma applied to the wrong branch) that a single
// fixed-seed golden value would not.
func TestNormal2DMatchesGonumMomentEstimate(t *testing.T) {
	const (
		n     = 20000
		mu    = 3.0
		sigma = 2.0
	)
	src := PCGSeedFromU64(12345)
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n/2; i++ {
		x, y := Normal2D(src, mu, sigma)
		xs = append(xs, x)
		ys = append(ys, y)
	}
	samples := append(xs, ys...)

	gotMean := stat.Mean(samples, nil)
	gotStdDev := stat.StdDev(samples, nil)

	assert.InDelta(t, mu, gotMean, 0.1)
	assert.InDelta(t, sigma, gotStdDev, 0.1)
}
