package rng

import "math"

// UniformClosedOpenUnit draws a sample in [0, 1) from a 64-bit word,
// using the top 53 bits so the result is uniform over the doubles
// representable in that range.
func UniformClosedOpenUnit(src Source) float64 {
	return float64(src.SampleU64()>>11) * (1.0 / (1 << 53))
}

// Exponential draws a sample from Exp(lambda) via inverse-CDF sampling.
// lambda must be > 0.
func Exponential(src Source, lambda float64) float64 {
	u := UniformClosedOpenUnit(src)
	// u is in [0,1); guard against log(0) by resampling the degenerate
	// boundary back into the open interval.
	for u == 0 {
		u = UniformClosedOpenUnit(src)
	}
	return -math.Log(u) / lambda
}

// Bernoulli returns true with probability p.
func Bernoulli(src Source, p float64) bool {
	return UniformClosedOpenUnit(src) < p
}

// Index draws an unbiased integer in [0, n) via rejection sampling
// against the largest multiple of n that fits in 64 bits, avoiding the
// modulo bias a plain `SampleU64() % n` would introduce.
func Index(src Source, n uint64) uint64 {
	if n == 0 {
		panic("rng: Index of empty range")
	}
	limit := (math.MaxUint64 - (math.MaxUint64 % n))
	for {
		v := src.SampleU64()
		if v < limit {
			return v % n
		}
	}
}

// Normal2D draws a pair of independent standard-normal-derived samples
// with mean mu and standard deviation sigma via the Box-Muller
// transform, consuming exactly two uniform draws.
func Normal2D(src Source, mu, sigma float64) (x, y float64) {
	u1 := UniformClosedOpenUnit(src)
	for u1 == 0 {
		u1 = UniformClosedOpenUnit(src)
	}
	u2 := UniformClosedOpenUnit(src)
	r := math.Sqrt(-2 * math.Log(u1))
	theta := 2 * math.Pi * u2
	x = mu + sigma*r*math.Cos(theta)
	y = mu + sigma*r*math.Sin(theta)
	return x, y
}

// Poisson draws a sample from Poisson(lambda) via Knuth's product-of-
// uniforms algorithm, adequate for the lambda ranges used by the
// independent active-lineage sampler's per-step event rate (§4.4).
func Poisson(src Source, lambda float64) uint64 {
	if lambda <= 0 {
		return 0
	}
	l := math.Exp(-lambda)
	var k uint64
	p := 1.0
	for {
		k++
		p *= UniformClosedOpenUnit(src)
		if p <= l {
			return k - 1
		}
	}
}

// DistributionSampler is the engine's distribution-sampler layer
// (spec §4.6): distributions are value types carrying their parameters;
// a DistributionSampler takes an RNG and returns the sample.
type DistributionSampler[P any, V any] interface {
	Sample(src Source, params P) V
}

// ExponentialParams carries the rate parameter for the Exponential
// distribution sampler.
type ExponentialParams struct{ Lambda float64 }

type exponentialSampler struct{}

func (exponentialSampler) Sample(src Source, p ExponentialParams) float64 {
	return Exponential(src, p.Lambda)
}

// ExponentialSampler is the DistributionSampler value for Exp(lambda).
var ExponentialSampler DistributionSampler[ExponentialParams, float64] = exponentialSampler{}

// IndexParams carries the exclusive upper bound for the Index sampler.
type IndexParams struct{ N uint64 }

type indexSampler struct{}

func (indexSampler) Sample(src Source, p IndexParams) uint64 {
	return Index(src, p.N)
}

// IndexSampler is the DistributionSampler value for the unbiased
// rejection-sampled index-in-range distribution.
var IndexSampler DistributionSampler[IndexParams, uint64] = indexSampler{}
