// Package rng implements the engine's deterministic pseudo-random
// stream contract (spec §4.6): from_seed/seed_from_u64 construction,
// sample_u64, the Primeable and Splittable traits, and the derived
// distribution samplers.
//
// Four concrete variants are provided, one per keyed hash available in
// the retrieved example pack, standing in for necsim's WyHash/PCG/
// SeaHash/CUDA-friendly family (spec §2 RNG row):
//   - HighwayRNG (github.com/minio/highwayhash)
//   - XXRNG      (github.com/cespare/xxhash/v2)   — "CUDA-friendly" (fast, simple state)
//   - SeaRNG     (github.com/spaolacci/murmur3)    — stands in for SeaHash
//   - PCGRNG     (hand-rolled PCG32, the algorithm spec names directly)
package rng

// Source is the engine's RNG contract.
type Source interface {
	// SampleU64 draws the next raw 64-bit word from the stream.
	SampleU64() uint64
}

// Primeable resets internal state to a deterministic function of a
// location key and a time-step index, independent of any prior draws.
// Used by the independent active-lineage sampler so that any worker
// visiting (location, time_step) reproduces the same stream (spec §4.4,
// §4.6, testable property 6).
type Primeable interface {
	Source
	PrimeWith(locationKey uint64, timeIndex uint64)
}

// Splittable derives a statistically independent stream from a stream
// index, used to give each partition and each sub-sampler its own RNG
// (spec §4.6, §4.7).
type Splittable interface {
	Source
	SplitToStream(streamIndex uint64) Source
}

// seedExpand performs necsim's standardised PCG-like seed expansion:
// a u64 seed is mixed through a fixed-round SplitMix64 to produce a
// 256-bit expanded seed, used by every variant's seed_from_u64
// constructor so that a bare u64 seed behaves identically across
// variants and across re-implementations (spec §4.6 "standardised
// PCG-like seed expansion for reproducibility").
func seedExpand(seed uint64) [4]uint64 {
	var out [4]uint64
	x := seed
	for i := range out {
		x += 0x9E3779B97F4A7C15
		z := x
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		z = z ^ (z >> 31)
		out[i] = z
	}
	return out
}

// rotl64 rotates v left by k bits, a primitive shared by all variants'
// mixing steps.
func rotl64(v uint64, k uint) uint64 {
	return (v << k) | (v >> (64 - k))
}
