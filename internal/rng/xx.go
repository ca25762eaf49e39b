package rng

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// XXRNG is a counter-mode RNG keyed by xxhash64, chosen for its very
// low per-call overhead — the spec's "CUDA-friendly" RNG variant row
// calls for a stream cheap enough to re-derive per (location, time_step)
// pair inside a hot per-lineage loop (spec §4.4 independent sampler).
type XXRNG struct {
	seed    uint64
	counter uint64
}

var _ Source = (*XXRNG)(nil)
var _ Primeable = (*XXRNG)(nil)
var _ Splittable = (*XXRNG)(nil)

func XXSeedFromU64(seed uint64) *XXRNG {
	expanded := seedExpand(seed)
	return &XXRNG{seed: expanded[0] ^ expanded[1]}
}

func XXFromSeedBytes(seed []byte) *XXRNG {
	return XXSeedFromU64(xxhash.Sum64(seed))
}

func (r *XXRNG) mix(a, b uint64) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:], a)
	binary.LittleEndian.PutUint64(buf[8:], b)
	return xxhash.Sum64(buf[:])
}

func (r *XXRNG) SampleU64() uint64 {
	v := r.mix(r.seed, r.counter)
	r.counter++
	return v
}

func (r *XXRNG) PrimeWith(locationKey uint64, timeIndex uint64) {
	r.counter = r.mix(locationKey, timeIndex)
}

func (r *XXRNG) SplitToStream(streamIndex uint64) Source {
	return XXSeedFromU64(r.mix(r.seed, streamIndex^0x9E3779B97F4A7C15))
}
