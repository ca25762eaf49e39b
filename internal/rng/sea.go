package rng

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"
)

// SeaRNG is a counter-mode RNG keyed by a seeded Murmur3 mix, standing
// in for necsim's SeaHash variant (another non-cryptographic mixing
// hash with a seed parameter well suited to counter-mode use).
type SeaRNG struct {
	seed    uint32
	counter uint64
}

var _ Source = (*SeaRNG)(nil)
var _ Primeable = (*SeaRNG)(nil)
var _ Splittable = (*SeaRNG)(nil)

func SeaSeedFromU64(seed uint64) *SeaRNG {
	expanded := seedExpand(seed)
	return &SeaRNG{seed: uint32(expanded[0] ^ (expanded[0] >> 32))}
}

func SeaFromSeedBytes(seed []byte) *SeaRNG {
	return SeaSeedFromU64(uint64(murmur3.Sum32(seed)))
}

func (r *SeaRNG) mix(a uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], a)
	return murmur3.Sum64WithSeed(buf[:], r.seed)
}

func (r *SeaRNG) SampleU64() uint64 {
	v := r.mix(r.counter)
	r.counter++
	return v
}

func (r *SeaRNG) PrimeWith(locationKey uint64, timeIndex uint64) {
	r.counter = r.mix(locationKey ^ rotl64(timeIndex, 32))
}

func (r *SeaRNG) SplitToStream(streamIndex uint64) Source {
	return SeaSeedFromU64(r.mix(streamIndex ^ 0xC2B2AE3D27D4EB4F))
}
