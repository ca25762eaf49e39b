package rng

import (
	"encoding/binary"

	"github.com/minio/highwayhash"
)

// HighwayRNG is a counter-mode RNG keyed by HighwayHash: state advances
// by hashing (key || counter) and the digest's first 8 bytes become the
// next sampled word. Stands in for necsim's WyHash variant: both are
// small, dependency-light keyed hashes used purely to mix a counter.
type HighwayRNG struct {
	key     [32]byte
	counter uint64
}

var _ Source = (*HighwayRNG)(nil)
var _ Primeable = (*HighwayRNG)(nil)
var _ Splittable = (*HighwayRNG)(nil)

// HighwayFromSeedBytes builds a HighwayRNG whose key is derived from an
// arbitrary-length seed byte string (the "Sponge" RNG config in §6
// hashes arbitrary config bytes down to a seed this way).
func HighwayFromSeedBytes(seed []byte) *HighwayRNG {
	var key [32]byte
	// Expand seed into the 32-byte HighwayHash key by repeated mixing;
	// highwayhash itself requires a fixed-size key, so a short seed is
	// stretched deterministically rather than zero-padded (zero-padding
	// would make many seeds collide on the same effective key).
	h, _ := highwayhash.New64(make([]byte, 32))
	h.Write(seed)
	seedA := h.Sum64()
	expanded := seedExpand(seedA)
	for i, w := range expanded {
		binary.LittleEndian.PutUint64(key[i*8:], w)
	}
	return &HighwayRNG{key: key}
}

// HighwaySeedFromU64 builds a HighwayRNG from a bare u64 seed via the
// shared standardised seed expansion.
func HighwaySeedFromU64(seed uint64) *HighwayRNG {
	var key [32]byte
	expanded := seedExpand(seed)
	for i, w := range expanded {
		binary.LittleEndian.PutUint64(key[i*8:], w)
	}
	return &HighwayRNG{key: key}
}

func (r *HighwayRNG) SampleU64() uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], r.counter)
	r.counter++
	h, err := highwayhash.New64(r.key[:])
	if err != nil {
		panic(err) // key is always exactly 32 bytes; cannot happen
	}
	h.Write(buf[:])
	return h.Sum64()
}

func (r *HighwayRNG) PrimeWith(locationKey uint64, timeIndex uint64) {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:], locationKey)
	binary.LittleEndian.PutUint64(buf[8:], timeIndex)
	h, err := highwayhash.New64(r.key[:])
	if err != nil {
		panic(err)
	}
	h.Write(buf[:])
	r.counter = h.Sum64()
}

func (r *HighwayRNG) SplitToStream(streamIndex uint64) Source {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], streamIndex^0xD1B54A32D192ED03)
	h, err := highwayhash.New64(r.key[:])
	if err != nil {
		panic(err)
	}
	h.Write(buf[:])
	return HighwaySeedFromU64(h.Sum64())
}
