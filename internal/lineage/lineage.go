// Package lineage defines the engine's core data model (spec §3):
// Location, IndexedLocation, GlobalReference, Lineage,
// MigratingLineage and SpeciationSample.
package lineage

import (
	"fmt"
	"math"
)

// Location is a pair of 32-bit grid coordinates. Arithmetic on Location
// performed by habitats is wrapping, so almost-infinite habitats form a
// torus.
type Location struct {
	X, Y uint32
}

// WrapAdd returns l shifted by (dx, dy), wrapping modulo 2^32 on both axes.
func (l Location) WrapAdd(dx, dy int64) Location {
	return Location{
		X: uint32(int64(l.X) + dx),
		Y: uint32(int64(l.Y) + dy),
	}
}

func (l Location) String() string { return fmt.Sprintf("(%d,%d)", l.X, l.Y) }

// IndexedLocation is a Location together with a deme index identifying
// one of up to capacity(Location) co-resident slots.
type IndexedLocation struct {
	Location Location
	Index    uint32
}

func (il IndexedLocation) String() string {
	return fmt.Sprintf("%s#%d", il.Location, il.Index)
}

// GlobalReference is a monotonically increasing, non-zero, globally
// unique lineage identifier. The zero value is reserved as "no lineage".
type GlobalReference uint64

// Invalid is the reserved zero GlobalReference.
const Invalid GlobalReference = 0

// ReferenceFactory issues monotonically increasing GlobalReferences. It
// is safe only for single-writer use within one partition; each
// partition's factory is built from its own rank and the partition
// count (cmd/necsim does this), so the streams are disjoint and
// references remain globally unique across the whole job.
type ReferenceFactory struct {
	next uint64
	step uint64
}

// NewReferenceFactory returns a factory that issues
// partitionIndex+partitionCount, partitionIndex+2*partitionCount, ...
// (starting one stride past partitionIndex so Invalid==0 is never
// issued, even for partition 0), guaranteeing disjoint streams
// across partitionCount cooperating partitions.
func NewReferenceFactory(partitionIndex, partitionCount uint32) *ReferenceFactory {
	if partitionCount == 0 {
		partitionCount = 1
	}
	return &ReferenceFactory{
		next: uint64(partitionIndex) + uint64(partitionCount),
		step: uint64(partitionCount),
	}
}

// Next issues the next GlobalReference in this factory's stream.
func (f *ReferenceFactory) Next() GlobalReference {
	r := f.next
	f.next += f.step
	return GlobalReference(r)
}

// Time is a non-negative event time. NextAfter advances strictly past a
// reference time, matching necsim's "next_after" trick for guaranteeing
// strict monotonicity even when a sampled delta-t underflows to zero in
// floating point.
type Time float64

// NextAfter returns t when t is strictly greater than floor, and
// otherwise the smallest representable Time strictly greater than
// floor. Callers pass t = floor + delta, so a newly-computed event time
// is guaranteed to strictly exceed the last event time even when delta
// is lost to rounding (spec §4.4 classical/Gillespie "next_after trick").
func NextAfter(floor, t Time) Time {
	if t > floor {
		return t
	}
	return Time(nextFloat64After(float64(floor)))
}

// nextFloat64After returns the smallest float64 strictly greater than f.
func nextFloat64After(f float64) float64 {
	if f == 0 {
		return 4.9406564584124654e-324 // smallest positive subnormal
	}
	bits := math.Float64bits(f)
	if f > 0 {
		bits++
	} else {
		bits--
	}
	return math.Float64frombits(bits)
}

// Lineage is a single ancestral unit under backward-in-time simulation.
type Lineage struct {
	GlobalRef GlobalReference

	// Active holds the current slot when the lineage is active (pending
	// simulation); it is nil when the lineage has terminated or has not
	// yet been placed.
	Active *IndexedLocation

	LastEventTime Time
}

// IsActive reports whether the lineage currently occupies a slot.
func (l *Lineage) IsActive() bool { return l.Active != nil }

// Activate places the lineage at loc and marks it active.
func (l *Lineage) Activate(loc IndexedLocation) { l.Active = &loc }

// Terminate removes the lineage from simulation (speciation or
// coalescence) and records its final event time.
func (l *Lineage) Terminate(at Time) {
	l.Active = nil
	l.LastEventTime = at
}

// MigratingLineage is a lineage in flight between partitions: it carries
// enough state for the receiving partition to finish dispersal sampling
// deterministically without re-drawing RNG samples the sender already
// consumed.
type MigratingLineage struct {
	GlobalRef        GlobalReference
	DispersalOrigin  Location
	DispersalTarget  Location
	PriorTime        Time
	EventTime        Time
	CoalescenceRNG   uint64 // sample for the receiver's coalescence draw
	TieBreaker       uint64 // disambiguates equal (EventTime,PriorTime,GlobalRef)
}

// SpeciationSample is the (location-key, time, uniform-sample) triple
// used only by the independent-mode event sampler to detect globally
// equivalent events sampled redundantly by multiple workers (§4.8).
type SpeciationSample struct {
	LocationKey uint64
	Time        Time
	Uniform     float64
}

// Less implements the lexicographic order used to track the minimum
// SpeciationSample seen by a worker (§4.5 "independent with speciation
// sample tracking").
func (s SpeciationSample) Less(o SpeciationSample) bool {
	if s.Time != o.Time {
		return s.Time < o.Time
	}
	if s.LocationKey != o.LocationKey {
		return s.LocationKey < o.LocationKey
	}
	return s.Uniform < o.Uniform
}
