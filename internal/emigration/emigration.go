// Package emigration implements the EmigrationExit role (spec §2, §4.1
// step 3/6): filtering lineages leaving the local partition.
package emigration

import "github.com/nmxmxh/necsim/internal/lineage"

// Exit is the engine's emigration contract: given a dispersing
// lineage's origin and sampled target, decide whether the lineage
// leaves the local partition, producing a MigratingLineage if so.
type Exit interface {
	// MaybeEmigrate returns ok==true if the lineage emigrates, in which
	// case mig is the lineage handed off to the partition layer
	// (internal/partition) and the caller must not re-arm the lineage
	// locally.
	MaybeEmigrate(
		global lineage.GlobalReference,
		origin, target lineage.Location,
		prior, at lineage.Time,
		coalescenceRNG uint64,
	) (mig lineage.MigratingLineage, ok bool)
}

// Never never emigrates — used by monolithic (single-partition)
// simulations.
type Never struct{}

var _ Exit = Never{}

func (Never) MaybeEmigrate(lineage.GlobalReference, lineage.Location, lineage.Location, lineage.Time, lineage.Time, uint64) (lineage.MigratingLineage, bool) {
	return lineage.MigratingLineage{}, false
}

// PartitionOf maps a Location to the index of the partition that owns
// it, used by both DomainDecomposition and IndependentPartition below.
type PartitionOf func(lineage.Location) uint32

// DomainDecomposition emigrates whenever the sampled target location
// belongs to a different partition than the one currently running,
// per the locally-coherent domain-decomposed parallelisation scheme
// (spec §4.7).
type DomainDecomposition struct {
	Owner     PartitionOf
	LocalRank uint32
	tie       uint64
}

var _ Exit = (*DomainDecomposition)(nil)

func NewDomainDecomposition(owner PartitionOf, localRank uint32) *DomainDecomposition {
	return &DomainDecomposition{Owner: owner, LocalRank: localRank}
}

func (d *DomainDecomposition) MaybeEmigrate(
	global lineage.GlobalReference,
	origin, target lineage.Location,
	prior, at lineage.Time,
	coalescenceRNG uint64,
) (lineage.MigratingLineage, bool) {
	if d.Owner(target) == d.LocalRank {
		return lineage.MigratingLineage{}, false
	}
	d.tie++
	return lineage.MigratingLineage{
		GlobalRef:       global,
		DispersalOrigin: origin,
		DispersalTarget: target,
		PriorTime:       prior,
		EventTime:       at,
		CoalescenceRNG:  coalescenceRNG,
		TieBreaker:      d.tie,
	}, true
}

// IndependentPartition is identical in decision logic to
// DomainDecomposition (ownership is still per-location), but is used by
// the independent-algorithm's per-lineage-ownership scheme (spec §4.7
// "Independent-partition scheme": lineages are owned by a partition via
// a DecompositionChoice on location). Kept as a distinct type so the
// builder can tell which parallelisation scheme selected it.
type IndependentPartition struct {
	DomainDecomposition
}

func NewIndependentPartition(owner PartitionOf, localRank uint32) *IndependentPartition {
	return &IndependentPartition{DomainDecomposition: DomainDecomposition{Owner: owner, LocalRank: localRank}}
}
