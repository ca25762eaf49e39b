// Package partition implements the LocalPartition role (spec §2,
// §4.7): migrating lineages between the processes cooperating on one
// simulation, and the vote protocols that decide when every partition
// has genuinely run out of work.
package partition

import (
	"github.com/nmxmxh/necsim/internal/lineage"
)

// MigrationMode controls how eagerly a partition flushes its outgoing
// migration buffer (spec §4.7).
type MigrationMode int

const (
	// ModeDefault flushes opportunistically, batching several
	// migrations per round-trip.
	ModeDefault MigrationMode = iota
	// ModeForce flushes immediately after every StepOnce that produced
	// an emigrant, trading throughput for lower migration latency.
	ModeForce
	// ModeHold never flushes automatically; the caller must call
	// Flush explicitly. Used by the independent algorithm, which
	// drives its own migration cadence.
	ModeHold
)

// VoteKind selects the termination-detection protocol used by
// Partition.Vote (spec §4.7).
type VoteKind int

const (
	// VoteAny: the run may terminate as soon as any partition reports
	// no local work and no pending migrations anywhere.
	VoteAny VoteKind = iota
	// VoteMinTime: the run terminates only once all partitions agree
	// none has work left. Decide does not read the reported NextTime
	// and does not pick which partition goes next.
	VoteMinTime
)

// Vote is one partition's report in a termination round.
type Vote struct {
	Rank     uint32
	HasWork  bool
	NextTime lineage.Time
}

// Decide applies kind across every partition's vote and reports whether
// the whole run may terminate.
func Decide(kind VoteKind, votes []Vote) bool {
	switch kind {
	case VoteAny:
		for _, v := range votes {
			if !v.HasWork {
				return true
			}
		}
		return false
	case VoteMinTime:
		for _, v := range votes {
			if v.HasWork {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Partition is the engine's LocalPartition contract: a channel for
// outgoing emigrants and a source of incoming immigrants, abstracting
// over however many cooperating processes actually exist.
type Partition interface {
	// Rank is this partition's index among Count cooperating
	// partitions.
	Rank() uint32
	Count() uint32
	// Migrate enqueues an emigrating lineage for delivery to whichever
	// partition owns its target location.
	Migrate(owner uint32, mig lineage.MigratingLineage)
	// Flush delivers any buffered emigrants according to Mode.
	Flush() error
	// Poll returns immigrants that have arrived since the last Poll
	// call, destined for the local immigration.Entry buffer.
	Poll() []lineage.MigratingLineage
	// Vote reports this partition's local work state for a termination
	// round and collects the cluster's decision.
	Vote(hasWork bool, nextTime lineage.Time) bool
	Mode() MigrationMode
	Close() error
}
