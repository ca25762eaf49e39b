// Package immigration implements the ImmigrationEntry role (spec §2,
// §4.1 step 7): a buffer for lineages arriving from remote partitions.
package immigration

import "github.com/nmxmxh/necsim/internal/lineage"

// Entry is the engine's immigration contract.
type Entry interface {
	// Push buffers an arriving lineage.
	Push(lineage.MigratingLineage)
	// Drain removes and returns all currently-buffered arrivals, in
	// the order they were pushed. Must be called before popping the
	// next active lineage (spec §4.1 step 7).
	Drain() []lineage.MigratingLineage
	// Empty reports whether the buffer currently holds no arrivals —
	// used by simulate_incremental_early_stop's termination check
	// ("no ImmigrationEntry input remains").
	Empty() bool
}

// Never accepts no immigrants — used by monolithic simulations, where
// emigrants loop back through the same process rather than arriving via
// this interface at all.
type Never struct{}

var _ Entry = Never{}

func (Never) Push(lineage.MigratingLineage)          {}
func (Never) Drain() []lineage.MigratingLineage       { return nil }
func (Never) Empty() bool                             { return true }

// Buffered is a simple FIFO immigration buffer, used by every
// multi-partition scheme (spec §4.7).
type Buffered struct {
	queue []lineage.MigratingLineage
}

var _ Entry = (*Buffered)(nil)

func NewBuffered() *Buffered { return &Buffered{} }

func (b *Buffered) Push(m lineage.MigratingLineage) { b.queue = append(b.queue, m) }

func (b *Buffered) Drain() []lineage.MigratingLineage {
	if len(b.queue) == 0 {
		return nil
	}
	out := b.queue
	b.queue = nil
	return out
}

func (b *Buffered) Empty() bool { return len(b.queue) == 0 }
