package partition

import "github.com/nmxmxh/necsim/internal/lineage"

// Monolithic is the single-process LocalPartition: every "emigrant" is
// actually staying local (the builder should have wired
// emigration.Never instead), so Migrate is never expected to be
// called, and Vote authorises termination as soon as the local
// partition has no work, since there is no cluster to wait on.
type Monolithic struct{}

var _ Partition = Monolithic{}

func (Monolithic) Rank() uint32  { return 0 }
func (Monolithic) Count() uint32 { return 1 }

func (Monolithic) Migrate(uint32, lineage.MigratingLineage) {}

func (Monolithic) Flush() error { return nil }

func (Monolithic) Poll() []lineage.MigratingLineage { return nil }

func (Monolithic) Vote(hasWork bool, _ lineage.Time) bool { return !hasWork }

func (Monolithic) Mode() MigrationMode { return ModeHold }

func (Monolithic) Close() error { return nil }
