// Package reporter implements the Reporter role (spec §6): consuming
// the engine's totally-ordered event stream and turning it into
// whatever output a scenario asks for (an event log file, species
// richness counters, a biodiversity metric).
package reporter

import "github.com/nmxmxh/necsim/internal/event"

// Reporter receives events in the engine's total order (internal/event.Less)
// and at end-of-run is asked to finalise any buffered output.
type Reporter interface {
	Report(e event.Event)
	Flush() error
}

// PluginDeclaration is the C-ABI-shaped description a reporter plugin
// exports, mirroring how this codebase's own kernel/wasm boundary
// describes an entry point: a name, a version, and the exported
// symbol's address is resolved by the loader, not carried here.
type PluginDeclaration struct {
	Name        string
	Version     string
	EntrySymbol string
}

// Multi fans events out to every reporter in order, matching spec §6's
// requirement that reporters compose without knowing about each other.
type Multi struct {
	reporters []Reporter
}

var _ Reporter = (*Multi)(nil)

func NewMulti(reporters ...Reporter) *Multi { return &Multi{reporters: reporters} }

func (m *Multi) Report(e event.Event) {
	for _, r := range m.reporters {
		r.Report(e)
	}
}

func (m *Multi) Flush() error {
	for _, r := range m.reporters {
		if err := r.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// Counting is a minimal built-in reporter that tallies speciation and
// dispersal events, useful for tests and for the CLI's one-line summary
// output (spec §6).
type Counting struct {
	Speciations int
	Dispersals  int
	Coalescences int
}

var _ Reporter = (*Counting)(nil)

func (c *Counting) Report(e event.Event) {
	switch e.Kind {
	case event.KindSpeciation:
		c.Speciations++
	case event.KindDispersal:
		c.Dispersals++
		if e.Interaction.Tag == event.InteractionCoalescence {
			c.Coalescences++
		}
	}
}

func (c *Counting) Flush() error { return nil }
