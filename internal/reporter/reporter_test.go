package reporter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmxmxh/necsim/internal/event"
	"github.com/nmxmxh/necsim/internal/lineage"
)

type failingReporter struct{ flushed bool }

func (f *failingReporter) Report(event.Event) {}
func (f *failingReporter) Flush() error        { f.flushed = true; return errors.New("boom") }

func TestCountingTalliesByKindAndInteraction(t *testing.T) {
	c := &Counting{}
	c.Report(event.NewSpeciation(1, lineage.IndexedLocation{}, 0, 1))
	c.Report(event.NewDispersal(2, lineage.IndexedLocation{}, lineage.IndexedLocation{}, event.Interaction{Tag: event.InteractionNone}, 0, 1))
	c.Report(event.NewDispersal(3, lineage.IndexedLocation{}, lineage.IndexedLocation{}, event.Interaction{Tag: event.InteractionCoalescence, Parent: 1}, 0, 1))

	assert.Equal(t, 1, c.Speciations)
	assert.Equal(t, 2, c.Dispersals)
	assert.Equal(t, 1, c.Coalescences)
	require.NoError(t, c.Flush())
}

func TestMultiFansOutToEveryReporterInOrder(t *testing.T) {
	a, b := &Counting{}, &Counting{}
	m := NewMulti(a, b)
	m.Report(event.NewSpeciation(1, lineage.IndexedLocation{}, 0, 1))

	assert.Equal(t, 1, a.Speciations)
	assert.Equal(t, 1, b.Speciations)
}

func TestMultiFlushPropagatesFirstError(t *testing.T) {
	ok := &Counting{}
	bad := &failingReporter{}
	m := NewMulti(ok, bad)

	err := m.Flush()
	assert.Error(t, err)
	assert.True(t, bad.flushed)
}
