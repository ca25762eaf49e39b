package immigration

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nmxmxh/necsim/internal/lineage"
)

func TestNeverIsAlwaysEmpty(t *testing.T) {
	var n Never
	n.Push(lineage.MigratingLineage{GlobalRef: 1})
	assert.True(t, n.Empty())
	assert.Nil(t, n.Drain())
}

func TestBufferedAccumulatesInPushOrder(t *testing.T) {
	b := NewBuffered()
	assert.True(t, b.Empty())

	b.Push(lineage.MigratingLineage{GlobalRef: 1})
	b.Push(lineage.MigratingLineage{GlobalRef: 2})
	assert.False(t, b.Empty())

	drained := b.Drain()
	assert.Equal(t, []lineage.GlobalReference{1, 2}, []lineage.GlobalReference{drained[0].GlobalRef, drained[1].GlobalRef})
	assert.True(t, b.Empty(), "draining clears the buffer")
}

func TestBufferedDrainIsIdempotentWhenEmpty(t *testing.T) {
	b := NewBuffered()
	assert.Nil(t, b.Drain())
}
