package dedup

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nmxmxh/necsim/internal/event"
	"github.com/nmxmxh/necsim/internal/lineage"
)

func TestCacheDetectsExactDuplicate(t *testing.T) {
	c := NewCache(PolicyAbsolute, 16)
	sample := lineage.SpeciationSample{LocationKey: 5, Time: 1.5, Uniform: 0.25}

	assert.False(t, c.CheckAndInsert(sample), "first insert must not be flagged a duplicate")
	assert.True(t, c.CheckAndInsert(sample), "re-inserting the same sample must be flagged a duplicate")
}

func TestCacheDistinguishesDifferentSamples(t *testing.T) {
	c := NewCache(PolicyAbsolute, 16)
	a := lineage.SpeciationSample{LocationKey: 1, Time: 1.0, Uniform: 0.1}
	b := lineage.SpeciationSample{LocationKey: 1, Time: 1.0, Uniform: 0.2}

	assert.False(t, c.CheckAndInsert(a))
	assert.False(t, c.CheckAndInsert(b))
}

func TestPolicyNoneNeverFlagsDuplicates(t *testing.T) {
	c := NewCache(PolicyNone, 0)
	sample := lineage.SpeciationSample{LocationKey: 1, Time: 1.0, Uniform: 0.1}
	assert.False(t, c.CheckAndInsert(sample))
	assert.False(t, c.CheckAndInsert(sample))
}

func TestNewRelativeCacheSizesFromHabitatCapacity(t *testing.T) {
	c := NewRelativeCache(0.5, 100)
	assert.Equal(t, PolicyRelative, c.policy)
	assert.Equal(t, 50, len(c.slots))
}

func TestSortWaterLevelProducesTotalOrder(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	events := make([]event.Event, 200)
	for i := range events {
		events[i] = event.NewSpeciation(
			lineage.GlobalReference(r.Intn(50)),
			lineage.IndexedLocation{},
			0,
			lineage.Time(r.Float64()*10),
		)
	}
	SortWaterLevel(events)
	for i := 1; i < len(events); i++ {
		assert.False(t, event.Less(events[i], events[i-1]))
	}
}

func TestWaterLevelBuffersBelowAndAboveLevel(t *testing.T) {
	w := NewWaterLevel(4)
	w.Raise(2) // level = 4/2 = 2

	below := event.NewSpeciation(1, lineage.IndexedLocation{}, 0, 1.0)
	above := event.NewSpeciation(2, lineage.IndexedLocation{}, 0, 5.0)
	w.Push(below)
	w.Push(above)

	assert.True(t, w.Pending())
	flushed := w.Flush()
	assert.Equal(t, []event.Event{below}, flushed)
	assert.True(t, w.Pending(), "the above-level event must still be buffered as fast")
}

func TestWaterLevelRaisePromotesFastToSlow(t *testing.T) {
	w2 := NewWaterLevel(4)
	w2.Raise(4) // level = 1
	fastEv := event.NewSpeciation(2, lineage.IndexedLocation{}, 0, 1.5)
	w2.Push(fastEv)
	assert.Equal(t, 0, len(w2.Flush()))
	assert.True(t, w2.Pending())

	w2.Raise(1) // level += 4/1 = 4 -> level = 5, fastEv (1.5) now below level
	flushed := w2.Flush()
	assert.Equal(t, []event.Event{fastEv}, flushed)
	assert.False(t, w2.Pending())
}

func TestWaterLevelBelowLevel(t *testing.T) {
	w := NewWaterLevel(2)
	w.Raise(2) // level = 1
	assert.True(t, w.BelowLevel(0.5))
	assert.False(t, w.BelowLevel(1.5))
}
