// Package event defines the Event variants emitted by the simulation and
// the total order used to deduplicate and sort buffered event streams
// (spec §3, §4.8).
package event

import (
	"fmt"
	"sort"

	"github.com/nmxmxh/necsim/internal/lineage"
)

// Kind discriminates the Event variants. It also breaks ties in the
// total order (§3 "Total order on events").
type Kind uint8

const (
	KindSpeciation Kind = iota
	KindDispersal
)

// Interaction describes what happened when a dispersing lineage landed
// on its target cell.
type Interaction struct {
	// None, Coalescence or Maybe.
	Tag    InteractionTag
	Parent lineage.GlobalReference // valid iff Tag == Coalescence
}

type InteractionTag uint8

const (
	InteractionNone InteractionTag = iota
	InteractionCoalescence
	InteractionMaybe // deferred across partitions
)

// Event is a single emitted simulation event.
type Event struct {
	Kind            Kind
	GlobalLineage   lineage.GlobalReference
	Origin          lineage.IndexedLocation
	Target          lineage.IndexedLocation // valid iff Kind == KindDispersal
	Interaction     Interaction             // valid iff Kind == KindDispersal
	PriorTime       lineage.Time
	EventTime       lineage.Time
}

func NewSpeciation(global lineage.GlobalReference, origin lineage.IndexedLocation, prior, at lineage.Time) Event {
	return Event{
		Kind:          KindSpeciation,
		GlobalLineage: global,
		Origin:        origin,
		PriorTime:     prior,
		EventTime:     at,
	}
}

func NewDispersal(global lineage.GlobalReference, origin, target lineage.IndexedLocation, interaction Interaction, prior, at lineage.Time) Event {
	return Event{
		Kind:          KindDispersal,
		GlobalLineage: global,
		Origin:        origin,
		Target:        target,
		Interaction:   interaction,
		PriorTime:     prior,
		EventTime:     at,
	}
}

// Less implements the strict total order from spec §3:
// (event_time, prior_time, global_lineage, discriminant). This order
// must be a strict weak ordering — reflexive "<=" would break the
// deduplication / sort machinery in internal/dedup (testable property 8).
func Less(a, b Event) bool {
	if a.EventTime != b.EventTime {
		return a.EventTime < b.EventTime
	}
	if a.PriorTime != b.PriorTime {
		return a.PriorTime < b.PriorTime
	}
	if a.GlobalLineage != b.GlobalLineage {
		return a.GlobalLineage < b.GlobalLineage
	}
	return a.Kind < b.Kind
}

// Equal reports whether a and b are indistinguishable under the total
// order — i.e. neither Less(a,b) nor Less(b,a) holds. Two independently
// re-derived events for the same abstract occurrence compare Equal.
func Equal(a, b Event) bool {
	return !Less(a, b) && !Less(b, a)
}

func (e Event) String() string {
	switch e.Kind {
	case KindSpeciation:
		return fmt.Sprintf("speciation{ref=%d origin=%s t=%g}", e.GlobalLineage, e.Origin, e.EventTime)
	default:
		return fmt.Sprintf("dispersal{ref=%d origin=%s target=%s t=%g interaction=%d}",
			e.GlobalLineage, e.Origin, e.Target, e.EventTime, e.Interaction.Tag)
	}
}

// SortByTotalOrder sorts events in place using Less. Used by water-level
// commit batches (internal/dedup) before delivery to the reporter.
func SortByTotalOrder(events []Event) {
	sort.Slice(events, func(i, j int) bool { return Less(events[i], events[j]) })
}
