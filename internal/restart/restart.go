// Package restart implements resuming a simulation from a checkpoint
// whose lineage set no longer matches the habitat it resumes into (spec
// §4.8, §12): a paused run can be restarted against a shrunk habitat, a
// changed turnover map, or a different partition count, producing
// lineages that no longer have a legal home. This package categorises
// those lineages and fixes them up rather than aborting the run.
package restart

import (
	"github.com/nmxmxh/necsim/internal/errs"
	"github.com/nmxmxh/necsim/internal/habitat"
	"github.com/nmxmxh/necsim/internal/lineage"
)

// Category classifies why a resumed lineage could not be placed
// directly back into the habitat it last occupied.
type Category int

const (
	// CategoryCoalescence: the lineage's last cell is now fully
	// occupied by other resuming lineages, forcing an immediate
	// coalescence decision before the run can continue.
	CategoryCoalescence Category = iota
	// CategoryOutOfDeme: the lineage's last cell still exists but no
	// longer has enough capacity to hold it at all.
	CategoryOutOfDeme
	// CategoryOutOfHabitat: the lineage's last cell no longer exists in
	// the habitat (outside its extent, or its capacity dropped to
	// zero).
	CategoryOutOfHabitat
)

func (c Category) String() string {
	switch c {
	case CategoryCoalescence:
		return "coalescence"
	case CategoryOutOfDeme:
		return "out-of-deme"
	case CategoryOutOfHabitat:
		return "out-of-habitat"
	default:
		return "unknown"
	}
}

// Exceptional records one lineage that needs fix-up before the resumed
// run can proceed normally.
type Exceptional struct {
	GlobalRef lineage.GlobalReference
	Location  lineage.Location
	Category  Category
}

// FixUpStrategy decides how to place an Exceptional lineage back into
// a (possibly changed) habitat.
type FixUpStrategy interface {
	// Repair returns a new legal location for the lineage, or ok=false
	// if none could be found (the caller must then abort with a
	// Resume-kind error).
	Repair(e Exceptional, hab habitat.Habitat) (loc lineage.Location, ok bool)
}

// NearestHabitableCell repairs by scanning the habitat's habitable
// cells and picking whichever is closest (Chebyshev distance) to the
// lineage's original location. It is O(habitable cells) per repair,
// acceptable since fix-up only runs once at resume, not in the hot
// loop.
type NearestHabitableCell struct{}

var _ FixUpStrategy = NearestHabitableCell{}

func (NearestHabitableCell) Repair(e Exceptional, hab habitat.Habitat) (lineage.Location, bool) {
	var (
		best    lineage.Location
		bestD   int64 = -1
		found   bool
	)
	for loc := range hab.Habitable() {
		d := chebyshev(e.Location, loc)
		if !found || d < bestD {
			best, bestD, found = loc, d, true
		}
	}
	return best, found
}

func chebyshev(a, b lineage.Location) int64 {
	dx := int64(a.X) - int64(b.X)
	if dx < 0 {
		dx = -dx
	}
	dy := int64(a.Y) - int64(b.Y)
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// Classify determines why loc no longer accepts global's lineage,
// given the habitat it is resuming into and the lineage's current
// occupancy there (already including itself and any other resuming
// lineages placed so far).
func Classify(hab habitat.Habitat, loc lineage.Location, occupantsAfterSelf int) (Category, bool) {
	if !hab.Contains(loc) {
		return CategoryOutOfHabitat, true
	}
	capacity := hab.CapacityAt(loc)
	if capacity == 0 {
		return CategoryOutOfHabitat, true
	}
	if uint64(occupantsAfterSelf) > uint64(capacity) {
		if capacity == 1 {
			return CategoryCoalescence, true
		}
		return CategoryOutOfDeme, true
	}
	return 0, false
}

// FixUp repairs every exceptional lineage in order, using strategy, and
// returns the chosen locations keyed by global reference. It returns a
// Resume-kind error (internal/errs) listing every lineage that could
// not be repaired, matching the CLI's resume-failure exit path.
func FixUp(exceptional []Exceptional, hab habitat.Habitat, strategy FixUpStrategy) (map[lineage.GlobalReference]lineage.Location, error) {
	placed := make(map[lineage.GlobalReference]lineage.Location, len(exceptional))
	var failed []errs.ExceptionalLineageSummary

	for _, e := range exceptional {
		loc, ok := strategy.Repair(e, hab)
		if !ok {
			failed = append(failed, errs.ExceptionalLineageSummary{
				GlobalReference: uint64(e.GlobalRef),
				Category:        e.Category.String(),
			})
			continue
		}
		placed[e.GlobalRef] = loc
	}

	if len(failed) > 0 {
		return placed, errs.NewResumeError("could not fix up all exceptional lineages on resume", failed)
	}
	return placed, nil
}
