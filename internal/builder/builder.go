// Package builder assembles a simulation.Roles set from a parsed
// config.Document (spec §5), resolving each role's configured kind into
// a concrete internal/<role> implementation.
package builder

import (
	"github.com/nmxmxh/necsim/internal/active"
	"github.com/nmxmxh/necsim/internal/coalescence"
	"github.com/nmxmxh/necsim/internal/config"
	"github.com/nmxmxh/necsim/internal/dedup"
	"github.com/nmxmxh/necsim/internal/dispersal"
	"github.com/nmxmxh/necsim/internal/emigration"
	"github.com/nmxmxh/necsim/internal/errs"
	"github.com/nmxmxh/necsim/internal/eventsampler"
	"github.com/nmxmxh/necsim/internal/habitat"
	"github.com/nmxmxh/necsim/internal/immigration"
	"github.com/nmxmxh/necsim/internal/lineage"
	"github.com/nmxmxh/necsim/internal/rng"
	"github.com/nmxmxh/necsim/internal/simulation"
	"github.com/nmxmxh/necsim/internal/speciation"
	"github.com/nmxmxh/necsim/internal/store"
	"github.com/nmxmxh/necsim/internal/turnover"
)

// Build resolves every role named in doc and returns the assembled
// Roles, ready to hand to simulation.New. Seeding the initial sample is
// a separate step (SeedSample).
func Build(doc *config.Document) (simulation.Roles, error) {
	hab, err := buildHabitat(doc)
	if err != nil {
		return simulation.Roles{}, err
	}
	src, err := buildRNG(doc)
	if err != nil {
		return simulation.Roles{}, err
	}
	spec, err := buildSpeciation(doc)
	if err != nil {
		return simulation.Roles{}, err
	}
	turn, err := buildTurnover(doc)
	if err != nil {
		return simulation.Roles{}, err
	}
	disp, err := buildDispersal(doc, hab)
	if err != nil {
		return simulation.Roles{}, err
	}

	var coherentStore store.Coherent
	if doc.Algorithm.Kind == "independent" {
		coherentStore = store.NewIndependent()
	} else {
		coherentStore = store.NewLocallyCoherent()
	}

	var (
		emig emigration.Exit   = emigration.Never{}
		immi immigration.Entry = immigration.Never{}
	)
	if doc.Partitioning.Kind == "mesh" {
		owner := func(loc lineage.Location) uint32 {
			return hashLocationToRank(loc, doc.Partitioning.Count)
		}
		if doc.Algorithm.Kind == "independent" {
			emig = emigration.NewIndependentPartition(owner, doc.Partitioning.Rank)
		} else {
			emig = emigration.NewDomainDecomposition(owner, doc.Partitioning.Rank)
		}
		immi = immigration.NewBuffered()
	}

	activeSampler := buildActiveSampler(doc, turn, coherentStore)
	eventSampler, dedupCache := buildEventSampler(doc, hab)

	roles := simulation.Roles{
		Habitat:       hab,
		RNG:           src,
		Speciation:    spec,
		Dispersal:     disp,
		Turnover:      turn,
		Store:         coherentStore,
		Coalescence:   buildCoalescence(doc),
		EventSample:   eventSampler,
		Emigration:    emig,
		Immigration:   immi,
		Active:        activeSampler,
		Dedup:         dedupCache,
		LocationKeyOf: hab.LocationKey,
	}
	return roles, nil
}

func buildHabitat(doc *config.Document) (habitat.Habitat, error) {
	h := doc.Scenario.Habitat
	switch h.Kind {
	case "non_spatial":
		return habitat.NewNonSpatial(h.Width * h.Height * h.Deme), nil
	case "spatially_implicit":
		si, err := habitat.NewSpatiallyImplicit(h.Width, h.Height, h.Deme, uint64(h.Width)*uint64(h.Height)*uint64(h.Deme))
		if err != nil {
			return nil, errs.Wrap(errs.Configuration, err, "building spatially implicit habitat")
		}
		return si, nil
	case "almost_infinite":
		return habitat.NewAlmostInfinite(int64(doc.RNG.Seed)), nil
	case "in_memory":
		capacity := make([]uint32, int(h.Width)*int(h.Height))
		for i := range capacity {
			capacity[i] = h.Deme
		}
		im, err := habitat.NewInMemory(h.Width, h.Height, capacity)
		if err != nil {
			return nil, errs.Wrap(errs.Configuration, err, "building in-memory habitat")
		}
		return im, nil
	default:
		return nil, errs.New(errs.Configuration, "unsupported habitat kind")
	}
}

func buildRNG(doc *config.Document) (rng.Source, error) {
	switch doc.RNG.Variant {
	case "cuda", "pcg", "":
		return rng.PCGSeedFromU64(doc.RNG.Seed), nil
	case "xxhash":
		return rng.XXSeedFromU64(doc.RNG.Seed), nil
	case "wyhash", "sea":
		return rng.SeaSeedFromU64(doc.RNG.Seed), nil
	case "highway":
		return rng.HighwaySeedFromU64(doc.RNG.Seed), nil
	default:
		return nil, errs.New(errs.Configuration, "unsupported rng variant")
	}
}

func buildSpeciation(doc *config.Document) (speciation.Probability, error) {
	switch doc.Scenario.Speciation.Kind {
	case "uniform", "":
		return speciation.Uniform{P: doc.Scenario.Speciation.Probability}, nil
	case "map":
		return speciation.Map{Default: doc.Scenario.Speciation.Probability}, nil
	default:
		return nil, errs.New(errs.Configuration, "unsupported speciation kind")
	}
}

func buildTurnover(doc *config.Document) (turnover.Rate, error) {
	switch doc.Scenario.Turnover.Kind {
	case "uniform", "":
		rate := doc.Scenario.Turnover.Rate
		if rate == 0 {
			rate = 1
		}
		return turnover.Uniform{Rate: rate}, nil
	case "map":
		return turnover.Map{Default: doc.Scenario.Turnover.Rate}, nil
	default:
		return nil, errs.New(errs.Configuration, "unsupported turnover kind")
	}
}

func buildDispersal(doc *config.Document, hab habitat.Habitat) (dispersal.Sampler, error) {
	switch doc.Scenario.Dispersal.Kind {
	case "normal":
		return dispersal.Normal{Sigma: doc.Scenario.Dispersal.Sigma}, nil
	case "non_spatial", "":
		return dispersal.NonSpatialUniform{}, nil
	default:
		return nil, errs.New(errs.Configuration, "unsupported dispersal kind (matrix-backed kinds require a loaded matrix; see internal/dispersal)")
	}
}

// buildCoalescence returns coalescence.Conditional for every algorithm
// whose event sampler relies on it always coalescing self-dispersal
// (independent, and both Gillespie variants' GillespieConditional event
// sampler — spec §4.5 "Gillespie (conditional)"); coalescence.
// Unconditional otherwise.
func buildCoalescence(doc *config.Document) coalescence.Sampler {
	switch doc.Algorithm.Kind {
	case "independent", "gillespie", "skipping_gillespie":
		return coalescence.Conditional{}
	default:
		return coalescence.Unconditional{}
	}
}

func buildActiveSampler(doc *config.Document, turn turnover.Rate, s store.Coherent) active.Sampler {
	switch doc.Algorithm.Kind {
	case "gillespie", "skipping_gillespie":
		return active.NewGillespieAlias(1024, s.LookupUnordered)
	case "independent":
		deltaT := doc.Algorithm.DeltaT
		if deltaT <= 0 {
			deltaT = 1
		}
		return active.NewIndependent(turn, deltaT)
	default:
		return active.NewClassical(turn, s.LookupUnordered)
	}
}

// buildEventSampler resolves spec §4.5's event sampler for doc's
// algorithm: GillespieConditional for the Gillespie variants, Tracked
// (paired with a DedupCache) for independent, Unconditional otherwise.
func buildEventSampler(doc *config.Document, hab habitat.Habitat) (eventsampler.Sampler, *dedup.Cache) {
	switch doc.Algorithm.Kind {
	case "gillespie", "skipping_gillespie":
		return eventsampler.GillespieConditional{}, nil
	case "independent":
		locationKeyOf := func(loc lineage.Location) uint64 {
			return hab.LocationKey(lineage.IndexedLocation{Location: loc})
		}
		return eventsampler.Tracked{LocationKeyOf: locationKeyOf}, buildDedupCache(doc, hab)
	default:
		return eventsampler.Unconditional{}, nil
	}
}

// buildDedupCache resolves the independent algorithm's SpeciationSample
// cache policy (spec §4.8(a)): "none" (default) disables deduplication,
// "absolute" bounds the cache at a fixed entry count, "relative" bounds
// it at a fraction of the habitat's total capacity.
func buildDedupCache(doc *config.Document, hab habitat.Habitat) *dedup.Cache {
	switch doc.Algorithm.DedupCachePolicy {
	case "absolute":
		return dedup.NewCache(dedup.PolicyAbsolute, int(doc.Algorithm.DedupCacheSize))
	case "relative":
		total := hab.TotalCapacity()
		return dedup.NewRelativeCache(doc.Algorithm.DedupCacheSize, total.Value)
	default:
		return dedup.NewCache(dedup.PolicyNone, 0)
	}
}

// hashLocationToRank is a placeholder domain-decomposition function:
// real deployments supply their own PartitionOf mapping derived from
// how the habitat was actually split across ranks.
func hashLocationToRank(loc lineage.Location, count uint32) uint32 {
	if count == 0 {
		return 0
	}
	h := uint32(loc.X)*2654435761 + uint32(loc.Y)*40503
	return h % count
}

// SeedSample activates percentage of habitat capacity as the initial
// lineage sample, per spec §5 sample.percentage, issuing global
// references from factory. It seeds through sim.Seed rather than
// touching the store directly, so the active-lineage sampler is armed
// and ActiveLineageCount reflects every seeded lineage from the start.
func SeedSample(sim *simulation.Simulation, factory *lineage.ReferenceFactory, hab habitat.Habitat, percentage float64) error {
	for loc := range hab.Habitable() {
		capacity := hab.CapacityAt(loc)
		n := uint64(float64(capacity) * percentage)
		for i := uint64(0); i < n; i++ {
			ref := factory.Next()
			l := &lineage.Lineage{GlobalRef: ref}
			idxLoc := lineage.IndexedLocation{Location: loc, Index: uint32(i)}
			if err := sim.Seed(l, idxLoc); err != nil {
				return errs.Wrap(errs.Simulation, err, "seeding initial sample")
			}
		}
	}
	return nil
}
