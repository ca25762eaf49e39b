// Package config parses the engine's YAML run configuration (spec §5)
// into a validated document tree, using gopkg.in/yaml.v3 the way the
// rest of this codebase's configuration surfaces are parsed.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/nmxmxh/necsim/internal/errs"
)

// Document is the top-level configuration document (spec §5).
type Document struct {
	Sample       SampleConfig       `yaml:"sample"`
	RNG          RNGConfig          `yaml:"rng"`
	Scenario     ScenarioConfig     `yaml:"scenario"`
	Algorithm    AlgorithmConfig    `yaml:"algorithm"`
	Partitioning PartitioningConfig `yaml:"partitioning"`
	EventLog     *EventLogConfig    `yaml:"event_log,omitempty"`
	Reporters    []ReporterConfig   `yaml:"reporters,omitempty"`
	Pause        *PauseConfig       `yaml:"pause,omitempty"`
}

type SampleConfig struct {
	Percentage float64       `yaml:"percentage"`
	Seed       uint64        `yaml:"seed"`
	EventSlice EventSliceSpec `yaml:"event_slice,omitempty"`
}

// EventSliceSpec is an Open Question from the distilled spec: the
// legacy configuration format allows event_slice to be written either
// as a bare integer (a fixed batch size) or as one of a small set of
// named policies. Both forms are accepted here, resolved into the same
// struct, matching what a reader of an old config file would expect to
// keep working (spec Open Question (a), resolved in favour of backward
// compatibility).
type EventSliceSpec struct {
	Fixed  uint64
	Named  string // "", "epoch", or "generation"
	IsSet  bool
}

func (e *EventSliceSpec) UnmarshalYAML(value *yaml.Node) error {
	var asInt uint64
	if err := value.Decode(&asInt); err == nil {
		*e = EventSliceSpec{Fixed: asInt, IsSet: true}
		return nil
	}
	var asString string
	if err := value.Decode(&asString); err != nil {
		return fmt.Errorf("event_slice must be an integer or one of \"epoch\"/\"generation\": %w", err)
	}
	switch asString {
	case "epoch", "generation":
		*e = EventSliceSpec{Named: asString, IsSet: true}
		return nil
	default:
		return fmt.Errorf("event_slice: unrecognised policy %q", asString)
	}
}

func (e EventSliceSpec) MarshalYAML() (interface{}, error) {
	if e.Named != "" {
		return e.Named, nil
	}
	return e.Fixed, nil
}

type RNGConfig struct {
	Variant string `yaml:"variant"` // "cuda" (PCG), "wyhash"->Sea, "xxhash", "highway"
	Seed    uint64 `yaml:"seed"`
}

type ScenarioConfig struct {
	Habitat    HabitatConfig    `yaml:"habitat"`
	Dispersal  DispersalConfig  `yaml:"dispersal"`
	Speciation SpeciationConfig `yaml:"speciation"`
	Turnover   TurnoverConfig   `yaml:"turnover"`
}

type HabitatConfig struct {
	Kind    string `yaml:"kind"` // "in_memory", "non_spatial", "almost_infinite", "spatially_implicit"
	MapPath string `yaml:"map_path,omitempty"`
	Width   uint32 `yaml:"width,omitempty"`
	Height  uint32 `yaml:"height,omitempty"`
	Deme    uint32 `yaml:"deme,omitempty"`
}

type DispersalConfig struct {
	Kind     string  `yaml:"kind"` // "normal" or "non_spatial" (default); matrix-backed kinds are rejected by the builder
	MapPath  string  `yaml:"map_path,omitempty"`
	Sigma    float64 `yaml:"sigma,omitempty"`
}

type SpeciationConfig struct {
	Kind        string  `yaml:"kind"` // "uniform" or "map"
	Probability float64 `yaml:"probability,omitempty"`
	MapPath     string  `yaml:"map_path,omitempty"`
}

type TurnoverConfig struct {
	Kind    string  `yaml:"kind"`
	Rate    float64 `yaml:"rate,omitempty"`
	MapPath string  `yaml:"map_path,omitempty"`
}

type AlgorithmConfig struct {
	Kind string `yaml:"kind"` // "classical", "gillespie", "independent", "cuda", "skipping_gillespie"

	// DeltaT is the independent algorithm's fixed step size (spec §4.4
	// "Independent active sampler"); defaults to 1 when unset.
	DeltaT float64 `yaml:"delta_t,omitempty"`
	// EventSlice sizes the independent algorithm's water-level slice
	// (spec §4.8(b)). It has no fallback: when unset it stays 0, and
	// sample.event_slice is not consulted in its place.
	EventSlice uint64 `yaml:"event_slice,omitempty"`
	// DedupCachePolicy is "none" (default), "absolute" or "relative",
	// selecting internal/dedup's SpeciationSample cache (spec §4.8(a)).
	DedupCachePolicy string `yaml:"dedup_cache_policy,omitempty"`
	// DedupCacheSize is an absolute entry count under "absolute" or a
	// fraction of total habitat capacity under "relative".
	DedupCacheSize float64 `yaml:"dedup_cache_size,omitempty"`
}

type PartitioningConfig struct {
	Kind  string   `yaml:"kind"` // "monolithic", "mesh"
	Rank  uint32   `yaml:"rank,omitempty"`
	Count uint32   `yaml:"count,omitempty"`
	Peers []string `yaml:"peers,omitempty"`
	Mode  string   `yaml:"mode,omitempty"` // "default", "force", "hold"
	Vote  string   `yaml:"vote,omitempty"` // "any", "min_time"
}

type EventLogConfig struct {
	Directory string `yaml:"directory"`
}

type ReporterConfig struct {
	Kind string `yaml:"kind"` // "event_log", "counting"
}

type PauseConfig struct {
	After    string `yaml:"after,omitempty"` // duration string, e.g. "10m"
	ResumeAt string `yaml:"resume_at,omitempty"`
}

// Parse decodes a YAML document, returning a Configuration-kind error
// on any structural problem (spec §7).
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errs.Wrap(errs.Configuration, err, "parsing configuration")
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks cross-field invariants the yaml tags alone cannot
// express.
func (d *Document) Validate() error {
	if d.Sample.Percentage <= 0 || d.Sample.Percentage > 1 {
		return errs.New(errs.Configuration, "sample.percentage must be in (0, 1]")
	}
	switch d.Scenario.Habitat.Kind {
	case "in_memory", "non_spatial", "almost_infinite", "spatially_implicit":
	default:
		return errs.New(errs.Configuration, fmt.Sprintf("unknown habitat kind %q", d.Scenario.Habitat.Kind))
	}
	switch d.Algorithm.Kind {
	case "classical", "gillespie", "independent", "cuda", "skipping_gillespie":
	default:
		return errs.New(errs.Configuration, fmt.Sprintf("unknown algorithm kind %q", d.Algorithm.Kind))
	}
	switch d.Partitioning.Kind {
	case "", "monolithic", "mesh":
	default:
		return errs.New(errs.Configuration, fmt.Sprintf("unknown partitioning kind %q", d.Partitioning.Kind))
	}
	if d.Partitioning.Kind == "mesh" && len(d.Partitioning.Peers) == 0 {
		return errs.New(errs.Configuration, "mesh partitioning requires at least one peer address")
	}
	return nil
}
