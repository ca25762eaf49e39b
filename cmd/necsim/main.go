package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nmxmxh/necsim/internal/builder"
	"github.com/nmxmxh/necsim/internal/config"
	"github.com/nmxmxh/necsim/internal/errs"
	"github.com/nmxmxh/necsim/internal/event"
	"github.com/nmxmxh/necsim/internal/eventlog"
	"github.com/nmxmxh/necsim/internal/lineage"
	"github.com/nmxmxh/necsim/internal/obslog"
	"github.com/nmxmxh/necsim/internal/partition"
	"github.com/nmxmxh/necsim/internal/reporter"
	"github.com/nmxmxh/necsim/internal/simulation"
)

var log = obslog.Default("cli")

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: necsim simulate --config <path>")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "simulate":
		os.Exit(runSimulate(os.Args[2:]))
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		os.Exit(1)
	}
}

func runSimulate(args []string) int {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the run's YAML configuration")
	fs.Parse(args)

	if *configPath == "" {
		log.Error("missing required --config flag")
		return errs.Configuration.ExitCode()
	}

	data, err := os.ReadFile(*configPath)
	if err != nil {
		log.Error("reading configuration", obslog.Err(err))
		return errs.Configuration.ExitCode()
	}

	doc, err := config.Parse(data)
	if err != nil {
		log.Error("parsing configuration", obslog.Err(err))
		return exitCodeOf(err)
	}

	roles, err := builder.Build(doc)
	if err != nil {
		log.Error("assembling simulation roles", obslog.Err(err))
		return exitCodeOf(err)
	}

	counting := &reporter.Counting{}
	var sink reporter.Reporter = counting
	if doc.EventLog != nil {
		w, err := eventlog.Create(doc.EventLog.Directory + "/segment-0.evlog")
		if err != nil {
			log.Error("opening event log", obslog.Err(err))
			return errs.Configuration.ExitCode()
		}
		sink = reporter.NewMulti(counting, eventlog.NewReporter(w))
	}

	var part partition.Partition = partition.Monolithic{}
	if doc.Partitioning.Kind == "mesh" {
		log.Error("mesh partitioning requires a running transport and is not wired into the standalone CLI")
		return errs.Partitioning.ExitCode()
	}

	sim := simulation.New(roles, &eventSink{reporter: sink})

	factory := lineage.NewReferenceFactory(doc.Partitioning.Rank, max(doc.Partitioning.Count, 1))
	if err := builder.SeedSample(sim, factory, roles.Habitat, doc.Sample.Percentage); err != nil {
		log.Error("seeding initial sample", obslog.Err(err))
		return exitCodeOf(err)
	}

	const budget = 1 << 20
	for {
		steps, exhausted := simulation.SimulateIncrementalEarlyStop(sim, budget)
		if !exhausted {
			break
		}
		log.Debug("processed a budget of events", obslog.Uint64("steps", steps))
		if !part.Vote(sim.ActiveLineageCount() > 0, sim.Time()) {
			continue
		}
		break
	}

	if err := sink.Flush(); err != nil {
		log.Error("flushing reporters", obslog.Err(err))
		return errs.Simulation.ExitCode()
	}

	fmt.Printf("speciations=%d dispersals=%d coalescences=%d final_time=%g\n",
		counting.Speciations, counting.Dispersals, counting.Coalescences, float64(sim.Time()))
	return 0
}

func exitCodeOf(err error) int {
	var e *errs.Error
	if as, ok := err.(*errs.Error); ok {
		e = as
		return e.Kind.ExitCode()
	}
	return errs.Simulation.ExitCode()
}

func max(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// eventSink adapts reporter.Reporter to simulation.Sink.
type eventSink struct {
	reporter reporter.Reporter
}

func (s *eventSink) Speciation(global lineage.GlobalReference, origin lineage.IndexedLocation, prior, at lineage.Time) {
	s.reporter.Report(eventFromSpeciation(global, origin, prior, at))
}

func (s *eventSink) Dispersal(global lineage.GlobalReference, origin, target lineage.IndexedLocation, prior, at lineage.Time, coalesced bool, parent lineage.GlobalReference) {
	s.reporter.Report(eventFromDispersal(global, origin, target, prior, at, coalesced, parent))
}

func eventFromSpeciation(global lineage.GlobalReference, origin lineage.IndexedLocation, prior, at lineage.Time) event.Event {
	return event.NewSpeciation(global, origin, prior, at)
}

func eventFromDispersal(global lineage.GlobalReference, origin, target lineage.IndexedLocation, prior, at lineage.Time, coalesced bool, parent lineage.GlobalReference) event.Event {
	interaction := event.Interaction{Tag: event.InteractionNone}
	if coalesced {
		interaction = event.Interaction{Tag: event.InteractionCoalescence, Parent: parent}
	}
	return event.NewDispersal(global, origin, target, interaction, prior, at)
}
