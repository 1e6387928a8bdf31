package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Orchestrator runs the full sweep described by a GroupSpec: every
// structure x scheme x thread-count combination, repeated the configured
// number of times. Each repetition gets a fresh structure, a fresh scheme
// instance, fresh operation streams and its own memory sampler, so no state
// leaks between cells of the sweep.
type Orchestrator struct {
	group    *GroupSpec
	log      *logrus.Entry
	memQuery MemoryQuery
}

// NewOrchestrator builds an orchestrator for one benchmark group.
func NewOrchestrator(group *GroupSpec) *Orchestrator {
	return &Orchestrator{
		group: group,
		log:   logrus.WithField("group", group.Name),
	}
}

// SetMemoryQuery overrides the system memory probe, mainly for tests.
func (o *Orchestrator) SetMemoryQuery(q MemoryQuery) { o.memQuery = q }

// Run executes the sweep and returns one RunResult per repetition. A failed
// repetition is recorded with its reason and the sweep continues; only a
// cancelled context aborts the remainder.
func (o *Orchestrator) Run(ctx context.Context) ([]RunResult, error) {
	g := o.group
	total := len(g.Structures) * len(g.Schemes) * len(g.Threads) * g.Repetitions
	results := make([]RunResult, 0, total)

	o.log.WithFields(logrus.Fields{
		"structures":  len(g.Structures),
		"schemes":     len(g.Schemes),
		"threads":     g.Threads,
		"repetitions": g.Repetitions,
		"total_runs":  total,
	}).Info("starting benchmark group")

	for _, structure := range g.Structures {
		for _, scheme := range g.Schemes {
			for _, threads := range g.Threads {
				cfg := RunConfig{
					Structure:   structure,
					Scheme:      scheme,
					Threads:     threads,
					Repetitions: g.Repetitions,
				}
				for rep := 0; rep < g.Repetitions; rep++ {
					if err := ctx.Err(); err != nil {
						return results, fmt.Errorf("group aborted: %w", err)
					}
					res := o.runOne(ctx, cfg, rep)
					results = append(results, res)
				}
			}
		}
	}

	o.log.WithField("results", len(results)).Info("benchmark group finished")
	return results, nil
}

// runOne executes a single repetition end to end. The sampler keeps running
// through the tail window after the workers stop so post-stop reclamation
// shows up in the memory trace; the scheme is collected once before the
// tail window opens and once after it closes.
func (o *Orchestrator) runOne(ctx context.Context, cfg RunConfig, rep int) RunResult {
	log := o.log.WithFields(logrus.Fields{
		"structure":  cfg.Structure,
		"scheme":     cfg.Scheme,
		"threads":    cfg.Threads,
		"repetition": rep,
	})
	res := RunResult{Config: cfg, Repetition: rep}

	adapter, err := NewAdapter(cfg.Structure, cfg.Scheme)
	if err != nil {
		res.Failed = true
		res.FailReason = err.Error()
		log.WithError(err).Error("repetition setup failed")
		return res
	}

	runCtx := ctx
	cancel := context.CancelFunc(func() {})
	if d := o.group.RunTimeout(); d > 0 {
		runCtx, cancel = context.WithTimeout(ctx, d)
	}
	defer cancel()

	sampler := NewMemorySampler(o.group.SampleInterval(), o.group.TailWindow(), log)
	if o.memQuery != nil {
		sampler.SetQuery(o.memQuery)
	}
	sampler.Start(runCtx)

	coord := NewCoordinator(adapter, cfg.Threads, log)
	cres, err := coord.Run(runCtx, o.group.streams(rep, cfg.Threads))

	sampler.MarkStopped()
	adapter.Scheme().Collect()
	memory := sampler.Finish()
	adapter.Scheme().Collect()

	if err != nil {
		res.Failed = true
		res.FailReason = err.Error()
		log.WithError(err).Error("repetition failed")
		return res
	}

	res.Start = cres.Start
	res.Stop = cres.Stop
	res.Samples = cres.Samples
	res.Completed = cres.Completed
	res.Memory = trimMemory(memory, cres.Start)

	log.WithFields(logrus.Fields{
		"completed":  res.Completed,
		"throughput": res.Throughput(),
		"samples":    len(res.Samples),
	}).Info("repetition finished")
	return res
}

// trimMemory drops samples taken before the synchronized start; the sampler
// begins as soon as the run context exists, a little ahead of the barrier.
func trimMemory(samples []MemorySample, start time.Time) []MemorySample {
	kept := samples[:0]
	for _, s := range samples {
		if !s.Timestamp.Before(start) {
			kept = append(kept, s)
		}
	}
	return kept
}
