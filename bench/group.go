package bench

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/reclaim-bench/reclaim-bench/reclaim"
)

// GroupSpec configures one benchmark group: the sweep axes (structures,
// schemes, thread counts, repetitions) plus the shared workload shape and
// sampling knobs. Loaded from YAML with strict key checking so a typo is a
// configuration error, not a silently ignored field.
type GroupSpec struct {
	Name        string          `yaml:"name"`
	Structures  []StructureKind `yaml:"structures"`
	Schemes     []reclaim.Kind  `yaml:"schemes"`
	Threads     []int           `yaml:"threads"`
	Repetitions int             `yaml:"repetitions"`
	Policy      Policy          `yaml:"policy"`
	Seed        int64           `yaml:"seed"`
	Workload    WorkloadSpec    `yaml:"workload"`

	SampleIntervalMs int64 `yaml:"sample_interval_ms"`
	TailWindowMs     int64 `yaml:"tail_window_ms"`
	TimeoutMs        int64 `yaml:"timeout_ms"`
}

// LoadGroupSpec reads and validates a benchmark group file.
func LoadGroupSpec(path string) (*GroupSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read group spec: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var spec GroupSpec
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parse group spec %s: %w", path, err)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("group spec %s: %w", path, err)
	}
	return &spec, nil
}

// Validate checks the whole group before anything spawns; a failure here
// writes no partial results.
func (g *GroupSpec) Validate() error {
	if g.Name == "" {
		return fmt.Errorf("group: name is required")
	}
	if len(g.Structures) == 0 {
		return fmt.Errorf("group: no structures configured")
	}
	for _, s := range g.Structures {
		if !s.Valid() {
			return fmt.Errorf("group: unknown structure %q", s)
		}
	}
	if len(g.Schemes) == 0 {
		return fmt.Errorf("group: no reclamation schemes configured")
	}
	for _, s := range g.Schemes {
		if !s.Valid() {
			return fmt.Errorf("group: unknown reclamation scheme %q", s)
		}
	}
	if len(g.Threads) == 0 {
		return fmt.Errorf("group: empty thread-count sweep")
	}
	for _, t := range g.Threads {
		if t < 1 {
			return fmt.Errorf("group: thread count must be at least 1, got %d", t)
		}
	}
	if g.Repetitions < 1 {
		return fmt.Errorf("group: repetitions must be at least 1, got %d", g.Repetitions)
	}
	if g.Policy == "" {
		g.Policy = PolicyDisjoint
	}
	if !g.Policy.Valid() {
		return fmt.Errorf("group: unknown partitioning policy %q", g.Policy)
	}
	if err := g.Workload.Validate(); err != nil {
		return err
	}
	for _, s := range g.Structures {
		if s.IsQueue() && g.Workload.Mix.queued() == 0 {
			return fmt.Errorf("group: structure %q needs enqueue/dequeue operations in the mix", s)
		}
		if !s.IsQueue() && g.Workload.Mix.keyed() == 0 {
			return fmt.Errorf("group: structure %q needs insert/remove/lookup operations in the mix", s)
		}
	}
	return nil
}

// SampleInterval returns the memory-sampling cadence.
func (g *GroupSpec) SampleInterval() time.Duration {
	return time.Duration(g.SampleIntervalMs) * time.Millisecond
}

// TailWindow returns the post-stop sampling window.
func (g *GroupSpec) TailWindow() time.Duration {
	return time.Duration(g.TailWindowMs) * time.Millisecond
}

// RunTimeout returns the per-repetition deadline; zero disables it.
func (g *GroupSpec) RunTimeout() time.Duration {
	return time.Duration(g.TimeoutMs) * time.Millisecond
}

// streams builds one operation stream per worker for one repetition. Under
// the disjoint policy each worker owns a private key subrange, the last
// worker absorbing any rounding remainder; under shared, every worker sees
// the full key space. Operation counts split the total evenly, remainder to
// the lowest-numbered workers, so the sum is always exactly TotalOps.
func (g *GroupSpec) streams(repetition, workers int) []*OpStream {
	out := make([]*OpStream, workers)
	base := g.Workload.TotalOps / workers
	rem := g.Workload.TotalOps % workers
	span := g.Workload.KeySpace / uint64(workers)

	for i := 0; i < workers; i++ {
		count := base
		if i < rem {
			count++
		}
		lo, sp := uint64(0), g.Workload.KeySpace
		if g.Policy == PolicyDisjoint {
			lo = uint64(i) * span
			sp = span
			if i == workers-1 {
				sp = g.Workload.KeySpace - lo
			}
		}
		if sp == 0 {
			sp = 1
		}
		seed := deriveSeed(RunKey(g.Seed), workerSubsystem(repetition, i))
		out[i] = g.Workload.Stream(seed, lo, sp, count)
	}
	return out
}
