package bench

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reclaim-bench/reclaim-bench/reclaim"
)

func smokeGroup() GroupSpec {
	return GroupSpec{
		Name:        "orchestrator_smoke",
		Structures:  []StructureKind{StructHashMap, StructList},
		Schemes:     []reclaim.Kind{reclaim.RefCount, reclaim.Epoch},
		Threads:     []int{1, 2},
		Repetitions: 2,
		Policy:      PolicyDisjoint,
		Seed:        42,
		Workload: WorkloadSpec{
			Mix:      Mix{Insert: 0.5, Remove: 0.2, Lookup: 0.3},
			KeySpace: 1 << 10,
			TotalOps: 2000,
		},
		SampleIntervalMs: 1,
		TailWindowMs:     5,
	}
}

func TestOrchestrator_FullSweep(t *testing.T) {
	g := smokeGroup()
	require.NoError(t, g.Validate())

	o := NewOrchestrator(&g)
	o.SetMemoryQuery(func() (uint64, uint64, error) { return 100, 200, nil })

	results, err := o.Run(context.Background())
	require.NoError(t, err)

	want := len(g.Structures) * len(g.Schemes) * len(g.Threads) * g.Repetitions
	require.Len(t, results, want)

	seen := make(map[string]bool)
	for _, r := range results {
		require.False(t, r.Failed, "repetition failed: %s", r.FailReason)
		assert.Equal(t, g.Workload.TotalOps, r.Completed)
		assert.Len(t, r.Samples, r.Completed)
		assert.Greater(t, r.Throughput(), 0.0)

		key := fmt.Sprintf("%s/%s/%d/%d", r.Config.Structure, r.Config.Scheme, r.Config.Threads, r.Repetition)
		assert.False(t, seen[key], "duplicate result for %s", key)
		seen[key] = true

		for _, m := range r.Memory {
			assert.False(t, m.Timestamp.Before(r.Start), "memory sample before the start barrier survived trimming")
		}
	}
}

func TestOrchestrator_TailWindowSamplesFlagged(t *testing.T) {
	g := smokeGroup()
	g.Structures = []StructureKind{StructHashMap}
	g.Schemes = []reclaim.Kind{reclaim.Deferred}
	g.Threads = []int{2}
	g.Repetitions = 1
	g.TailWindowMs = 20
	require.NoError(t, g.Validate())

	o := NewOrchestrator(&g)
	o.SetMemoryQuery(func() (uint64, uint64, error) { return 1, 1, nil })

	results, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	post := 0
	for _, m := range results[0].Memory {
		if m.PostWindow {
			post++
		}
	}
	assert.Greater(t, post, 0, "tail window produced no post-stop samples")
}

// A dead memory probe degrades the memory series, never the run.
func TestOrchestrator_SamplingFailureDoesNotFailRun(t *testing.T) {
	g := smokeGroup()
	g.Structures = []StructureKind{StructHashMap}
	g.Schemes = []reclaim.Kind{reclaim.RefCount}
	g.Threads = []int{1}
	g.Repetitions = 1
	require.NoError(t, g.Validate())

	o := NewOrchestrator(&g)
	o.SetMemoryQuery(func() (uint64, uint64, error) {
		return 0, 0, fmt.Errorf("probe unavailable")
	})

	results, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Failed)
	assert.Equal(t, g.Workload.TotalOps, results[0].Completed)
	assert.Empty(t, results[0].Memory)
}

func TestOrchestrator_CancelledContextAborts(t *testing.T) {
	g := smokeGroup()
	require.NoError(t, g.Validate())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewOrchestrator(&g)
	o.SetMemoryQuery(func() (uint64, uint64, error) { return 1, 1, nil })

	results, err := o.Run(ctx)
	require.Error(t, err)
	assert.Empty(t, results)
}

// Throughput is recorded for every swept thread count; non-monotonic
// scaling is valid data, so nothing here asserts ordering.
func TestOrchestrator_ThreadSweepRecordsAllPoints(t *testing.T) {
	g := smokeGroup()
	g.Structures = []StructureKind{StructHashMap}
	g.Schemes = []reclaim.Kind{reclaim.Hazard}
	g.Threads = []int{1, 2, 4, 8}
	g.Repetitions = 1
	require.NoError(t, g.Validate())

	o := NewOrchestrator(&g)
	o.SetMemoryQuery(func() (uint64, uint64, error) { return 1, 1, nil })

	results, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 4)

	byThreads := make(map[int]float64)
	for _, r := range results {
		require.False(t, r.Failed)
		byThreads[r.Config.Threads] = r.Throughput()
	}
	for _, n := range g.Threads {
		assert.Greater(t, byThreads[n], 0.0, "no throughput recorded for %d threads", n)
	}
}

// Repetitions share nothing: live-node counts cannot leak from one into
// the next, so the scheme of every finished repetition drains to zero.
func TestOrchestrator_RepetitionIsolation(t *testing.T) {
	g := smokeGroup()
	g.Structures = []StructureKind{StructList}
	g.Schemes = []reclaim.Kind{reclaim.Epoch, reclaim.Deferred}
	g.Threads = []int{2}
	g.Repetitions = 3
	require.NoError(t, g.Validate())

	o := NewOrchestrator(&g)
	o.SetMemoryQuery(func() (uint64, uint64, error) { return 1, 1, nil })

	results, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 6)

	for _, r := range results {
		require.False(t, r.Failed)
		assert.Equal(t, g.Workload.TotalOps, r.Completed)
	}
}
