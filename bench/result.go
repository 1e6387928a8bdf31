package bench

import (
	"time"

	"github.com/reclaim-bench/reclaim-bench/reclaim"
)

// SampleRecord is one completed operation's latency sample. Produced once
// per operation, never mutated; its timestamp always falls inside the
// repetition's [start, stop) window.
type SampleRecord struct {
	Timestamp time.Time
	ThreadID  int
	Kind      OperationKind
	LatencyNs int64
}

// MemorySample is one point of the process-memory time series. PostWindow
// marks samples taken after the Done barrier, inside the tail window, where
// deferred reclamation shows up.
type MemorySample struct {
	Timestamp  time.Time
	FreeBytes  uint64
	UsedBytes  uint64
	PostWindow bool
}

// RunConfig names one benchmark configuration. One RunConfig produces
// exactly one RunResult per repetition.
type RunConfig struct {
	Structure   StructureKind
	Scheme      reclaim.Kind
	Threads     int
	Repetitions int
}

// RunResult aggregates everything measured in a single repetition. Owned by
// the orchestrator once collected; serialized once, never mutated after.
type RunResult struct {
	Config     RunConfig
	Repetition int

	Start time.Time
	Stop  time.Time

	Samples   []SampleRecord
	Memory    []MemorySample
	Completed int

	Failed     bool
	FailReason string
}

// Throughput derives ops/sec from the barrier window. Summing per-thread
// rates instead would double-count shared wall time.
func (r *RunResult) Throughput() float64 {
	elapsed := r.Stop.Sub(r.Start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(r.Completed) / elapsed
}
