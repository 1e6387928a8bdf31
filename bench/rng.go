package bench

import (
	"fmt"
	"hash/fnv"
)

// RunKey seeds a reproducible benchmark run. Two runs with the same RunKey
// and configuration replay the same operation sequences, which is what
// makes head-to-head scheme comparisons valid.
type RunKey int64

// workerSubsystem names the seed partition for one worker in one
// repetition. Different repetitions get statistically equivalent but
// distinct streams; the same (repetition, worker) pair always replays
// identically.
func workerSubsystem(repetition, worker int) string {
	return fmt.Sprintf("rep_%d_worker_%d", repetition, worker)
}

// deriveSeed isolates a subsystem's randomness from the master seed so that
// adding a worker or a repetition never perturbs any other stream.
func deriveSeed(key RunKey, subsystem string) int64 {
	return int64(key) ^ fnv1a64(subsystem)
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
