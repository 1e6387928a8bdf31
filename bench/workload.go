package bench

import (
	"fmt"
	"math"
	"math/rand"
)

// ratioTolerance is the slack allowed when checking that mix ratios sum
// to 1.0.
const ratioTolerance = 1e-9

// Mix holds the operation ratios of a workload. Ratios must be
// non-negative and sum to 1.0. A workload mixes either keyed operations
// (insert/remove/lookup) or queue operations (enqueue/dequeue), never both.
type Mix struct {
	Insert  float64 `yaml:"insert"`
	Remove  float64 `yaml:"remove"`
	Lookup  float64 `yaml:"lookup"`
	Enqueue float64 `yaml:"enqueue"`
	Dequeue float64 `yaml:"dequeue"`
}

func (m Mix) sum() float64 {
	return m.Insert + m.Remove + m.Lookup + m.Enqueue + m.Dequeue
}

// keyed reports the combined weight of keyed operations.
func (m Mix) keyed() float64 { return m.Insert + m.Remove + m.Lookup }

// queued reports the combined weight of queue operations.
func (m Mix) queued() float64 { return m.Enqueue + m.Dequeue }

// WorkloadSpec describes one workload shape: the operation mix, the key
// space, and the total operation count split across workers. Immutable
// after Validate passes.
type WorkloadSpec struct {
	Mix      Mix    `yaml:"mix"`
	KeySpace uint64 `yaml:"key_space"`
	TotalOps int    `yaml:"total_ops"`
}

func (s *WorkloadSpec) Validate() error {
	if s.KeySpace == 0 {
		return fmt.Errorf("workload: key space must be positive")
	}
	if s.TotalOps <= 0 {
		return fmt.Errorf("workload: total operation count must be positive, got %d", s.TotalOps)
	}
	for _, r := range []float64{s.Mix.Insert, s.Mix.Remove, s.Mix.Lookup, s.Mix.Enqueue, s.Mix.Dequeue} {
		if r < 0 {
			return fmt.Errorf("workload: negative operation ratio %v", r)
		}
	}
	if sum := s.Mix.sum(); math.Abs(sum-1.0) > ratioTolerance {
		return fmt.Errorf("workload: operation ratios sum to %v, want 1.0", sum)
	}
	if s.Mix.keyed() > 0 && s.Mix.queued() > 0 {
		return fmt.Errorf("workload: mix combines keyed and queue operations")
	}
	return nil
}

// opWeights pairs each kind with its ratio, in emission-threshold order.
var opKinds = [...]OperationKind{OpInsert, OpRemove, OpLookup, OpEnqueue, OpDequeue}

// OpStream is one worker's finite, restartable, lazy operation sequence.
// The same parameters always replay the same operations: Reset rewinds the
// stream to its first element.
type OpStream struct {
	seed       int64
	keyLo      uint64
	keySpan    uint64
	count      int
	thresholds [len(opKinds)]float64

	rng     *rand.Rand
	emitted int
}

// Stream derives a worker's stream from the spec. keyLo and keySpan bound
// the worker's key partition; count is its share of the total operation
// count. The spec must already be validated.
func (s *WorkloadSpec) Stream(seed int64, keyLo, keySpan uint64, count int) *OpStream {
	st := &OpStream{seed: seed, keyLo: keyLo, keySpan: keySpan, count: count}
	ratios := [...]float64{s.Mix.Insert, s.Mix.Remove, s.Mix.Lookup, s.Mix.Enqueue, s.Mix.Dequeue}
	acc := 0.0
	for i, r := range ratios {
		acc += r
		st.thresholds[i] = acc
	}
	st.Reset()
	return st
}

// Reset rewinds the stream so the identical sequence replays.
func (st *OpStream) Reset() {
	st.rng = rand.New(rand.NewSource(st.seed))
	st.emitted = 0
}

// Count reports the stream's total length.
func (st *OpStream) Count() int { return st.count }

// Next produces the next operation; ok is false once the stream is
// exhausted.
func (st *OpStream) Next() (Operation, bool) {
	if st.emitted >= st.count {
		return Operation{}, false
	}
	st.emitted++

	u := st.rng.Float64()
	kind := opKinds[len(opKinds)-1]
	for i, th := range st.thresholds {
		if u < th {
			kind = opKinds[i]
			break
		}
	}

	op := Operation{Kind: kind}
	switch kind {
	case OpInsert:
		op.Key = st.randomKey()
		op.Value = st.rng.Uint64()
	case OpRemove, OpLookup:
		op.Key = st.randomKey()
	case OpEnqueue:
		op.Value = st.rng.Uint64()
	case OpDequeue:
	}
	return op, true
}

func (st *OpStream) randomKey() uint64 {
	if st.keySpan <= 1 {
		return st.keyLo
	}
	return st.keyLo + uint64(st.rng.Int63n(int64(st.keySpan)))
}
