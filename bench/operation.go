// Package bench is the benchmark harness core: workload generation,
// structure adapters, worker coordination, metrics collection, memory
// sampling, and the run orchestrator that sweeps configurations.
package bench

// OperationKind enumerates the workload operations across all structures.
type OperationKind uint8

const (
	OpInsert OperationKind = iota
	OpRemove
	OpLookup
	OpEnqueue
	OpDequeue
)

func (k OperationKind) String() string {
	switch k {
	case OpInsert:
		return "insert"
	case OpRemove:
		return "remove"
	case OpLookup:
		return "lookup"
	case OpEnqueue:
		return "enqueue"
	case OpDequeue:
		return "dequeue"
	}
	return "unknown"
}

// Operation is one unit of workload. Immutable once generated; owned by its
// stream until a worker consumes it.
type Operation struct {
	Kind  OperationKind
	Key   uint64
	Value uint64
}
