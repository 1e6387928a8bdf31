package bench

import (
	"fmt"

	"github.com/reclaim-bench/reclaim-bench/reclaim"
	"github.com/reclaim-bench/reclaim-bench/structures"
)

// StructureKind identifies a data structure under benchmark.
type StructureKind string

const (
	StructQueue       StructureKind = "queue"
	StructAtomicQueue StructureKind = "atomic_queue"
	StructHashMap     StructureKind = "hashmap"
	StructList        StructureKind = "list"
)

// StructureKinds returns all structure kinds in a stable order.
func StructureKinds() []StructureKind {
	return []StructureKind{StructQueue, StructAtomicQueue, StructHashMap, StructList}
}

// Valid reports whether k names a known structure.
func (k StructureKind) Valid() bool {
	switch k {
	case StructQueue, StructAtomicQueue, StructHashMap, StructList:
		return true
	}
	return false
}

// IsQueue reports whether the structure takes enqueue/dequeue operations
// instead of keyed ones.
func (k StructureKind) IsQueue() bool {
	return k == StructQueue || k == StructAtomicQueue
}

// Outcome is the structure-independent result of applying an operation.
type Outcome uint8

const (
	OutcomeOK Outcome = iota
	OutcomeNotFound
	OutcomeEmpty
	// OutcomeInvalid flags an operation kind the structure cannot take;
	// group validation rules these out before any worker spawns.
	OutcomeInvalid
)

// Adapter normalizes one (structure × scheme) pairing behind a single
// apply capability. Apply brackets every operation with the bound scheme's
// critical section; removals retire through the scheme and are never freed
// directly, so identical operation semantics run against divergent
// memory-lifecycle behavior.
type Adapter interface {
	// AcquireGuard returns a per-worker handle into the bound scheme.
	AcquireGuard() reclaim.Guard

	// Apply executes op inside g's critical section.
	Apply(g reclaim.Guard, op Operation) Outcome

	// Scheme exposes the bound scheme for post-run collection.
	Scheme() reclaim.Scheme

	// Len reports entries currently live in the structure.
	Len() int
}

// NewAdapter builds a fresh structure instance bound to a fresh scheme
// instance. Nothing is shared with any previously built adapter, which is
// what isolates repetitions from each other.
func NewAdapter(structure StructureKind, scheme reclaim.Kind) (Adapter, error) {
	switch structure {
	case StructQueue:
		q := structures.NewQueue()
		s, err := reclaim.New(scheme, q.Recycle)
		if err != nil {
			return nil, err
		}
		return &queueAdapter{q: q, scheme: s}, nil
	case StructAtomicQueue:
		q := structures.NewAtomicQueue()
		s, err := reclaim.New(scheme, q.Recycle)
		if err != nil {
			return nil, err
		}
		return &atomicQueueAdapter{q: q, scheme: s}, nil
	case StructHashMap:
		m := structures.NewHashMap()
		s, err := reclaim.New(scheme, m.Recycle)
		if err != nil {
			return nil, err
		}
		return &hashMapAdapter{m: m, scheme: s}, nil
	case StructList:
		l := structures.NewList()
		s, err := reclaim.New(scheme, l.Recycle)
		if err != nil {
			return nil, err
		}
		return &listAdapter{l: l, scheme: s}, nil
	default:
		return nil, fmt.Errorf("unknown data structure %q", structure)
	}
}

type queueAdapter struct {
	q      *structures.Queue
	scheme reclaim.Scheme
}

func (a *queueAdapter) AcquireGuard() reclaim.Guard { return a.scheme.AcquireGuard() }
func (a *queueAdapter) Scheme() reclaim.Scheme      { return a.scheme }
func (a *queueAdapter) Len() int                    { return a.q.Len() }

func (a *queueAdapter) Apply(g reclaim.Guard, op Operation) Outcome {
	g.Enter()
	defer g.Exit()
	switch op.Kind {
	case OpEnqueue:
		a.q.Enqueue(op.Value)
		return OutcomeOK
	case OpDequeue:
		if _, ok := a.q.Dequeue(g); !ok {
			return OutcomeEmpty
		}
		return OutcomeOK
	default:
		return OutcomeInvalid
	}
}

type atomicQueueAdapter struct {
	q      *structures.AtomicQueue
	scheme reclaim.Scheme
}

func (a *atomicQueueAdapter) AcquireGuard() reclaim.Guard { return a.scheme.AcquireGuard() }
func (a *atomicQueueAdapter) Scheme() reclaim.Scheme      { return a.scheme }
func (a *atomicQueueAdapter) Len() int                    { return a.q.Len() }

func (a *atomicQueueAdapter) Apply(g reclaim.Guard, op Operation) Outcome {
	g.Enter()
	defer g.Exit()
	switch op.Kind {
	case OpEnqueue:
		a.q.Enqueue(op.Value)
		return OutcomeOK
	case OpDequeue:
		if _, ok := a.q.Dequeue(g); !ok {
			return OutcomeEmpty
		}
		return OutcomeOK
	default:
		return OutcomeInvalid
	}
}

type hashMapAdapter struct {
	m      *structures.HashMap
	scheme reclaim.Scheme
}

func (a *hashMapAdapter) AcquireGuard() reclaim.Guard { return a.scheme.AcquireGuard() }
func (a *hashMapAdapter) Scheme() reclaim.Scheme      { return a.scheme }
func (a *hashMapAdapter) Len() int                    { return a.m.Len() }

func (a *hashMapAdapter) Apply(g reclaim.Guard, op Operation) Outcome {
	g.Enter()
	defer g.Exit()
	switch op.Kind {
	case OpInsert:
		a.m.Insert(op.Key, op.Value)
		return OutcomeOK
	case OpLookup:
		if _, ok := a.m.Get(op.Key); !ok {
			return OutcomeNotFound
		}
		return OutcomeOK
	case OpRemove:
		if _, ok := a.m.Remove(g, op.Key); !ok {
			return OutcomeNotFound
		}
		return OutcomeOK
	default:
		return OutcomeInvalid
	}
}

type listAdapter struct {
	l      *structures.List
	scheme reclaim.Scheme
}

func (a *listAdapter) AcquireGuard() reclaim.Guard { return a.scheme.AcquireGuard() }
func (a *listAdapter) Scheme() reclaim.Scheme      { return a.scheme }
func (a *listAdapter) Len() int                    { return a.l.Len() }

func (a *listAdapter) Apply(g reclaim.Guard, op Operation) Outcome {
	g.Enter()
	defer g.Exit()
	switch op.Kind {
	case OpInsert:
		a.l.Insert(op.Key, op.Value)
		return OutcomeOK
	case OpLookup:
		if _, ok := a.l.Lookup(op.Key); !ok {
			return OutcomeNotFound
		}
		return OutcomeOK
	case OpRemove:
		if _, ok := a.l.Remove(g, op.Key); !ok {
			return OutcomeNotFound
		}
		return OutcomeOK
	default:
		return OutcomeInvalid
	}
}
