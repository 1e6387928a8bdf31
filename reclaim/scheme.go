// Package reclaim provides the memory-reclamation schemes the benchmark
// harness drives. Every scheme exposes the same capability set (enter and
// exit a critical section, retire a removed node) so callers never depend
// on scheme internals. Reclaimed nodes are handed back through a Releaser,
// typically a structure's node pool, which is how divergent reclamation
// timing becomes visible in the memory footprint.
package reclaim

import "fmt"

// Kind identifies a reclamation scheme.
type Kind string

const (
	RefCount Kind = "refcount"
	Hazard   Kind = "hazard"
	Epoch    Kind = "epoch"
	Deferred Kind = "deferred"
)

// Kinds returns every scheme kind in a stable order.
func Kinds() []Kind {
	return []Kind{RefCount, Hazard, Epoch, Deferred}
}

// Valid reports whether k names a known scheme.
func (k Kind) Valid() bool {
	switch k {
	case RefCount, Hazard, Epoch, Deferred:
		return true
	}
	return false
}

// Releaser receives every reclaimed node exactly once.
type Releaser func(node any)

// Guard is a per-worker handle into a scheme. A Guard is not safe for
// concurrent use; each worker goroutine acquires its own and returns it
// with Release when done.
type Guard interface {
	// Enter marks the start of a critical section during which the worker
	// may hold references into the structure.
	Enter()

	// Exit marks the end of the critical section.
	Exit()

	// Retire hands a removed node to the scheme. The scheme alone decides
	// when the node is actually released.
	Retire(node any)

	// Release returns the handle to the scheme. Any nodes still parked on
	// the guard move to the scheme for later collection. The guard must
	// not be used afterwards.
	Release()
}

// Scheme is one reclamation strategy instance. A Scheme is bound to exactly
// one structure instance for the lifetime of a benchmark repetition and is
// discarded with it.
type Scheme interface {
	Name() string

	// AcquireGuard returns a fresh per-worker handle.
	AcquireGuard() Guard

	// Collect performs a reclamation step outside any critical section.
	// The harness calls it after the workers stop and again at the end of
	// the tail window so deferred schemes drain.
	Collect()

	// Live reports the number of retired-but-unreclaimed nodes.
	Live() int64
}

// New constructs a fresh scheme instance of the given kind.
func New(kind Kind, release Releaser) (Scheme, error) {
	switch kind {
	case RefCount:
		return newRefCountScheme(release), nil
	case Hazard:
		return newHazardScheme(release), nil
	case Epoch:
		return newEpochScheme(release), nil
	case Deferred:
		return newDeferredScheme(release), nil
	default:
		return nil, fmt.Errorf("unknown reclamation scheme %q", kind)
	}
}
