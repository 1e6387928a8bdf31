package reclaim

import (
	"sync"
	"sync/atomic"
)

// deferredBatchSize is the number of retirements collected before a batch
// is sealed against the active-guard snapshot.
const deferredBatchSize = 32

// deferredScheme is a generalized batch-deferred scheme: retirements
// accumulate into fixed-size batches, a full batch is sealed with a
// snapshot of the guards active at that moment, and the batch is released
// once every snapshot guard has exited its critical section. Unlike the
// epoch scheme there is no global counter to stall on; progress is driven
// purely by the snapshot guards draining.
type deferredScheme struct {
	release Releaser
	live    atomic.Int64
	sealed  atomic.Int64 // batches awaiting snapshot guards

	mu      sync.Mutex
	guards  map[*deferredGuard]struct{}
	batch   []any
	pending []*deferredBatch
}

type deferredBatch struct {
	nodes []any
	waits map[*deferredGuard]struct{}
}

func newDeferredScheme(release Releaser) *deferredScheme {
	return &deferredScheme{
		release: release,
		guards:  make(map[*deferredGuard]struct{}),
	}
}

func (s *deferredScheme) Name() string { return string(Deferred) }

func (s *deferredScheme) AcquireGuard() Guard {
	g := &deferredGuard{s: s}
	s.mu.Lock()
	s.guards[g] = struct{}{}
	s.mu.Unlock()
	return g
}

func (s *deferredScheme) Live() int64 { return s.live.Load() }

// Collect seals whatever is batching and frees every pending batch whose
// snapshot guards have all gone inactive.
func (s *deferredScheme) Collect() {
	s.mu.Lock()
	if len(s.batch) > 0 {
		s.sealLocked()
	}
	kept := s.pending[:0]
	for _, b := range s.pending {
		for g := range b.waits {
			if !g.active.Load() {
				delete(b.waits, g)
			}
		}
		if len(b.waits) == 0 {
			s.releaseBatchLocked(b)
		} else {
			kept = append(kept, b)
		}
	}
	s.pending = kept
	s.sealed.Store(int64(len(kept)))
	s.mu.Unlock()
}

// sealLocked snapshots the currently active guards and parks the batch; a
// batch sealed with no active guards is freed on the spot.
func (s *deferredScheme) sealLocked() {
	waits := make(map[*deferredGuard]struct{})
	for g := range s.guards {
		if g.active.Load() {
			waits[g] = struct{}{}
		}
	}
	b := &deferredBatch{nodes: s.batch, waits: waits}
	s.batch = nil
	if len(waits) == 0 {
		s.releaseBatchLocked(b)
		return
	}
	s.pending = append(s.pending, b)
	s.sealed.Add(1)
}

func (s *deferredScheme) releaseBatchLocked(b *deferredBatch) {
	for _, n := range b.nodes {
		s.release(n)
	}
	s.live.Add(-int64(len(b.nodes)))
	b.nodes = nil
}

// ack removes g from every pending batch and frees the ones it was the last
// holdout for.
func (s *deferredScheme) ack(g *deferredGuard) {
	s.mu.Lock()
	kept := s.pending[:0]
	for _, b := range s.pending {
		delete(b.waits, g)
		if len(b.waits) == 0 {
			s.releaseBatchLocked(b)
			s.sealed.Add(-1)
		} else {
			kept = append(kept, b)
		}
	}
	s.pending = kept
	s.mu.Unlock()
}

type deferredGuard struct {
	s      *deferredScheme
	active atomic.Bool
}

func (g *deferredGuard) Enter() { g.active.Store(true) }

func (g *deferredGuard) Exit() {
	g.active.Store(false)
	// Fast path: nothing sealed, nothing to ack.
	if g.s.sealed.Load() > 0 {
		g.s.ack(g)
	}
}

func (g *deferredGuard) Retire(node any) {
	s := g.s
	s.live.Add(1)
	s.mu.Lock()
	s.batch = append(s.batch, node)
	if len(s.batch) >= deferredBatchSize {
		s.sealLocked()
	}
	s.mu.Unlock()
}

func (g *deferredGuard) Release() {
	g.active.Store(false)
	g.s.ack(g)
	g.s.mu.Lock()
	delete(g.s.guards, g)
	g.s.mu.Unlock()
}
