package reclaim

import (
	"sync"
	"sync/atomic"
)

const (
	// epochRingSize is the per-guard staging capacity; overflow spills to
	// the scheme-level limbo.
	epochRingSize = 1024

	// epochAdvanceEvery is the retire cadence at which a guard advances
	// the global epoch and drains its own ring.
	epochAdvanceEvery = 64

	// idleEpoch marks a guard outside any critical section.
	idleEpoch = ^uint64(0)
)

// epochScheme defers reclamation until every worker has observed a global
// epoch newer than the one a node was retired in. Guards publish their
// entry epoch; a node stamped E is safe once the minimum published epoch
// exceeds E. Reclamation therefore trails the workload and completes in the
// tail window, after the last reader goes idle.
type epochScheme struct {
	release Releaser
	global  atomic.Uint64
	live    atomic.Int64

	mu     sync.RWMutex
	guards map[*epochGuard]struct{}

	lmu      sync.Mutex
	overflow []retired
}

func newEpochScheme(release Releaser) *epochScheme {
	s := &epochScheme{
		release: release,
		guards:  make(map[*epochGuard]struct{}),
	}
	s.global.Store(1)
	return s
}

func (s *epochScheme) Name() string { return string(Epoch) }

func (s *epochScheme) AcquireGuard() Guard {
	g := &epochGuard{s: s, ring: newRetireRing(epochRingSize)}
	g.epoch.Store(idleEpoch)
	s.mu.Lock()
	s.guards[g] = struct{}{}
	s.mu.Unlock()
	return g
}

// minReaderEpoch returns the oldest epoch published by an active guard, or
// idleEpoch when every guard is idle.
func (s *epochScheme) minReaderEpoch() uint64 {
	min := uint64(idleEpoch)
	s.mu.RLock()
	for g := range s.guards {
		if e := g.epoch.Load(); e < min {
			min = e
		}
	}
	s.mu.RUnlock()
	return min
}

func (s *epochScheme) advance() { s.global.Add(1) }

// Collect advances the epoch and frees every spilled node no active reader
// can still hold. With all guards idle this drains the limbo completely.
func (s *epochScheme) Collect() {
	s.advance()
	min := s.minReaderEpoch()
	s.lmu.Lock()
	kept := s.overflow[:0]
	for _, r := range s.overflow {
		if r.stamp < min {
			s.release(r.node)
			s.live.Add(-1)
		} else {
			kept = append(kept, r)
		}
	}
	s.overflow = kept
	s.lmu.Unlock()
}

func (s *epochScheme) Live() int64 { return s.live.Load() }

func (s *epochScheme) spill(items []retired) {
	s.lmu.Lock()
	s.overflow = append(s.overflow, items...)
	s.lmu.Unlock()
}

type epochGuard struct {
	s       *epochScheme
	epoch   atomic.Uint64
	ring    *retireRing
	retires uint64
}

func (g *epochGuard) Enter() { g.epoch.Store(g.s.global.Load()) }

func (g *epochGuard) Exit() { g.epoch.Store(idleEpoch) }

func (g *epochGuard) Retire(node any) {
	item := retired{node: node, stamp: g.s.global.Load()}
	if !g.ring.enqueue(item) {
		g.flush()
		g.ring.enqueue(item)
	}
	g.s.live.Add(1)

	g.retires++
	if g.retires%epochAdvanceEvery == 0 {
		g.s.advance()
		g.drain()
	}
}

// drain frees the eligible prefix of the guard's own ring. Stamps are
// monotone per guard, so the first ineligible entry ends the pass.
func (g *epochGuard) drain() {
	min := g.s.minReaderEpoch()
	for {
		item, ok := g.ring.peek()
		if !ok || item.stamp >= min {
			return
		}
		g.ring.dequeue()
		g.s.release(item.node)
		g.s.live.Add(-1)
	}
}

// flush spills the whole ring to the scheme-level limbo.
func (g *epochGuard) flush() {
	items := make([]retired, 0, g.ring.size())
	for {
		item, ok := g.ring.dequeue()
		if !ok {
			break
		}
		items = append(items, item)
	}
	g.s.spill(items)
}

func (g *epochGuard) Release() {
	g.epoch.Store(idleEpoch)
	if g.ring.size() > 0 {
		g.flush()
	}
	g.s.mu.Lock()
	delete(g.s.guards, g)
	g.s.mu.Unlock()
}
