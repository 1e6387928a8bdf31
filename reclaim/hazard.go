package reclaim

import (
	"sync"
	"sync/atomic"
)

// hazardScanThreshold is the limbo length at which a guard scans published
// markers and frees what nothing can still reach.
const hazardScanThreshold = 64

// hazardScheme implements hazard-pointer reclamation with published era
// markers. Entering a critical section publishes the current era; a node
// retired at era E may be released only when every published era is newer
// than E, since an older marker may predate the node's removal and still
// hold a reference to it.
type hazardScheme struct {
	release Releaser
	era     atomic.Uint64
	live    atomic.Int64

	mu     sync.RWMutex
	guards map[*hazardGuard]struct{}

	lmu   sync.Mutex
	limbo []retired // handed over by released guards
}

func newHazardScheme(release Releaser) *hazardScheme {
	s := &hazardScheme{
		release: release,
		guards:  make(map[*hazardGuard]struct{}),
	}
	s.era.Store(1)
	return s
}

func (s *hazardScheme) Name() string { return string(Hazard) }

func (s *hazardScheme) AcquireGuard() Guard {
	g := &hazardGuard{s: s}
	s.mu.Lock()
	s.guards[g] = struct{}{}
	s.mu.Unlock()
	return g
}

// minEra returns the oldest era still published by any guard, or the
// maximum value when no guard is inside a critical section.
func (s *hazardScheme) minEra() uint64 {
	min := ^uint64(0)
	s.mu.RLock()
	for g := range s.guards {
		if e := g.era.Load(); e != 0 && e < min {
			min = e
		}
	}
	s.mu.RUnlock()
	return min
}

// Collect frees everything in the handed-over limbo that no published era
// can still reach.
func (s *hazardScheme) Collect() {
	min := s.minEra()
	s.lmu.Lock()
	kept := s.limbo[:0]
	for _, r := range s.limbo {
		if r.stamp < min {
			s.release(r.node)
			s.live.Add(-1)
		} else {
			kept = append(kept, r)
		}
	}
	s.limbo = kept
	s.lmu.Unlock()
}

func (s *hazardScheme) Live() int64 { return s.live.Load() }

type hazardGuard struct {
	s     *hazardScheme
	era   atomic.Uint64 // 0 = outside any critical section
	limbo []retired
}

func (g *hazardGuard) Enter() { g.era.Store(g.s.era.Load()) }

func (g *hazardGuard) Exit() { g.era.Store(0) }

func (g *hazardGuard) Retire(node any) {
	// Stamp with the era current at removal, then bump so later entrants
	// publish strictly newer markers.
	stamp := g.s.era.Add(1) - 1
	g.limbo = append(g.limbo, retired{node: node, stamp: stamp})
	g.s.live.Add(1)
	if len(g.limbo) >= hazardScanThreshold {
		g.scan()
	}
}

// scan releases every limbo node whose retirement era is older than all
// published markers. The guard's own marker counts: nodes it retired inside
// the current critical section stay parked until a later one.
func (g *hazardGuard) scan() {
	min := g.s.minEra()
	kept := g.limbo[:0]
	for _, r := range g.limbo {
		if r.stamp < min {
			g.s.release(r.node)
			g.s.live.Add(-1)
		} else {
			kept = append(kept, r)
		}
	}
	g.limbo = kept
}

func (g *hazardGuard) Release() {
	g.era.Store(0)
	if len(g.limbo) > 0 {
		g.s.lmu.Lock()
		g.s.limbo = append(g.s.limbo, g.limbo...)
		g.s.lmu.Unlock()
		g.limbo = nil
	}
	g.s.mu.Lock()
	delete(g.s.guards, g)
	g.s.mu.Unlock()
}
