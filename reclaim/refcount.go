package reclaim

import "sync/atomic"

// refCountScheme models reference-counted ownership: the worker that
// removes a node drops its last reference, so the node is released
// immediately on retire. It is the no-deferral baseline the deferred
// schemes are compared against, and it sits behind the same capability set
// as the rest; the harness never special-cases it.
type refCountScheme struct {
	release Releaser
	pinned  atomic.Int64
	retired atomic.Int64
}

func newRefCountScheme(release Releaser) *refCountScheme {
	return &refCountScheme{release: release}
}

func (s *refCountScheme) Name() string { return string(RefCount) }

func (s *refCountScheme) AcquireGuard() Guard { return &refCountGuard{s: s} }

func (s *refCountScheme) Collect() {}

func (s *refCountScheme) Live() int64 { return 0 }

// Retired reports how many nodes have passed through the scheme.
func (s *refCountScheme) Retired() int64 { return s.retired.Load() }

type refCountGuard struct {
	s *refCountScheme
}

func (g *refCountGuard) Enter() { g.s.pinned.Add(1) }

func (g *refCountGuard) Exit() { g.s.pinned.Add(-1) }

func (g *refCountGuard) Retire(node any) {
	g.s.retired.Add(1)
	g.s.release(node)
}

func (g *refCountGuard) Release() {}
