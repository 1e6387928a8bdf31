package reclaim

import "sync/atomic"

// retired is a node staged for reclamation, stamped with the global epoch
// or era current at retirement time.
type retired struct {
	node  any
	stamp uint64
}

// retireRing is a single-producer single-consumer ring staging retired
// nodes between a worker and the reclaimer. The producer is always the
// owning worker; the consumer is either the owner itself (amortized
// collection during Retire) or the harness after all workers have joined,
// never both at once.
type retireRing struct {
	head atomic.Uint64
	_    [56]byte
	tail atomic.Uint64
	_    [56]byte
	buf  []retired
	mask uint64
}

// newRetireRing allocates a ring with power-of-two capacity.
func newRetireRing(pow2 uint64) *retireRing {
	return &retireRing{buf: make([]retired, pow2), mask: pow2 - 1}
}

// enqueue adds an element; returns false if the ring is full.
func (r *retireRing) enqueue(item retired) bool {
	h := r.head.Load()
	t := r.tail.Load()
	if h-t == uint64(len(r.buf)) {
		return false
	}
	r.buf[h&r.mask] = item
	r.head.Store(h + 1)
	return true
}

// peek returns the oldest element without removing it.
func (r *retireRing) peek() (retired, bool) {
	t := r.tail.Load()
	if t == r.head.Load() {
		return retired{}, false
	}
	return r.buf[t&r.mask], true
}

// dequeue removes the oldest element; ok is false when empty.
func (r *retireRing) dequeue() (retired, bool) {
	t := r.tail.Load()
	if t == r.head.Load() {
		return retired{}, false
	}
	item := r.buf[t&r.mask]
	r.buf[t&r.mask] = retired{}
	r.tail.Store(t + 1)
	return item, true
}

func (r *retireRing) size() int {
	return int(r.head.Load() - r.tail.Load())
}
