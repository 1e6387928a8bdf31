package structures

import (
	"sync/atomic"

	"github.com/reclaim-bench/reclaim-bench/reclaim"
)

// AtomicQueue is the second queue variant under benchmark. Structurally it
// is the same dummy-headed linked queue as Queue; it differs on the dequeue
// path, reading the value before swinging the head, so a lost CAS costs a
// wasted read instead of a retry after the swing.
type AtomicQueue struct {
	head atomic.Pointer[queueNode]
	tail atomic.Pointer[queueNode]
	size atomic.Int64
	pool *pool[queueNode]
}

func NewAtomicQueue() *AtomicQueue {
	q := &AtomicQueue{pool: newPool[queueNode]()}
	dummy := &queueNode{}
	q.head.Store(dummy)
	q.tail.Store(dummy)
	return q
}

// Recycle returns a reclaimed node to the pool.
func (q *AtomicQueue) Recycle(node any) {
	n := node.(*queueNode)
	n.value = 0
	n.next.Store(nil)
	q.pool.put(n)
}

func (q *AtomicQueue) Enqueue(v uint64) {
	n := q.pool.get()
	n.value = v
	n.next.Store(nil)
	for {
		tail := q.tail.Load()
		next := tail.next.Load()
		if next == nil {
			if tail.next.CompareAndSwap(nil, n) {
				q.tail.CompareAndSwap(tail, n)
				q.size.Add(1)
				return
			}
		} else {
			q.tail.CompareAndSwap(tail, next)
		}
	}
}

func (q *AtomicQueue) Dequeue(g reclaim.Guard) (uint64, bool) {
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		next := head.next.Load()
		if head == tail {
			if next == nil {
				return 0, false
			}
			q.tail.CompareAndSwap(tail, next)
			continue
		}
		if next == nil {
			continue
		}
		v := next.value
		if q.head.CompareAndSwap(head, next) {
			g.Retire(head)
			q.size.Add(-1)
			return v, true
		}
	}
}

// Len reports the current element count.
func (q *AtomicQueue) Len() int { return int(q.size.Load()) }
