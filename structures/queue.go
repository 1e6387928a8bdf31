package structures

import (
	"sync/atomic"

	"github.com/reclaim-bench/reclaim-bench/reclaim"
)

// queueNode is a Michael–Scott queue link. A node with no predecessor is
// the dummy.
type queueNode struct {
	value uint64
	next  atomic.Pointer[queueNode]
}

// Queue is an unbounded lock-free FIFO queue. A dequeued link node is
// retired through the caller's reclamation guard; it returns to the queue's
// pool only when the bound scheme decides it is safe.
type Queue struct {
	head atomic.Pointer[queueNode]
	tail atomic.Pointer[queueNode]
	size atomic.Int64
	pool *pool[queueNode]
}

func NewQueue() *Queue {
	q := &Queue{pool: newPool[queueNode]()}
	dummy := &queueNode{}
	q.head.Store(dummy)
	q.tail.Store(dummy)
	return q
}

// Recycle returns a reclaimed node to the pool. It is handed to the
// reclamation scheme as its release hook.
func (q *Queue) Recycle(node any) {
	n := node.(*queueNode)
	n.value = 0
	n.next.Store(nil)
	q.pool.put(n)
}

func (q *Queue) Enqueue(v uint64) {
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
			// Help a stalled enqueuer swing the tail forward.
			q.tail.CompareAndSwap(tail, next)
		}
	}
}

func (q *Queue) Dequeue(g reclaim.Guard) (uint64, bool) {
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
		if q.head.CompareAndSwap(head, next) {
			v := next.value
			g.Retire(head)
			q.size.Add(-1)
			return v, true
		}
	}
}

// Len reports the current element count.
func (q *Queue) Len() int { return int(q.size.Load()) }
