package structures

import (
	"sync"
	"sync/atomic"

	"github.com/reclaim-bench/reclaim-bench/reclaim"
)

type listNode struct {
	key   uint64
	value uint64
	next  *listNode
}

// List is a key-ordered singly linked list behind a single lock, the
// highest-contention structure in the suite. Removed nodes are retired
// through the caller's guard.
type List struct {
	mu   sync.Mutex
	head *listNode
	size atomic.Int64
	pool *pool[listNode]
}

func NewList() *List {
	return &List{pool: newPool[listNode]()}
}

// Recycle returns a reclaimed node to the pool.
func (l *List) Recycle(node any) {
	n := node.(*listNode)
	n.key, n.value, n.next = 0, 0, nil
	l.pool.put(n)
}

// Insert places the pair at its sorted position. Duplicate keys are kept;
// the newest lands first and is the one Lookup and Remove find.
func (l *List) Insert(key, value uint64) {
	n := l.pool.get()
	n.key, n.value = key, value

	l.mu.Lock()
	prev := &l.head
	for cur := l.head; cur != nil && cur.key < key; cur = cur.next {
		prev = &cur.next
	}
	n.next = *prev
	*prev = n
	l.mu.Unlock()
	l.size.Add(1)
}

func (l *List) Lookup(key uint64) (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for cur := l.head; cur != nil && cur.key <= key; cur = cur.next {
		if cur.key == key {
			return cur.value, true
		}
	}
	return 0, false
}

func (l *List) Remove(g reclaim.Guard, key uint64) (uint64, bool) {
	l.mu.Lock()
	prev := &l.head
	for cur := l.head; cur != nil && cur.key <= key; cur = cur.next {
		if cur.key == key {
			*prev = cur.next
			v := cur.value
			l.mu.Unlock()
			g.Retire(cur)
			l.size.Add(-1)
			return v, true
		}
		prev = &cur.next
	}
	l.mu.Unlock()
	return 0, false
}

// Len reports the current element count.
func (l *List) Len() int { return int(l.size.Load()) }
