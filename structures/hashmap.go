package structures

import (
	"sync"
	"sync/atomic"

	"github.com/reclaim-bench/reclaim-bench/reclaim"
)

// numBuckets is fixed; sized for the contention levels the harness sweeps.
const numBuckets = 256

type mapNode struct {
	key   uint64
	value uint64
	next  *mapNode
}

type bucket struct {
	mu   sync.Mutex
	head *mapNode
}

// HashMap is a fixed-bucket concurrent map with one lock per bucket and
// head-inserted chains. Inserts prepend without deduplicating, so a lookup
// observes the most recent insert for a key and a remove unlinks it.
// Removed nodes are retired through the caller's guard.
type HashMap struct {
	buckets [numBuckets]bucket
	size    atomic.Int64
	pool    *pool[mapNode]
}

func NewHashMap() *HashMap {
	return &HashMap{pool: newPool[mapNode]()}
}

// Recycle returns a reclaimed node to the pool.
func (m *HashMap) Recycle(node any) {
	n := node.(*mapNode)
	n.key, n.value, n.next = 0, 0, nil
	m.pool.put(n)
}

// index maps a key to its bucket with Fibonacci hashing.
func (m *HashMap) index(key uint64) uint64 {
	return (key * 0x9E3779B97F4A7C15) >> 56
}

func (m *HashMap) Insert(key, value uint64) {
	n := m.pool.get()
	n.key, n.value = key, value

	b := &m.buckets[m.index(key)]
	b.mu.Lock()
	n.next = b.head
	b.head = n
	b.mu.Unlock()
	m.size.Add(1)
}

func (m *HashMap) Get(key uint64) (uint64, bool) {
	b := &m.buckets[m.index(key)]
	b.mu.Lock()
	defer b.mu.Unlock()
	for n := b.head; n != nil; n = n.next {
		if n.key == key {
			return n.value, true
		}
	}
	return 0, false
}

func (m *HashMap) Remove(g reclaim.Guard, key uint64) (uint64, bool) {
	b := &m.buckets[m.index(key)]
	b.mu.Lock()
	prev := &b.head
	for n := b.head; n != nil; n = n.next {
		if n.key == key {
			*prev = n.next
			v := n.value
			b.mu.Unlock()
			g.Retire(n)
			m.size.Add(-1)
			return v, true
		}
		prev = &n.next
	}
	b.mu.Unlock()
	return 0, false
}

// Len reports the current entry count, counting shadowed duplicates.
func (m *HashMap) Len() int { return int(m.size.Load()) }
