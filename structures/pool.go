// Package structures provides the four concurrent data structures under
// benchmark: two lock-free queues, a bucketed hash map, and a sorted linked
// list. Every structure recycles its link nodes through a pool, and removed
// nodes reach that pool only by way of the reclamation scheme bound to the
// run; the structures themselves never free anything.
package structures

import "sync"

// pool wraps sync.Pool for one concrete node type.
type pool[T any] struct {
	p sync.Pool
}

func newPool[T any]() *pool[T] {
	return &pool[T]{p: sync.Pool{New: func() any { return new(T) }}}
}

func (p *pool[T]) get() *T { return p.p.Get().(*T) }

func (p *pool[T]) put(n *T) { p.p.Put(n) }
