// Package queue provides a bounded blocking FIFO built on seq.Sequence.
//
// Producers block in Push while the queue is full and consumers block in Pop
// while it is empty. A single mutex guards the buffer and two conditions
// signal the "not empty" and "not full" transitions.
package queue

import (
	"sync"

	"github.com/kbukum/minispark/seq"
)

// DefaultCapacity is used when a non-positive capacity is requested.
const DefaultCapacity = 1024

// Bounded is a fixed-capacity blocking FIFO. The zero value is not usable;
// construct with New.
type Bounded[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	items    *seq.Sequence[T]
	capacity int
}

// New creates a Bounded queue holding at most capacity items.
func New[T any](capacity int) *Bounded[T] {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	q := &Bounded[T]{
		items:    seq.New[T](capacity),
		capacity: capacity,
	}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// Push appends v, blocking while the queue is full.
func (q *Bounded[T]) Push(v T) {
	q.mu.Lock()
	for q.items.Len() >= q.capacity {
		q.notFull.Wait()
	}
	q.items.Append(v)
	q.mu.Unlock()
	q.notEmpty.Signal()
}

// Pop removes the front item, blocking while the queue is empty.
func (q *Bounded[T]) Pop() T {
	q.mu.Lock()
	for q.items.Len() == 0 {
		q.notEmpty.Wait()
	}
	v, _ := q.items.PopFront()
	q.mu.Unlock()
	q.notFull.Signal()
	return v
}

// Len returns the number of queued items.
func (q *Bounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Cap returns the maximum number of queued items.
func (q *Bounded[T]) Cap() int { return q.capacity }
