// Package queue provides an unbounded FIFO hand-off between goroutines.
package queue

import (
	"sync"

	"github.com/gammazero/deque"
)

// Queue is safe for concurrent use. Put never blocks; Get blocks until an
// item is available or the queue is closed and empty.
type Queue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  *deque.Deque[T]
	closed bool
}

func New[T any]() *Queue[T] {
	q := &Queue[T]{items: deque.New[T]()}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Put appends v. It reports false, dropping v, once the queue is closed.
func (q *Queue[T]) Put(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items.PushBack(v)
	q.cond.Signal()
	return true
}

// Get removes and returns the oldest item. ok is false when the queue is
// closed and nothing is left.
func (q *Queue[T]) Get() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.items.Len() == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.items.Len() == 0 {
		return v, false
	}
	return q.items.PopFront(), true
}

// Close stops accepting items. Items already queued can still be taken.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

// Discard drops every queued item and returns how many were dropped.
func (q *Queue[T]) Discard() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.items.Len()
	for q.items.Len() > 0 {
		q.items.PopFront()
	}
	return n
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}
