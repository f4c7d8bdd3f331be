package sequence

import "sync"

// Queue is a bounded, mutex-guarded FIFO. Any number of producers may Push;
// a single consumer takes everything queued so far with Drain.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	limit int
}

// NewQueue returns a queue holding at most limit items. A limit of zero or
// less means unbounded.
func NewQueue[T any](limit int) *Queue[T] {
	return &Queue[T]{limit: limit}
}

// Push appends v. It reports false, leaving the queue unchanged, when the
// queue is full.
func (q *Queue[T]) Push(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.limit > 0 && len(q.items) >= q.limit {
		return false
	}
	q.items = append(q.items, v)
	return true
}

// Drain removes and returns every queued item in arrival order.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
