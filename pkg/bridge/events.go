package bridge

import "sync"

// EventQueue delivers events to a single listener. Events pushed before a
// listener is registered are held in FIFO order and flushed, in order, when
// it registers; afterwards they are delivered directly. Every event is
// delivered exactly once.
type EventQueue[T any] struct {
	mu       sync.Mutex
	deliver  sync.Mutex
	pending  []T
	listener func(T)
}

// Push delivers v to the listener, or queues it if there is none yet.
func (q *EventQueue[T]) Push(v T) {
	q.mu.Lock()
	fn := q.listener
	if fn == nil {
		q.pending = append(q.pending, v)
		q.mu.Unlock()
		return
	}
	q.mu.Unlock()

	q.deliver.Lock()
	defer q.deliver.Unlock()
	fn(v)
}

// Listen registers fn and flushes any queued events to it. A later call
// replaces the listener; queued events are only flushed once.
func (q *EventQueue[T]) Listen(fn func(T)) {
	q.deliver.Lock()
	defer q.deliver.Unlock()

	q.mu.Lock()
	q.listener = fn
	queued := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, v := range queued {
		fn(v)
	}
}

// Len returns the number of queued events.
func (q *EventQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
