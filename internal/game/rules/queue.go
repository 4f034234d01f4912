package rules

// Queue is a first-in first-out work queue. It performs no locking: a game
// and its queue are owned by a single goroutine.
type Queue[T any] struct {
	items []T
}

// NewQueue creates an empty queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{
		items: make([]T, 0, 16),
	}
}

// Push appends an item at the back.
func (q *Queue[T]) Push(item T) {
	q.items = append(q.items, item)
}

// Extend appends items at the back, preserving their order.
func (q *Queue[T]) Extend(items ...T) {
	q.items = append(q.items, items...)
}

// Pop removes and returns the front item.
func (q *Queue[T]) Pop() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}

// Peek returns the front item without removing it.
func (q *Queue[T]) Peek() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	return q.items[0], true
}

// Len returns the number of pending items.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// IsEmpty returns whether the queue is empty.
func (q *Queue[T]) IsEmpty() bool {
	return len(q.items) == 0
}

// List returns a copy of the pending items, front first.
func (q *Queue[T]) List() []T {
	cpy := make([]T, len(q.items))
	copy(cpy, q.items)
	return cpy
}

// Clone returns an independent queue holding the same items.
func (q *Queue[T]) Clone() *Queue[T] {
	clone := NewQueue[T]()
	clone.items = append(clone.items, q.items...)
	return clone
}
