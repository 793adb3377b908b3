// Package fifo provides the first-in first-out work queues used by the
// light, water and mesh schedulers.
package fifo

// Queue is an unbounded FIFO backed by a slice with a moving head.
type Queue[T any] struct {
	items []T
	head  int
}

// Push appends v to the back of the queue.
func (q *Queue[T]) Push(v T) {
	q.items = append(q.items, v)
}

// Pop removes and returns the front of the queue.
func (q *Queue[T]) Pop() (T, bool) {
	var zero T
	if q.head >= len(q.items) {
		return zero, false
	}
	v := q.items[q.head]
	q.items[q.head] = zero
	q.head++

	// Reclaim the consumed prefix once it dominates the backing array.
	if q.head > 64 && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return v, true
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.items) - q.head
}

// Reset drops every queued item.
func (q *Queue[T]) Reset() {
	clear(q.items)
	q.items = q.items[:0]
	q.head = 0
}

// Set is a FIFO that holds each value at most once.
// Pushing a value already queued is a no-op; popping clears its membership.
type Set[T comparable] struct {
	queue Queue[slot[T]]
	// members maps each queued value to the generation of its live slot.
	members map[T]uint64
	gen     uint64
}

type slot[T comparable] struct {
	v   T
	gen uint64
}

// NewSet creates an empty set.
func NewSet[T comparable]() *Set[T] {
	return &Set[T]{members: make(map[T]uint64)}
}

// Push enqueues v unless it is already queued. It reports whether v was added.
func (s *Set[T]) Push(v T) bool {
	if _, ok := s.members[v]; ok {
		return false
	}
	s.gen++
	s.members[v] = s.gen
	s.queue.Push(slot[T]{v, s.gen})
	return true
}

// Pop returns the oldest queued value. Slots left behind by Remove are skipped.
func (s *Set[T]) Pop() (T, bool) {
	for {
		sl, ok := s.queue.Pop()
		if !ok {
			return sl.v, false
		}
		if gen, live := s.members[sl.v]; !live || gen != sl.gen {
			continue
		}
		delete(s.members, sl.v)
		return sl.v, true
	}
}

// Remove drops v from the set. Its queue slot is skipped lazily, so pushing
// v again queues it behind everything already waiting.
func (s *Set[T]) Remove(v T) bool {
	if _, ok := s.members[v]; !ok {
		return false
	}
	delete(s.members, v)
	return true
}

// Contains reports whether v is queued.
func (s *Set[T]) Contains(v T) bool {
	_, ok := s.members[v]
	return ok
}

// Len returns the number of queued values.
func (s *Set[T]) Len() int {
	return len(s.members)
}
