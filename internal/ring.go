package internal

import (
	"iter"
)

// Ring is a bounded FIFO that drops its oldest entry when full.
type Ring[T any] struct {
	data  []T
	start int
	count int
}

// NewRing creates a ring holding at most depth entries.
func NewRing[T any](depth int) *Ring[T] {
	if depth < 1 {
		depth = 1
	}
	return &Ring[T]{data: make([]T, depth)}
}

// Push appends a value, evicting the oldest when the ring is full.
func (r *Ring[T]) Push(value T) {
	if r.count < len(r.data) {
		r.data[(r.start+r.count)%len(r.data)] = value
		r.count++
		return
	}
	r.data[r.start] = value
	r.start = (r.start + 1) % len(r.data)
}

// Len returns the number of values held.
func (r *Ring[T]) Len() int {
	return r.count
}

// Cap returns the maximum number of values held.
func (r *Ring[T]) Cap() int {
	return len(r.data)
}

// Clear empties the ring.
func (r *Ring[T]) Clear() {
	clear(r.data)
	r.start = 0
	r.count = 0
}

// All iterates from the oldest to the newest value.
func (r *Ring[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for n := range r.count {
			if !yield(r.data[(r.start+n)%len(r.data)]) {
				return
			}
		}
	}
}
