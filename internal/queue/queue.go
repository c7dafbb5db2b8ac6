// Package queue implements the bounded FIFO used between every pipeline
// stage (spec.md §5): samples_queue, burst_queue and frame_queue are all
// instances of Queue[T] with a depth and a policy (Put for block-on-full,
// Add for drop-on-full) chosen by the caller.
package queue

import (
	"sync"
	"sync/atomic"
)

// Queue is a generic bounded FIFO backed by a buffered channel. It exposes
// the four operations spec.md requires: Put (block), Take (block, reports
// closed), Add (non-blocking, reports full) and Close (wake all waiters).
type Queue[T any] struct {
	ch        chan T
	done      chan struct{}
	closeOnce sync.Once
	dropped   atomic.Int64
}

// New creates a queue with the given depth (buffer capacity).
func New[T any](depth int) *Queue[T] {
	return &Queue[T]{
		ch:   make(chan T, depth),
		done: make(chan struct{}),
	}
}

// Put blocks until there is room or the queue is closed. It returns false
// if the queue was closed before the value could be enqueued.
func (q *Queue[T]) Put(v T) bool {
	select {
	case q.ch <- v:
		return true
	case <-q.done:
		return false
	}
}

// Add enqueues v without blocking. If the queue is full it increments the
// drop counter and returns false (the spec.md "FULL" result); the caller
// owns releasing v in that case.
func (q *Queue[T]) Add(v T) bool {
	select {
	case q.ch <- v:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Take blocks until a value is available or the queue is closed and
// drained. ok is false only once every buffered value has been delivered
// after Close.
func (q *Queue[T]) Take() (v T, ok bool) {
	select {
	case v = <-q.ch:
		return v, true
	case <-q.done:
		select {
		case v = <-q.ch:
			return v, true
		default:
			return v, false
		}
	}
}

// Close wakes every blocked Put and Take. Safe to call more than once and
// from any goroutine; subsequent Put calls return false immediately once
// the buffer is not accepting new sends (Put still races briefly with
// Close by design — the drain in Take guarantees no buffered value is
// lost).
func (q *Queue[T]) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}

// Dropped returns the number of values rejected by Add because the queue
// was full.
func (q *Queue[T]) Dropped() int64 {
	return q.dropped.Load()
}

// Len returns the number of values currently buffered (best effort, used
// only for the stats thread's "max queue depth" reporting).
func (q *Queue[T]) Len() int {
	return len(q.ch)
}

// Cap returns the queue's configured depth.
func (q *Queue[T]) Cap() int {
	return cap(q.ch)
}
