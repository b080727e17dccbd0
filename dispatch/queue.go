// File: dispatch/queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded MPMC queue using per-cell sequence numbers, after the pattern by
// Dmitry Vyukov. Serves as the dispatcher's fast submission ring.

package dispatch

import "sync/atomic"

const cacheLinePad = 64

// MPMCQueue is a bounded multi-producer/multi-consumer queue. Capacity is
// rounded up to a power of two.
type MPMCQueue[T any] struct {
	head uint64
	_    [cacheLinePad]byte
	tail uint64
	_    [cacheLinePad]byte
	mask uint64
	ring []slot[T]
}

type slot[T any] struct {
	sequence atomic.Uint64
	item     T
}

// NewMPMCQueue creates a queue holding at least capacity items.
func NewMPMCQueue[T any](capacity int) *MPMCQueue[T] {
	if capacity < 2 {
		capacity = 2
	}
	size := 1
	for size < capacity {
		size <<= 1
	}
	q := &MPMCQueue[T]{
		mask: uint64(size - 1),
		ring: make([]slot[T], size),
	}
	for i := range q.ring {
		q.ring[i].sequence.Store(uint64(i))
	}
	return q
}

// Push adds an item; returns false when the queue is full.
func (q *MPMCQueue[T]) Push(item T) bool {
	for {
		tail := atomic.LoadUint64(&q.tail)
		s := &q.ring[tail&q.mask]
		diff := int64(s.sequence.Load()) - int64(tail)
		switch {
		case diff == 0:
			if atomic.CompareAndSwapUint64(&q.tail, tail, tail+1) {
				s.item = item
				s.sequence.Store(tail + 1)
				return true
			}
		case diff < 0:
			return false // full
		}
		// tail moved under us; retry
	}
}

// Pop removes the oldest item; ok is false when the queue is empty.
func (q *MPMCQueue[T]) Pop() (item T, ok bool) {
	for {
		head := atomic.LoadUint64(&q.head)
		s := &q.ring[head&q.mask]
		diff := int64(s.sequence.Load()) - int64(head+1)
		switch {
		case diff == 0:
			if atomic.CompareAndSwapUint64(&q.head, head, head+1) {
				item = s.item
				var zero T
				s.item = zero
				s.sequence.Store(head + q.mask + 1)
				return item, true
			}
		case diff < 0:
			var zero T
			return zero, false // empty
		}
		// head moved under us; retry
	}
}

// Len approximates the number of queued items.
func (q *MPMCQueue[T]) Len() int {
	tail := atomic.LoadUint64(&q.tail)
	head := atomic.LoadUint64(&q.head)
	if tail < head {
		return 0
	}
	return int(tail - head)
}
