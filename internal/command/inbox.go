// SPDX-License-Identifier: MIT
package command

import (
	"sync/atomic"

	"soundstrip/pkg/bitint"
)

// DefaultCapacity is the inbox depth used when none is configured.
const DefaultCapacity = 8

// Inbox is a bounded single-producer single-consumer queue. TryPush and
// TryPop never block; a full inbox rejects the new command and leaves the
// queued ones alone.
//
// Exactly one goroutine may push and exactly one may pop.
type Inbox struct {
	buf  []Command
	mask uint64

	// head is written by the consumer, tail by the producer.
	head atomic.Uint64
	_    [56]byte
	tail atomic.Uint64
}

// NewInbox rounds capacity up to a power of two.
func NewInbox(capacity int) *Inbox {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	size := bitint.NextPowerOfTwo(capacity)
	return &Inbox{
		buf:  make([]Command, size),
		mask: bitint.Mask(size),
	}
}

// TryPush enqueues c, reporting false when the inbox is full.
func (q *Inbox) TryPush(c Command) bool {
	tail := q.tail.Load()
	if tail-q.head.Load() == uint64(len(q.buf)) {
		return false
	}
	q.buf[tail&q.mask] = c
	q.tail.Store(tail + 1)
	return true
}

// TryPop dequeues the oldest command, reporting false when empty.
func (q *Inbox) TryPop() (Command, bool) {
	head := q.head.Load()
	if head == q.tail.Load() {
		return Command{}, false
	}
	c := q.buf[head&q.mask]
	q.head.Store(head + 1)
	return c, true
}

// Len is a snapshot of the queued count; exact only when called from the
// producer or the consumer.
func (q *Inbox) Len() int {
	return int(q.tail.Load() - q.head.Load())
}

func (q *Inbox) Cap() int { return len(q.buf) }
