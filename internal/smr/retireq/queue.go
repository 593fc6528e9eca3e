// Package retireq implements the bounded ring of retired objects keyed by
// their expiry epoch.
//
// The queue is a plain, unsynchronized ring buffer: every method assumes
// the caller already holds the proxy's mutex. That mirrors the original
// C smrqueue.c, which is likewise only ever touched while
// smrproxy_t.mutex is held, and keeps the hot reclaim-scan path free of
// any locking of its own.
package retireq

import (
	"fmt"

	"github.com/kolkov/smrproxy/internal/smr/xepoch"
)

// Dtor destroys a retired object. It runs exactly once per object,
// on whichever goroutine calls Dequeue (the reclaimer, or a synchronous
// retire path). It must not panic or block indefinitely.
type Dtor func(obj any)

type slot struct {
	obj  any
	dtor Dtor
}

// Queue is a fixed-capacity ring of (obj, dtor) pairs, indexed by the
// expiry epoch that was current when each entry was enqueued.
type Queue struct {
	size     uint32
	headIdx  uint32
	tailIdx  uint32
	head     xepoch.Epoch
	tail     xepoch.Epoch
	slots    []slot
}

// Create allocates a queue of the given size, with both head and tail
// starting at initialEpoch. initialEpoch must be odd (a valid epoch);
// size must be nonzero and no larger than xepoch.MaxQueueSize.
func Create(initialEpoch xepoch.Epoch, size uint32) (*Queue, error) {
	if !xepoch.IsOdd(initialEpoch) {
		return nil, fmt.Errorf("retireq: initial epoch %#x must be odd", initialEpoch)
	}
	if size == 0 {
		return nil, fmt.Errorf("retireq: size must be nonzero")
	}
	if size > xepoch.MaxQueueSize {
		return nil, fmt.Errorf("retireq: size %d exceeds MaxQueueSize %d", size, xepoch.MaxQueueSize)
	}
	return &Queue{
		size:  size,
		head:  initialEpoch,
		tail:  initialEpoch,
		slots: make([]slot, size),
	}, nil
}

// Empty reports whether the queue currently holds no retired objects.
func (q *Queue) Empty() bool {
	return q.head == q.tail
}

// Full reports whether the queue has no free slot left for Enqueue.
func (q *Queue) Full() bool {
	return uint32(q.tail-q.head) == 2*q.size
}

// Head returns the current head epoch (the oldest in-flight retirement,
// or the tail if the queue is empty).
func (q *Queue) Head() xepoch.Epoch {
	return q.head
}

// Tail returns the current tail epoch: the expiry returned by the most
// recent Enqueue, or the initial epoch if nothing has been enqueued. The
// next Enqueue returns xepoch.Advance(Tail()).
func (q *Queue) Tail() xepoch.Epoch {
	return q.tail
}

// Enqueue retires obj with destructor dtor. On success it returns the new
// tail epoch (the expiry this retirement was stamped with). If the queue
// is full it returns 0 and does nothing; the caller decides whether to
// retry, block, or reject the retirement.
func (q *Queue) Enqueue(obj any, dtor Dtor) xepoch.Epoch {
	if q.Full() {
		return 0
	}
	q.slots[q.tailIdx] = slot{obj: obj, dtor: dtor}
	q.tailIdx = (q.tailIdx + 1) % q.size
	q.tail = xepoch.Advance(q.tail)
	return q.tail
}

// Dequeue frees every slot whose expiry epoch is strictly less than
// oldest (in wrap-aware order), invoking each destructor exactly once,
// and returns the resulting head epoch. If oldest is not strictly ahead
// of the current head, Dequeue is a no-op and simply returns head.
func (q *Queue) Dequeue(oldest xepoch.Epoch) xepoch.Epoch {
	if xepoch.Cmp(oldest, q.head) <= 0 {
		return q.head
	}
	for xepoch.Cmp(q.head, oldest) != 0 {
		s := &q.slots[q.headIdx]
		dtor := s.dtor
		obj := s.obj
		s.obj = nil
		s.dtor = nil
		q.headIdx = (q.headIdx + 1) % q.size
		q.head = xepoch.Advance(q.head)
		dtor(obj)
	}
	return q.head
}

// DrainAll forces every remaining entry out of the queue regardless of
// any reader observation, running each destructor once. Used by
// Proxy.Close to flush whatever is left once every reference has been
// forced released.
func (q *Queue) DrainAll() xepoch.Epoch {
	return q.Dequeue(q.tail)
}
