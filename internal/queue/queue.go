package queue

import (
	"sync"
	"sync/atomic"

	"github.com/linuxmatters/flipbook/internal/frame"
)

// node links a frame into the queue. The head node is always a sentinel
// whose frame is nil, so producers and consumers never touch the same field.
type node struct {
	frame *frame.Frame
	next  *node
}

var nodePool = sync.Pool{
	New: func() interface{} {
		return new(node)
	},
}

// FrameQueue is a bounded blocking FIFO of frames with separate locks for
// producers and consumers.
//
// Two guards are checked in every wait loop:
// - destroyed: set once by Destroy; every later operation fails
// - epoch: bumped by ResetData; callers waiting across a reset fail
//
// Both teardown paths broadcast on both conditions while holding both
// locks, so no caller stays parked after Destroy or ResetData returns.
type FrameQueue struct {
	capacity int32
	count    atomic.Int32

	takeMu   sync.Mutex
	notEmpty *sync.Cond
	head     *node

	putMu   sync.Mutex
	notFull *sync.Cond
	tail    *node

	destroyed atomic.Bool
	epoch     atomic.Uint64

	release func(*frame.Frame)
}

// New creates a queue holding at most capacity frames. release, if not nil,
// is called for every frame discarded by Destroy or ResetData.
func New(capacity int, release func(*frame.Frame)) *FrameQueue {
	if capacity <= 0 {
		panic("queue: capacity must be positive")
	}

	sentinel := nodePool.Get().(*node)
	q := &FrameQueue{
		capacity: int32(capacity),
		head:     sentinel,
		tail:     sentinel,
		release:  release,
	}
	q.notEmpty = sync.NewCond(&q.takeMu)
	q.notFull = sync.NewCond(&q.putMu)
	return q
}

// Put appends f, waiting while the queue is full. It returns false if the
// queue was destroyed or reset before f could be added.
func (q *FrameQueue) Put(f *frame.Frame) bool {
	if f == nil {
		panic("queue: nil frame")
	}

	q.putMu.Lock()
	epoch := q.epoch.Load()
	for q.count.Load() == q.capacity {
		if q.closed(epoch) {
			q.putMu.Unlock()
			return false
		}
		q.notFull.Wait()
	}
	if q.closed(epoch) {
		q.putMu.Unlock()
		return false
	}

	c := q.enqueue(f)
	q.putMu.Unlock()

	if c == 0 {
		q.signalNotEmpty()
	}
	return true
}

// Offer appends f only if there is room, without waiting
func (q *FrameQueue) Offer(f *frame.Frame) bool {
	if f == nil {
		panic("queue: nil frame")
	}
	if q.destroyed.Load() || q.count.Load() == q.capacity {
		return false
	}

	q.putMu.Lock()
	if q.destroyed.Load() || q.count.Load() == q.capacity {
		q.putMu.Unlock()
		return false
	}
	c := q.enqueue(f)
	q.putMu.Unlock()

	if c == 0 {
		q.signalNotEmpty()
	}
	return true
}

// Take removes the oldest frame, waiting while the queue is empty. It
// returns false if the queue was destroyed or reset while waiting.
func (q *FrameQueue) Take() (*frame.Frame, bool) {
	q.takeMu.Lock()
	epoch := q.epoch.Load()
	for q.count.Load() == 0 {
		if q.closed(epoch) {
			q.takeMu.Unlock()
			return nil, false
		}
		q.notEmpty.Wait()
	}
	if q.closed(epoch) {
		q.takeMu.Unlock()
		return nil, false
	}

	f := q.dequeue()
	c := q.count.Add(-1) + 1
	if c > 1 {
		q.notEmpty.Signal()
	}
	q.takeMu.Unlock()

	if c == q.capacity {
		q.signalNotFull()
	}
	return f, true
}

// Destroy permanently closes the queue: waiters are woken, held frames are
// released and every later Put, Offer or Take fails. Safe to call twice.
func (q *FrameQueue) Destroy() {
	q.destroyed.Store(true)

	q.fullyLock()
	defer q.fullyUnlock()

	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
	q.drain()
}

// ResetData wakes current waiters with a failure, releases held frames and
// leaves the queue open for new work.
func (q *FrameQueue) ResetData() {
	q.fullyLock()
	defer q.fullyUnlock()

	q.epoch.Add(1)
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
	q.drain()
}

// Size returns the number of queued frames
func (q *FrameQueue) Size() int {
	return int(q.count.Load())
}

// Capacity returns the queue bound
func (q *FrameQueue) Capacity() int {
	return int(q.capacity)
}

// IsDestroyed reports whether Destroy has been called
func (q *FrameQueue) IsDestroyed() bool {
	return q.destroyed.Load()
}

func (q *FrameQueue) closed(epoch uint64) bool {
	return q.destroyed.Load() || q.epoch.Load() != epoch
}

// enqueue links f at the tail and returns the count before insertion.
// Caller holds putMu.
func (q *FrameQueue) enqueue(f *frame.Frame) int32 {
	n := nodePool.Get().(*node)
	n.frame = f
	n.next = nil
	q.tail.next = n
	q.tail = n

	c := q.count.Add(1) - 1
	if c+1 < q.capacity {
		q.notFull.Signal()
	}
	return c
}

// dequeue unlinks the first frame; its node becomes the new sentinel.
// Caller holds takeMu and has seen a non-zero count.
func (q *FrameQueue) dequeue() *frame.Frame {
	old := q.head
	first := old.next
	q.head = first

	f := first.frame
	first.frame = nil

	old.next = nil
	nodePool.Put(old)
	return f
}

// drain releases every queued frame. Caller holds both locks.
func (q *FrameQueue) drain() {
	for n := q.head.next; n != nil; {
		next := n.next
		if q.release != nil && n.frame != nil {
			q.release(n.frame)
		}
		n.frame = nil
		n.next = nil
		nodePool.Put(n)
		n = next
	}
	q.head.next = nil
	q.tail = q.head
	q.count.Store(0)
}

func (q *FrameQueue) signalNotEmpty() {
	q.takeMu.Lock()
	q.notEmpty.Signal()
	q.takeMu.Unlock()
}

func (q *FrameQueue) signalNotFull() {
	q.putMu.Lock()
	q.notFull.Signal()
	q.putMu.Unlock()
}

// fullyLock takes both locks, producer side first
func (q *FrameQueue) fullyLock() {
	q.putMu.Lock()
	q.takeMu.Lock()
}

func (q *FrameQueue) fullyUnlock() {
	q.takeMu.Unlock()
	q.putMu.Unlock()
}
