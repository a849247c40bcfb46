package timing

import (
	"container/heap"
	"sync"
	"time"
)

// ManualClock is a Clock that only moves when told to. Callbacks due at the
// same instant fire in the order they were scheduled.
type ManualClock struct {
	lock    sync.Mutex
	now     time.Time
	nextSeq uint64
	queue   callbackHeap

	advanceLock sync.Mutex
}

// NewManualClock creates a ManualClock that starts at the given time.
func NewManualClock(start time.Time) *ManualClock {
	c := &ManualClock{now: start}
	c.queue = make([]*pendingCallback, 0)
	heap.Init(&c.queue)

	return c
}

// Now returns the current time of the clock.
func (c *ManualClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.now
}

// AfterFunc schedules f to run when the clock has been advanced by d.
func (c *ManualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.lock.Lock()
	defer c.lock.Unlock()

	cb := &pendingCallback{
		due:   c.now.Add(d),
		seq:   c.nextSeq,
		fn:    f,
		clock: c,
	}
	c.nextSeq++
	heap.Push(&c.queue, cb)

	return cb
}

// Advance moves the clock forward by d and runs every callback that becomes
// due, in time order. While a callback runs, Now reports its due time.
// Callbacks may schedule further callbacks; those that fall due within the
// same advance also run.
func (c *ManualClock) Advance(d time.Duration) {
	c.advanceLock.Lock()
	defer c.advanceLock.Unlock()

	c.lock.Lock()
	target := c.now.Add(d)
	c.lock.Unlock()

	for {
		cb := c.popDue(target)
		if cb == nil {
			break
		}

		cb.fn()
	}

	c.lock.Lock()
	if c.now.Before(target) {
		c.now = target
	}
	c.lock.Unlock()
}

func (c *ManualClock) popDue(target time.Time) *pendingCallback {
	c.lock.Lock()
	defer c.lock.Unlock()

	for c.queue.Len() > 0 {
		cb := c.queue[0]
		if cb.due.After(target) {
			return nil
		}

		heap.Pop(&c.queue)
		if cb.stopped {
			continue
		}

		cb.fired = true
		if cb.due.After(c.now) {
			c.now = cb.due
		}

		return cb
	}

	return nil
}

// NumPending returns the number of callbacks that are scheduled and not
// stopped.
func (c *ManualClock) NumPending() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	n := 0
	for _, cb := range c.queue {
		if !cb.stopped {
			n++
		}
	}

	return n
}

type pendingCallback struct {
	due     time.Time
	seq     uint64
	fn      func()
	clock   *ManualClock
	stopped bool
	fired   bool
}

func (cb *pendingCallback) Stop() bool {
	cb.clock.lock.Lock()
	defer cb.clock.lock.Unlock()

	if cb.stopped || cb.fired {
		return false
	}

	cb.stopped = true

	return true
}

type callbackHeap []*pendingCallback

func (h callbackHeap) Len() int { return len(h) }

func (h callbackHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}

	return h[i].due.Before(h[j].due)
}

func (h callbackHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *callbackHeap) Push(x any) {
	*h = append(*h, x.(*pendingCallback))
}

func (h *callbackHeap) Pop() any {
	old := *h
	n := len(old)
	cb := old[n-1]
	*h = old[:n-1]

	return cb
}
