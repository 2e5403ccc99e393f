package core

import (
	"sync/atomic"
)

const cacheLineSize = 64

// dequeInitialCap is the slot count of a fresh deque ring.
const dequeInitialCap = 1024

// StealResult discriminates the outcomes of Deque.Steal and Worker.TrySteal.
type StealResult int

const (
	StealOK    StealResult = iota // got a task
	StealLost                     // lost a race with the owner or another thief
	StealEmpty                    // nothing to take
)

// TaskHandle is the stealable unit stored in a deque: the frame of a
// suspended continuation. Pointer-size and trivially copyable, so the
// speculative slot read before the CAS in Steal is safe even when the race
// is lost.
type TaskHandle = *Frame

type dequeRing struct {
	mask  int64
	slots []TaskHandle
}

func newDequeRing(size int64) *dequeRing {
	return &dequeRing{mask: size - 1, slots: make([]TaskHandle, size)}
}

func (r *dequeRing) get(i int64) TaskHandle    { return r.slots[i&r.mask] }
func (r *dequeRing) put(i int64, h TaskHandle) { r.slots[i&r.mask] = h }

// Deque is a lock-free Chase–Lev work-stealing deque. The owning worker
// pushes and pops at the bottom (LIFO); thieves steal from the top (FIFO).
//
// Retired rings are kept on a garbage list instead of being freed mid-life:
// a thief that lost a race may still be reading a slot of an old ring.
type Deque struct {
	// Padding keeps top, bottom and the ring pointer on separate cache
	// lines.
	_ [cacheLineSize]byte

	top atomic.Int64

	_ [cacheLineSize]byte

	bottom atomic.Int64

	_ [cacheLineSize]byte

	ring atomic.Pointer[dequeRing]

	garbage []*dequeRing
}

// NewDeque allocates a deque with the default initial capacity.
func NewDeque() *Deque {
	d := &Deque{garbage: make([]*dequeRing, 0, 64)}
	d.ring.Store(newDequeRing(dequeInitialCap))
	return d
}

// Push appends a handle at the bottom. Owner only. Grows the ring when full;
// the old ring is retired, never freed, since thieves may still read it.
func (d *Deque) Push(h TaskHandle) {
	b := d.bottom.Load()
	t := d.top.Load()
	r := d.ring.Load()

	if b-t >= int64(len(r.slots)) {
		r = d.grow(t, b, r)
	}

	r.put(b, h)
	// The atomic store of bottom publishes the slot write: stealers
	// acquire-load bottom before reading the slot.
	d.bottom.Store(b + 1)
}

func (d *Deque) grow(t, b int64, old *dequeRing) *dequeRing {
	r := newDequeRing(int64(len(old.slots)) * 2)
	for i := t; i < b; i++ {
		r.put(i, old.get(i))
	}
	d.garbage = append(d.garbage, old)
	d.ring.Store(r)
	return r
}

// Pop removes the newest handle. Owner only. Races with a concurrent Steal
// exactly at the last element, resolved by a CAS on top.
func (d *Deque) Pop() (TaskHandle, bool) {
	b := d.bottom.Load() - 1
	r := d.ring.Load()
	d.bottom.Store(b)

	t := d.top.Load()
	if t > b {
		// Already empty.
		d.bottom.Store(b + 1)
		return nil, false
	}

	h := r.get(b)
	if t == b {
		// Last element: the CAS decides between us and a thief.
		if !d.top.CompareAndSwap(t, t+1) {
			h = nil
		}
		d.bottom.Store(b + 1)
		if h == nil {
			return nil, false
		}
	}
	return h, true
}

// Steal takes the oldest handle. Any thief. StealLost reports a race lost to
// the owner or another thief; callers treat it like StealEmpty, no retry.
func (d *Deque) Steal() (TaskHandle, StealResult) {
	t := d.top.Load()
	b := d.bottom.Load()
	if t >= b {
		return nil, StealEmpty
	}
	r := d.ring.Load()
	h := r.get(t)
	if !d.top.CompareAndSwap(t, t+1) {
		return nil, StealLost
	}
	return h, StealOK
}

// Len is a racy size estimate, useful only for monitoring.
func (d *Deque) Len() int {
	n := d.bottom.Load() - d.top.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}
