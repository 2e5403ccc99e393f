package core

import (
	"sync"
	"sync/atomic"
)

// joinSentinel is the resting value of a frame's join counter. The counter
// semantically encodes joinSentinel - childrenJoined, which lets a pending
// join be published with a single fetch-sub instead of a CAS.
const joinSentinel = 1<<16 - 1

// A Cont is the remainder of a task after a suspension point. Task bodies
// are written in continuation-passing style: every suspension point returns
// a Step naming the next continuation, and the worker's resume shim
// interprets the steps. This gives symmetric transfer between tasks without
// a scheduler round-trip.
type Cont func(co *Coro) Step

// A Frame is the control block of one task.
//
// A frame is either owned (exactly one worker holds the right to resume it)
// or queued in a deque or submission list, never both. While a task
// executes, its worker owns the stacklet chain named by stacklet.
type Frame struct {
	// resume is the continuation to run at the next resumption.
	resume Cont

	// stacklet is the chain segment the frame's stack data lives on,
	// refreshed whenever the task allocates.
	stacklet *Stacklet

	// parent is nil for a root task; roots call done at their terminal
	// suspension instead of joining a parent.
	parent *Frame
	done   func()

	// isCall marks a child whose continuation was never published for
	// stealing; its terminal suspension transfers straight to the parent.
	isCall bool

	// ret is the task's return receptacle, typed by the public layer.
	ret any

	// joins holds joinSentinel - childrenJoined. Decremented (release) by
	// the workers of stolen children; reset under exclusive ownership.
	joins atomic.Int32

	// steals counts how many times this frame's continuation has been
	// stolen. Incremented by thieves at steal time, read by the owner.
	steals atomic.Uint32

	// One-shot storage for a panic captured from this task's subtree,
	// guarded by panicked. The first writer wins.
	panicked atomic.Bool
	panicVal any
}

var framePool = sync.Pool{New: func() any { return new(Frame) }}

func newFrame() *Frame {
	f := framePool.Get().(*Frame)
	f.joins.Store(joinSentinel)
	f.steals.Store(0)
	return f
}

// freeFrame recycles a frame at its terminal suspension. All handles to it
// are gone by then: it was popped from the deque (or never pushed) and its
// join race, if any, is resolved.
func freeFrame(f *Frame) {
	f.resume = nil
	f.stacklet = nil
	f.parent = nil
	f.done = nil
	f.isCall = false
	f.ret = nil
	f.panicked.Store(false)
	f.panicVal = nil
	framePool.Put(f)
}

// NewRootFrame builds the frame of a root task on the given (transient)
// stack. done runs exactly once at the root's terminal suspension; ret must
// capture panics, since an unhandled panic on a root is a program error.
func NewRootFrame(body Cont, ret any, done func(), stack *Stack) *Frame {
	f := newFrame()
	f.resume = body
	f.ret = ret
	f.done = done
	f.stacklet = stack.Top()
	return f
}

// Ret returns the frame's return receptacle.
func (f *Frame) Ret() any { return f.ret }

func (f *Frame) loadSteals() uint32 { return f.steals.Load() }

func (f *Frame) fetchAddSteal() {
	if f.steals.Add(1) > joinSentinel {
		panic("weft: more than 65535 outstanding forks in one scope")
	}
}

// reset restores the resting counter state. Only the exclusive owner calls
// this, after winning a join race or observing all children joined.
func (f *Frame) reset() {
	f.steals.Store(0)
	f.joins.Store(joinSentinel)
}

// stashPanic forwards a panic from a completed child into this frame's
// slot. The first writer wins; later panics from siblings are dropped.
func (f *Frame) stashPanic(v any) {
	if f.panicked.CompareAndSwap(false, true) {
		f.panicVal = v
	}
}

// hasPanic reports whether some child has stashed a panic. Safe to call
// without owning the frame; the value itself is not.
func (f *Frame) hasPanic() bool { return f.panicked.Load() }

// takePanic consumes the slot. Requires exclusive ownership of the frame.
func (f *Frame) takePanic() any {
	if !f.panicked.Load() {
		return nil
	}
	v := f.panicVal
	f.panicVal = nil
	f.panicked.Store(false)
	return v
}

// PanicCapturer is implemented by return receptacles that absorb a panic
// from their task instead of letting it propagate to the parent frame.
type PanicCapturer interface {
	CapturePanic(v any) bool
}
