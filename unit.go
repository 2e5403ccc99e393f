package weft

import (
	"sync"

	"weft/core"
)

// Unit is the single-thread scheduler: every submission runs to completion
// inline, in submission order, on the goroutine that submitted it or, when
// another Schedule call is already draining the unit, on that call's
// goroutine. The degenerate
// Scheduler, useful for tests and as a sequential baseline.
type Unit struct {
	w  *core.Worker
	mu sync.Mutex

	roots sync.WaitGroup
}

// NewUnit returns a unit scheduler.
func NewUnit() *Unit {
	return &Unit{w: core.NewWorker(nil)}
}

// Schedule runs the submission inline. When called re-entrantly (a task
// switching back onto the unit) the node is queued and drained by the
// ongoing run.
func (u *Unit) Schedule(n *core.SubmitNode) {
	u.w.Submit(n)
	for u.mu.TryLock() {
		wasWorker := core.OnWorker()
		if !wasWorker {
			u.w.BindGoroutine()
		}
		for drainSubmissions(u.w) {
		}
		if !wasWorker {
			u.w.UnbindGoroutine()
		}
		u.mu.Unlock()
		// A racing Schedule may have enqueued between our drain and the
		// unlock; make sure no submission is left behind.
		if !u.w.HasSubmissions() {
			return
		}
	}
}

func (u *Unit) rootSubmitted() { u.roots.Add(1) }
func (u *Unit) rootDone()      { u.roots.Done() }

// Close waits for outstanding roots. Symmetric with the pools; on a unit
// every root has already completed unless a task switched away mid-flight.
func (u *Unit) Close() {
	u.roots.Wait()
	u.w.Finalize()
}
