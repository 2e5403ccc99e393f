package core

import (
	"time"
)

// A Worker wraps the per-worker state: the work-stealing deque, the MPSC
// submission inbox, the notifier hook and the segmented stack. One worker is
// driven by exactly one goroutine; everything except Submit and TrySteal is
// owner-only.
type Worker struct {
	deque  *Deque
	inbox  submitList
	notify func()
	stack  *Stack

	hood *Neighborhood
	rng  uint32
}

// NewWorker establishes a worker context. notify is invoked whenever an
// external producer submits to this worker.
func NewWorker(notify func()) *Worker {
	if notify == nil {
		notify = func() {}
	}
	return &Worker{
		deque:  NewDeque(),
		notify: notify,
		stack:  NewStack(),
		rng:    uint32(time.Now().UnixNano()) | 1,
	}
}

// Finalize tears down the context. The dual of NewWorker; the worker must
// be idle.
func (w *Worker) Finalize() {
	w.hood = nil
}

// SetNeighborhood installs the steal-target selection state. Called once
// during pool construction, before any worker runs.
func (w *Worker) SetNeighborhood(h *Neighborhood) { w.hood = h }

// SetStackLimit bounds this worker's stack, making allocation failures
// surface as ErrOutOfMemory.
func (w *Worker) SetStackLimit(n int) { w.stack.SetLimit(n) }

// Submit pushes a submitted root into this worker's submission list and
// fires its notifier. Any goroutine may call this.
func (w *Worker) Submit(n *SubmitNode) {
	w.inbox.push(n)
	w.notify()
}

// TryPopAll drains the submission list in FIFO order. Owner only.
func (w *Worker) TryPopAll() *SubmitNode { return w.inbox.popAll() }

// HasSubmissions reports whether the inbox is non-empty, without draining.
func (w *Worker) HasSubmissions() bool { return w.inbox.head.Load() != nil }

// TrySteal lets a thief take the oldest queued continuation of this worker.
func (w *Worker) TrySteal() (TaskHandle, StealResult) { return w.deque.Steal() }

// ResumeSubmitted executes a drained submission. If the task still owns its
// stack chain the worker adopts it; a task whose continuation has been
// stolen runs on the worker's own (empty) stack until it wins a join.
func (w *Worker) ResumeSubmitted(n *SubmitNode) {
	f := n.Frame
	if f.loadSteals() == 0 {
		w.stack.Adopt(f.stacklet)
	}
	w.Execute(f)
}

// ResumeStolen increments the task's steal count and executes it.
func (w *Worker) ResumeStolen(h TaskHandle) {
	h.fetchAddSteal()
	w.Execute(h)
}

// xorshift32; cheap enough to sit inside the steal loop.
func (w *Worker) nextRand() uint32 {
	x := w.rng
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	w.rng = x
	return x
}

// FindWork performs one steal attempt over the worker's neighborhood,
// returning nil when no work was found.
func (w *Worker) FindWork() TaskHandle {
	if w.hood == nil {
		return nil
	}
	return w.hood.steal(w)
}
