package weft

import "weft/core"

// Non-worker entry points. A root task is built on a transient stack whose
// ownership travels with the submission; the receiving worker adopts it
// before the first resumption.

// rootTracker is implemented by pools that must not shut down while
// submitted roots are still running (detach-drains-on-close).
type rootTracker interface {
	rootSubmitted()
	rootDone()
}

func submitRoot(sch Scheduler, body core.Cont, ret any, done func()) {
	tr, _ := sch.(rootTracker)
	if tr != nil {
		tr.rootSubmitted()
		prev := done
		done = func() {
			prev()
			tr.rootDone()
		}
	}
	stack := core.NewStack()
	root := core.NewRootFrame(body, ret, done, stack)
	sch.Schedule(&core.SubmitNode{Frame: root})
}

// Schedule submits t to sch and returns a future for its result. Must not
// be called from a worker goroutine: blocking a worker on its own pool can
// deadlock it.
func Schedule[R any](sch Scheduler, t Task[R]) (*Future[R], error) {
	if core.OnWorker() {
		return nil, ErrScheduleInWorker
	}
	st := &futureState[R]{done: make(chan struct{})}
	submitRoot(sch, core.Cont(t), &st.cell, func() { close(st.done) })
	return &Future[R]{st: st}, nil
}

// SyncWait schedules t and blocks until its result is available. A panic
// that escaped the task is re-raised in the caller.
func SyncWait[R any](sch Scheduler, t Task[R]) (R, error) {
	fut, err := Schedule(sch, t)
	if err != nil {
		var zero R
		return zero, err
	}
	return fut.Get()
}

// Detach schedules t and discards its result. A detached root still holds
// its pool open: the pool's Close blocks until every detached task has
// completed. A panic escaping a detached task is dropped.
func Detach[R any](sch Scheduler, t Task[R]) error {
	if core.OnWorker() {
		return ErrScheduleInWorker
	}
	submitRoot(sch, core.Cont(t), &detachSink{}, func() {})
	return nil
}

// detachSink is the receptacle of a detached root: it discards the value
// and absorbs panics, since no caller remains to observe either.
type detachSink struct{}

func (*detachSink) CapturePanic(any) bool { return true }
