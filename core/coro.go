package core

// The fork/call/join protocol and the resume shim that interprets Steps.
//
// A worker resumes a task by calling its continuation. The continuation
// returns a Step describing the suspension it ended on; the shim performs
// the protocol transition and hands back the next frame to run, so control
// transfers task-to-task without touching the scheduler loop.

type stepKind uint8

const (
	stepEnd stepKind = iota
	stepFork
	stepCall
	stepJoin
	stepSwitch
)

// A Step is the value a continuation returns at a suspension point.
type Step struct {
	kind  stepKind
	child *Frame
	dest  Scheduler
}

// A Scheduler is anything that can accept a submitted task. Schedule must
// deliver the node or panic leaving the node untouched.
type Scheduler interface {
	Schedule(*SubmitNode)
}

// A Coro is the view a running continuation has of itself: the executing
// worker and the current frame. It is only valid for the duration of one
// continuation call.
type Coro struct {
	w *Worker
	f *Frame
}

// Worker returns the currently executing worker.
func (co *Coro) Worker() *Worker { return co.w }

// Spawn builds a child frame for fn with the given return receptacle. The
// child is allocated against the worker's current stacklet.
func (co *Coro) Spawn(fn Cont, ret any) *Frame {
	c := newFrame()
	c.resume = fn
	c.ret = ret
	c.parent = co.f
	c.stacklet = co.w.stack.Top()
	return c
}

// ForkStep suspends the current task at cont, publishes its continuation
// for stealing and symmetric-transfers to child.
func (co *Coro) ForkStep(child *Frame, cont Cont) Step {
	co.f.resume = cont
	return Step{kind: stepFork, child: child}
}

// CallStep is ForkStep without publishing the continuation.
func (co *Coro) CallStep(child *Frame, cont Cont) Step {
	co.f.resume = cont
	child.isCall = true
	return Step{kind: stepCall, child: child}
}

// JoinStep suspends at a join point. When the task resumes, any panic
// stashed by a child is re-raised before cont runs.
func (co *Coro) JoinStep(cont Cont) Step {
	f := co.f
	f.resume = func(co *Coro) Step {
		if v := f.takePanic(); v != nil {
			panic(v)
		}
		return cont(co)
	}
	return Step{kind: stepJoin}
}

// EndStep terminates the task.
func (co *Coro) EndStep() Step { return Step{kind: stepEnd} }

// SwitchStep reschedules the current task onto dest and returns the worker
// to its loop.
func (co *Coro) SwitchStep(dest Scheduler, cont Cont) Step {
	co.f.resume = cont
	return Step{kind: stepSwitch, dest: dest}
}

// Steals returns how many times the current task's continuation has been
// stolen. Zero means the task has exclusive ownership of its frame.
func (co *Coro) Steals() uint32 { return co.f.loadSteals() }

// HasPanic reports whether a child has stashed a panic. The value itself
// must not be touched unless Steals is zero; see RethrowIfPanic.
func (co *Coro) HasPanic() bool { return co.f.hasPanic() }

// TakePanic consumes and returns the stashed child panic, or nil. The
// caller must have exclusive ownership of the frame (no steals): otherwise
// the real value may still be being written by a sibling's worker.
func (co *Coro) TakePanic() any { return co.f.takePanic() }

// RethrowIfPanic re-raises a stashed child panic under the TakePanic
// ownership rules.
func (co *Coro) RethrowIfPanic() {
	if v := co.f.takePanic(); v != nil {
		panic(v)
	}
}

// Ret returns the current frame's return receptacle.
func (co *Coro) Ret() any { return co.f.ret }

// StackAllocate bump-allocates n bytes on the worker's segmented stack and
// records the (possibly new) stacklet on the current frame. The task must
// own the chain it lives on: allocating between a fork that was stolen and
// the join that reclaims the stack is a programmer error.
func (co *Coro) StackAllocate(n int) ([]byte, error) {
	if co.w.stack.Top() != co.f.stacklet {
		panic("weft: stack allocation without owning the task's stack")
	}
	p, err := co.w.stack.Allocate(n)
	if err != nil {
		return nil, err
	}
	co.f.stacklet = co.w.stack.Top()
	return p, nil
}

// StackFree releases the most recent StackAllocate allocation.
func (co *Coro) StackFree(p []byte) {
	co.w.stack.Deallocate(p)
	co.f.stacklet = co.w.stack.Top()
}

// Execute runs f and every task it symmetric-transfers to until control
// returns to the scheduler loop.
func (w *Worker) Execute(f *Frame) {
	for f != nil {
		f = w.step(f)
	}
}

// runCont invokes the frame's continuation, converting a panic of the task
// body into a captured value.
func (w *Worker) runCont(f *Frame) (st Step, pan any) {
	defer func() {
		if r := recover(); r != nil {
			pan = r
		}
	}()
	co := Coro{w: w, f: f}
	st = f.resume(&co)
	return st, nil
}

func (w *Worker) step(f *Frame) *Frame {
	st, pan := w.runCont(f)
	if pan != nil {
		return w.terminate(f, pan)
	}
	switch st.kind {
	case stepFork:
		w.deque.Push(f)
		return st.child
	case stepCall:
		return st.child
	case stepJoin:
		return w.join(f)
	case stepSwitch:
		return w.switchAway(f, st.dest)
	default:
		return w.terminate(f, nil)
	}
}

// terminate runs the terminal-suspension protocol for f.
func (w *Worker) terminate(f *Frame, pan any) *Frame {
	if pan != nil {
		if c, ok := f.ret.(PanicCapturer); ok && c.CapturePanic(pan) {
			pan = nil
		}
	}

	if f.parent == nil {
		if pan != nil {
			// Roots must be configured with a capturing receptacle.
			panic(pan)
		}
		done := f.done
		freeFrame(f)
		done()
		return nil
	}

	p := f.parent
	if pan != nil {
		// Must land before the join-counter decrement below so the join
		// winner observes it.
		p.stashPanic(pan)
	}

	if f.isCall {
		// The continuation was never stealable: the parent is still ours.
		freeFrame(f)
		return p
	}

	if h, ok := w.deque.Pop(); ok {
		// No one stole the parent; h is its continuation and we already own
		// its stacklet. No join-counter update.
		freeFrame(f)
		return h
	}

	// The parent's continuation was stolen.
	freeFrame(f)
	if p.joins.Add(-1) == 0 {
		dlog("last child wins join race for %p", p)
		// Last outstanding child and the join was already issued: we win
		// the join race and take the parent's stack.
		w.takeStack(p)
		p.reset()
		return p
	}

	// Some sibling finishes after us: drop whatever stack we held and let
	// its worker resume the parent.
	w.stack.Release()
	return w.selfSteal()
}

// join resolves a frame suspended at a JoinStep against its outstanding
// stolen children.
func (w *Worker) join(f *Frame) *Frame {
	steals := int32(f.loadSteals())
	if steals == 0 {
		// Every child ran on this worker; nothing to reset.
		return f
	}

	joined := joinSentinel - f.joins.Load()
	if steals == joined {
		// All stolen children have already returned.
		dlog("join ready for %p", f)
		w.takeStack(f)
		f.reset()
		return f
	}

	// Publish the pending join: joins becomes steals - childrenJoined.
	if f.joins.Add(-(joinSentinel - steals)) == 0 {
		// Won the race after all.
		dlog("join race won by issuer for %p", f)
		w.takeStack(f)
		f.reset()
		return f
	}

	// Lost: the last child's worker resumes f. f must not be touched past
	// this point.
	return w.selfSteal()
}

// switchAway hands the current task to dest per the context-switch
// protocol: the stack is released iff the task still owns it.
func (w *Worker) switchAway(f *Frame, dest Scheduler) *Frame {
	steals := f.loadSteals()
	node := &SubmitNode{Frame: f}

	// dest may resume f the instant it is scheduled; f must not be touched
	// after this call.
	dest.Schedule(node)

	if steals == 0 {
		// The resumer adopts the chain through the frame's stacklet; our
		// reference is dead.
		w.stack.Release()
	}
	return w.selfSteal()
}

// selfSteal promotes one of our queued continuations that has become
// effectively stolen (its owner relinquished the stack it would need to
// resume directly) and resumes it under the stolen-task protocol.
func (w *Worker) selfSteal() *Frame {
	if h, ok := w.deque.Pop(); ok {
		h.fetchAddSteal()
		return h
	}
	return nil
}

// takeStack makes w own the chain p lives on. Either we already hold it (we
// were the original worker and never lost it) or our own stack is empty and
// we adopt the released chain by address.
func (w *Worker) takeStack(p *Frame) {
	if w.stack.Top() == p.stacklet {
		return
	}
	w.stack.Adopt(p.stacklet)
}
