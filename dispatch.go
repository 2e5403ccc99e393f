package weft

import "weft/core"

// Advanced dispatch: fork and call variants with modifiers controlling how
// eagerly a stashed sibling panic is delivered. The plain Fork/Call defer
// all panic delivery to Join.
//
// The catch continuation plays the role of the catch block around an eager
// dispatch: it receives the real panic value when the current task has
// exclusive ownership of its frame (no steals, so the slot is safe to
// touch), and the substitute ErrBeforeJoin otherwise, because the real
// value may still be being written by a sibling's worker. After
// ErrBeforeJoin the catch must proceed to Join, which delivers the real
// value. A nil catch re-raises into the parent frame instead.

// ForkSync is a fork that reports whether the child completed synchronously
// (the continuation was not stolen while the child ran). The panic check is
// eager on the synchronous path.
func ForkSync[R any](co *Coro, ret Ret[R], t Task[R], cont func(co *Coro, sync bool) Step, catch func(co *Coro, v any) Step) Step {
	pre := co.Steals()
	child := co.Spawn(core.Cont(t), retSlot(ret))
	return co.ForkStep(child, func(co *Coro) Step {
		if co.Steals() != pre {
			return cont(co, false)
		}
		if st, caught := eagerCheck(co, catch); caught {
			return st
		}
		return cont(co, true)
	})
}

// ForkSyncOutside is ForkSync for the opening fork of a scope: no steals
// can have happened yet, so the check always delivers the real value.
func ForkSyncOutside[R any](co *Coro, ret Ret[R], t Task[R], cont func(co *Coro, sync bool) Step, catch func(co *Coro, v any) Step) Step {
	if co.Steals() != 0 {
		panic("weft: ForkSyncOutside inside an open fork-join region")
	}
	return ForkSync(co, ret, t, cont, catch)
}

// CallEager is a call that checks for a stashed panic as soon as the child
// completes.
func CallEager[R any](co *Coro, ret Ret[R], t Task[R], cont Cont, catch func(co *Coro, v any) Step) Step {
	child := co.Spawn(core.Cont(t), retSlot(ret))
	return co.CallStep(child, func(co *Coro) Step {
		if st, caught := eagerCheck(co, catch); caught {
			return st
		}
		return cont(co)
	})
}

// CallEagerOutside is CallEager outside a fork-join region, where
// exclusive ownership is guaranteed.
func CallEagerOutside[R any](co *Coro, ret Ret[R], t Task[R], cont Cont, catch func(co *Coro, v any) Step) Step {
	if co.Steals() != 0 {
		panic("weft: CallEagerOutside inside an open fork-join region")
	}
	return CallEager(co, ret, t, cont, catch)
}

func eagerCheck(co *Coro, catch func(co *Coro, v any) Step) (Step, bool) {
	if co.Steals() == 0 {
		if v := co.TakePanic(); v != nil {
			if catch == nil {
				panic(v)
			}
			return catch(co, v), true
		}
		return Step{}, false
	}
	if co.HasPanic() {
		if catch == nil {
			panic(ErrBeforeJoin)
		}
		return catch(co, ErrBeforeJoin), true
	}
	return Step{}, false
}
