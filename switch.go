package weft

// SwitchTo reschedules the current task onto dest and continues it there at
// cont. If the task still owns its stack chain, ownership travels with it;
// the releasing worker then self-steals any of its queued ancestors that
// the switch left effectively stolen.
func SwitchTo(co *Coro, dest Scheduler, cont Cont) Step {
	return co.SwitchStep(dest, cont)
}
