// Package weft is a work-stealing fork-join runtime for structured
// parallelism.
//
// Task bodies are asynchronous functions written in continuation-passing
// style: every suspension point (Fork, Call, Join, SwitchTo) returns a Step
// naming the continuation to run when the task resumes. A pool of workers
// executes tasks over per-worker segmented stacks, so a stolen continuation
// keeps the stack discipline of an ordinary call tree.
//
//	func fib(n int) weft.Task[int] { ... }
//
//	pool := weft.NewLazyPool()
//	defer pool.Close()
//	v, err := weft.SyncWait[int](pool, fib(30))
//
// Fork spawns a stealable child and publishes the parent's continuation;
// Call spawns a child that always completes before the parent resumes; Join
// waits for every forked child of the current scope and re-raises the first
// panic any of them stashed.
package weft
