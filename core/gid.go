package core

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// Workers register their goroutine so the non-worker entry points can
// refuse to block a worker on its own pool. Go offers no thread-local
// storage, so the id is read from the goroutine's stack header; this runs
// once per worker lifetime and once per Schedule call, never on a hot path.

var workerGoros sync.Map // goroutine id -> struct{}

func goid() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// "goroutine 18 [running]:"
	s := buf[len("goroutine "):n]
	if i := bytes.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	id, err := strconv.ParseInt(string(s), 10, 64)
	if err != nil {
		return -1
	}
	return id
}

// BindGoroutine marks the calling goroutine as a worker until
// UnbindGoroutine.
func (w *Worker) BindGoroutine() { workerGoros.Store(goid(), struct{}{}) }

// UnbindGoroutine releases the BindGoroutine mark.
func (w *Worker) UnbindGoroutine() { workerGoros.Delete(goid()) }

// OnWorker reports whether the calling goroutine drives a worker.
func OnWorker() bool {
	_, ok := workerGoros.Load(goid())
	return ok
}
