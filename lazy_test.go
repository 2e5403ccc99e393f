package weft

import (
	"sync/atomic"
	"testing"
	"time"

	"weft/core"
)

// A single submitter trickling tasks through a large lazy pool: every task
// completes and no worker misses its wake-up, even though the pool dozes
// off between submissions.
func TestLazyTrickleNoMissedWake(t *testing.T) {
	p := NewLazyPool(WithWorkers(32))
	defer p.Close()

	for i := 0; i < 50; i++ {
		v, err := SyncWait(p, fib(8))
		if err != nil {
			t.Fatalf("task %d: %v", i, err)
		}
		if v != 21 {
			t.Fatalf("task %d: fib(8) = %d", i, v)
		}
		time.Sleep(time.Millisecond)
	}
}

// Concurrent submitters against a sleeping pool.
func TestLazyConcurrentSubmitters(t *testing.T) {
	p := NewLazyPool(WithWorkers(8))
	defer p.Close()

	const submitters = 8
	var failed atomic.Int64
	done := make(chan struct{}, submitters)
	for s := 0; s < submitters; s++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 25; i++ {
				if v, err := SyncWait(p, fib(12)); err != nil || v != 144 {
					failed.Add(1)
					return
				}
			}
		}()
	}
	for s := 0; s < submitters; s++ {
		<-done
	}
	if failed.Load() != 0 {
		t.Fatalf("%d submitters failed", failed.Load())
	}
}

// The multi-domain waker: work submitted into one domain must still reach
// thieves in the others.
func TestLazyCrossDomainSteal(t *testing.T) {
	p := NewLazyPool(WithWorkers(8), WithTopology(core.SplitTopology{Domains: 4}))
	defer p.Close()

	for i := 0; i < 20; i++ {
		v, err := SyncWait(p, fib(16))
		if err != nil || v != 987 {
			t.Fatalf("fib(16) = %d, %v", v, err)
		}
	}
}
