package weft

import (
	"fmt"
	"runtime"
	"testing"

	"weft/core"
)

func fib(n int) Task[int] {
	return func(co *Coro) Step {
		if n < 2 {
			return Return(co, n)
		}
		var a, b int
		return Fork(co, Out(&a), fib(n-1), func(co *Coro) Step {
			return Call(co, Out(&b), fib(n-2), func(co *Coro) Step {
				return Join(co, func(co *Coro) Step {
					return Return(co, a+b)
				})
			})
		})
	}
}

func fibSeq(n int) int {
	if n < 2 {
		return n
	}
	return fibSeq(n-1) + fibSeq(n-2)
}

func testFib(t *testing.T, sch Scheduler) {
	t.Helper()
	for rep := 0; rep < 200; rep++ {
		v, err := SyncWait(sch, fib(10))
		if err != nil {
			t.Fatalf("sync wait: %v", err)
		}
		if v != 55 {
			t.Fatalf("fib(10) = %d, want 55", v)
		}
	}
	v, err := SyncWait(sch, fib(20))
	if err != nil {
		t.Fatalf("sync wait: %v", err)
	}
	if v != 6765 {
		t.Fatalf("fib(20) = %d, want 6765", v)
	}
}

func TestFibUnit(t *testing.T) {
	u := NewUnit()
	defer u.Close()
	testFib(t, u)
}

func TestFibBusy(t *testing.T) {
	for _, n := range []int{1, 2, 4} {
		n := n
		t.Run(fmt.Sprintf("workers=%d", n), func(t *testing.T) {
			p := NewBusyPool(WithWorkers(n))
			defer p.Close()
			testFib(t, p)
		})
	}
}

func TestFibLazy(t *testing.T) {
	for _, n := range []int{1, 2, 4, runtime.NumCPU()} {
		n := n
		t.Run(fmt.Sprintf("workers=%d", n), func(t *testing.T) {
			p := NewLazyPool(WithWorkers(n))
			defer p.Close()
			testFib(t, p)
		})
	}
}

func TestFibLazyMultiDomain(t *testing.T) {
	p := NewLazyPool(WithWorkers(8), WithTopology(core.SplitTopology{Domains: 4}))
	defer p.Close()
	testFib(t, p)
}

// SyncWait of a pure function agrees with calling it directly.
func TestSyncWaitMatchesDirectCall(t *testing.T) {
	p := NewLazyPool(WithWorkers(4))
	defer p.Close()
	for n := 0; n <= 15; n++ {
		v, err := SyncWait(p, fib(n))
		if err != nil {
			t.Fatalf("sync wait: %v", err)
		}
		if want := fibSeq(n); v != want {
			t.Fatalf("fib(%d) = %d, want %d", n, v, want)
		}
	}
}

func TestForkSyncReportsSynchronous(t *testing.T) {
	u := NewUnit()
	defer u.Close()

	var sawSync bool
	task := func(co *Coro) Step {
		var a int
		return ForkSync(co, Out(&a), fib(5), func(co *Coro, sync bool) Step {
			sawSync = sync
			return Join(co, func(co *Coro) Step {
				return Return(co, a)
			})
		}, nil)
	}
	v, err := SyncWait(u, Task[int](task))
	if err != nil {
		t.Fatalf("sync wait: %v", err)
	}
	if v != 5 {
		t.Fatalf("got %d, want 5", v)
	}
	if !sawSync {
		t.Fatal("single-threaded fork did not report synchronous completion")
	}
}

func BenchmarkFib(b *testing.B) {
	p := NewLazyPool()
	defer p.Close()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if v, _ := SyncWait(p, fib(25)); v != 75025 {
			b.Fatalf("fib(25) = %d", v)
		}
	}
}
