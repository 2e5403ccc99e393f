package weft

import (
	"testing"
)

func TestAllocSpan(t *testing.T) {
	u := NewUnit()
	defer u.Close()

	task := func(co *Coro) Step {
		sp := Alloc[int64](co, 100)
		s := sp.Slice()
		for i := range s {
			if s[i] != 0 {
				panic("span not zeroed")
			}
			s[i] = int64(i)
		}
		var sum int64
		for _, v := range s {
			sum += v
		}
		sp.Free(co)
		return Return(co, sum)
	}
	v, err := SyncWait(u, Task[int64](task))
	if err != nil {
		t.Fatalf("sync wait: %v", err)
	}
	if v != 4950 {
		t.Fatalf("sum = %d, want 4950", v)
	}
}

// Nested spans across a call: the child's allocations stack above the
// parent's and unwind first.
func TestAllocSpanNested(t *testing.T) {
	p := NewLazyPool(WithWorkers(2))
	defer p.Close()

	child := func(co *Coro) Step {
		sp := Alloc[uint32](co, 4096)
		s := sp.Slice()
		for i := range s {
			s[i] = 0xDEAD
		}
		sp.Free(co)
		return Return(co, 0)
	}
	parent := func(co *Coro) Step {
		sp := Alloc[uint32](co, 16)
		s := sp.Slice()
		for i := range s {
			s[i] = uint32(i)
		}
		return Call(co, Discard[int](), Task[int](child), func(co *Coro) Step {
			return Join(co, func(co *Coro) Step {
				sum := uint32(0)
				for _, v := range s {
					sum += v
				}
				sp.Free(co)
				return Return(co, int(sum))
			})
		})
	}
	v, err := SyncWait(p, Task[int](parent))
	if err != nil {
		t.Fatalf("sync wait: %v", err)
	}
	if v != 120 {
		t.Fatalf("sum = %d, want 120", v)
	}
}

func TestAllocStackLimit(t *testing.T) {
	p := NewLazyPool(WithWorkers(1), WithStackLimit(32*1024))
	defer p.Close()

	task := func(co *Coro) Step {
		sp := Alloc[byte](co, 1<<20)
		sp.Free(co)
		return Return(co, 0)
	}
	got := recoverFrom(func() { _, _ = SyncWait(p, Task[int](task)) })
	if got != ErrOutOfMemory {
		t.Fatalf("recovered %v, want ErrOutOfMemory", got)
	}
}
