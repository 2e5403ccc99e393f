package core

import (
	"testing"
)

func TestFlatTopology(t *testing.T) {
	cohorts := FlatTopology{}.Cohorts(1, 4)
	if len(cohorts) != 1 {
		t.Fatalf("flat cohorts: got %d groups", len(cohorts))
	}
	want := []int{0, 2, 3}
	if len(cohorts[0]) != len(want) {
		t.Fatalf("close set: got %v", cohorts[0])
	}
	for i, v := range want {
		if cohorts[0][i] != v {
			t.Fatalf("close set: got %v, want %v", cohorts[0], want)
		}
	}
	if d := (FlatTopology{}).NumDomains(8); d != 1 {
		t.Fatalf("flat domains: got %d", d)
	}
}

func TestSplitTopology(t *testing.T) {
	tp := SplitTopology{Domains: 2}
	if d := tp.NumDomains(4); d != 2 {
		t.Fatalf("domains: got %d, want 2", d)
	}
	if tp.DomainOf(0, 4) != 0 || tp.DomainOf(3, 4) != 1 {
		t.Fatal("domain placement wrong")
	}

	cohorts := tp.Cohorts(0, 4)
	if len(cohorts) != 2 {
		t.Fatalf("cohorts of worker 0: got %d groups", len(cohorts))
	}
	if len(cohorts[0]) != 1 || cohorts[0][0] != 1 {
		t.Fatalf("close cohort: got %v", cohorts[0])
	}
	if len(cohorts[1]) != 2 {
		t.Fatalf("far cohort: got %v", cohorts[1])
	}
}

func TestNeighborhoodStealsFromCloseAndTail(t *testing.T) {
	thief := NewWorker(nil)
	near := NewWorker(nil)
	far := NewWorker(nil)

	h := NewNeighborhood([][]*Worker{{near}, {far}})
	thief.SetNeighborhood(h)

	var frames [2]Frame
	near.deque.Push(&frames[0])
	far.deque.Push(&frames[1])

	got := map[TaskHandle]bool{}
	for i := 0; i < 2; i++ {
		if t2 := thief.FindWork(); t2 != nil {
			got[t2] = true
		}
	}
	if !got[&frames[0]] || !got[&frames[1]] {
		t.Fatalf("did not reach both victims: %v", got)
	}
	if thief.FindWork() != nil {
		t.Fatal("found work on empty victims")
	}
}
