package core

import "sort"

// Steal-target selection. Each worker sees its peers partitioned into a
// close neighborhood (first-hop cohort, tried exhaustively in random order)
// and a weighted tail of farther cohorts probed randomly, with per-member
// weight proportional to 1/(hop² · |cohort|).

// A Topology maps workers onto hop-distance cohorts. Implementations
// describe machine structure; the core only consumes the grouping.
type Topology interface {
	// Cohorts returns the peer indices of worker i among n workers grouped
	// by hop distance: cohorts[0] is the close set, cohorts[k] is k+1 hops
	// away. Peer lists must not contain i.
	Cohorts(i, n int) [][]int

	// NumDomains reports how many sleep/wake domains n workers form.
	NumDomains(n int) int

	// DomainOf places worker i of n in one of the NumDomains(n) domains.
	DomainOf(i, n int) int
}

// FlatTopology treats every peer as one hop away: a single domain, no tail.
type FlatTopology struct{}

func (FlatTopology) Cohorts(i, n int) [][]int {
	near := make([]int, 0, n-1)
	for j := 0; j < n; j++ {
		if j != i {
			near = append(near, j)
		}
	}
	return [][]int{near}
}

func (FlatTopology) NumDomains(int) int    { return 1 }
func (FlatTopology) DomainOf(int, int) int { return 0 }

// SplitTopology partitions workers into Domains contiguous cohorts.
// Same-partition peers are close; a peer d partitions away lands in
// cohorts[d].
// Useful to exercise the cross-domain waker invariants on machines without
// real NUMA structure.
type SplitTopology struct {
	Domains int
}

func (t SplitTopology) chunk(n int) int {
	d := t.Domains
	if d <= 0 {
		d = 1
	}
	c := n / d
	if n%d != 0 {
		c++
	}
	if c == 0 {
		c = 1
	}
	return c
}

func (t SplitTopology) Cohorts(i, n int) [][]int {
	chunk := t.chunk(n)
	mine := i / chunk
	var cohorts [][]int
	for j := 0; j < n; j++ {
		if j == i {
			continue
		}
		hop := j/chunk - mine
		if hop < 0 {
			hop = -hop
		}
		for len(cohorts) <= hop {
			cohorts = append(cohorts, nil)
		}
		cohorts[hop] = append(cohorts[hop], j)
	}
	if len(cohorts) == 0 {
		cohorts = [][]int{nil}
	}
	return cohorts
}

func (t SplitTopology) NumDomains(n int) int {
	if n == 0 {
		return 1
	}
	return (n + t.chunk(n) - 1) / t.chunk(n)
}

func (t SplitTopology) DomainOf(i, n int) int { return i / t.chunk(n) }

// A Neighborhood holds one worker's victim ordering.
type Neighborhood struct {
	close []*Worker

	tail []*Worker
	cum  []float64 // cumulative weights over tail

	probes int
}

// NewNeighborhood builds the selection state from hop-grouped victims:
// cohorts[0] becomes the close set, the rest the weighted tail.
func NewNeighborhood(cohorts [][]*Worker) *Neighborhood {
	h := &Neighborhood{}
	if len(cohorts) > 0 {
		h.close = append([]*Worker(nil), cohorts[0]...)
	}
	total := 0.0
	for k := 1; k < len(cohorts); k++ {
		c := cohorts[k]
		if len(c) == 0 {
			continue
		}
		hop := float64(k + 1)
		w := 1 / (hop * hop * float64(len(c)))
		for _, v := range c {
			total += w
			h.tail = append(h.tail, v)
			h.cum = append(h.cum, total)
		}
	}
	h.probes = 1024 + 32*len(h.close)
	return h
}

// steal performs one full selection round on behalf of thief: shuffle the
// close set and try each victim once, then weighted random probes into the
// tail, then give up. A lost race counts the same as an empty victim.
func (h *Neighborhood) steal(thief *Worker) TaskHandle {
	// Fisher–Yates over the close set, driven by the thief's generator.
	near := h.close
	for i := len(near) - 1; i > 0; i-- {
		j := int(thief.nextRand() % uint32(i+1))
		near[i], near[j] = near[j], near[i]
	}
	for _, v := range near {
		if t, res := v.TrySteal(); res == StealOK {
			return t
		}
	}

	if len(h.tail) == 0 {
		return nil
	}
	total := h.cum[len(h.cum)-1]
	for p := 0; p < h.probes; p++ {
		r := total * float64(thief.nextRand()) / (1 << 32)
		i := sort.SearchFloat64s(h.cum, r)
		if i >= len(h.tail) {
			i = len(h.tail) - 1
		}
		if t, res := h.tail[i].TrySteal(); res == StealOK {
			return t
		}
	}
	return nil
}
