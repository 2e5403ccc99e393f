package weft

import (
	"runtime"
	"sync"
	"sync/atomic"

	"weft/core"
)

// BusyPool is the eager scheduler: workers that find no work spin through
// steal attempts instead of sleeping. Lowest latency, full CPU burn while
// idle; prefer LazyPool unless the pool is saturated for its whole
// lifetime.
type BusyPool struct {
	workers []*core.Worker

	next  atomic.Uint64
	stop  atomic.Bool
	roots sync.WaitGroup
	done  sync.WaitGroup
}

// NewBusyPool starts a busy pool.
func NewBusyPool(opts ...Option) *BusyPool {
	cfg := newConfig(opts)
	p := &BusyPool{}
	// Busy workers never sleep, so submission notifications are no-ops.
	p.workers = buildWorkers(cfg, func(int) {})

	p.done.Add(len(p.workers))
	for _, w := range p.workers {
		w := w
		go func() {
			defer p.done.Done()
			if cfg.pin {
				runtime.LockOSThread()
				defer runtime.UnlockOSThread()
			}
			w.BindGoroutine()
			defer w.UnbindGoroutine()
			p.loop(w)
		}()
	}
	return p
}

// Schedule delivers a submission to the next worker round-robin.
func (p *BusyPool) Schedule(n *core.SubmitNode) {
	i := p.next.Add(1) % uint64(len(p.workers))
	p.workers[i].Submit(n)
}

func (p *BusyPool) rootSubmitted() { p.roots.Add(1) }
func (p *BusyPool) rootDone()      { p.roots.Done() }

func (p *BusyPool) loop(w *core.Worker) {
	for !p.stop.Load() {
		if drainSubmissions(w) {
			continue
		}
		if h := w.FindWork(); h != nil {
			w.ResumeStolen(h)
			continue
		}
		runtime.Gosched()
	}
	// Keep draining submissions until empty on the way out.
	for drainSubmissions(w) {
	}
}

// Close waits for all submitted roots to complete, then stops the workers.
// Submitting during Close is undefined.
func (p *BusyPool) Close() {
	p.roots.Wait()
	p.stop.Store(true)
	p.done.Wait()
	for _, w := range p.workers {
		w.Finalize()
	}
}

// drainSubmissions resumes every queued submission in FIFO order,
// reporting whether there was any.
func drainSubmissions(w *core.Worker) bool {
	n := w.TryPopAll()
	if n == nil {
		return false
	}
	for ; n != nil; n = n.Next() {
		w.ResumeSubmitted(n)
	}
	return true
}
