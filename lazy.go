package weft

import (
	"runtime"
	"sync"
	"sync/atomic"

	"weft/core"
)

// LazyPool is the sleeping scheduler: a worker that repeatedly fails to
// find work parks on its domain's notifier instead of spinning. The
// sleep/wake protocol maintains, for every domain i with thief count T_i
// and sleeper count S_i, and global active count A:
//
//	A > 0  =>  for all i: T_i >= 1 or S_i = 0
//
// so as long as anything is running, every domain either has a thief
// watching for work to steal or has no one asleep to miss it.
type LazyPool struct {
	workers []*core.Worker
	domains []*lazyDomain
	domOf   []int

	active atomic.Int64
	next   atomic.Uint64
	stop   atomic.Bool
	roots  sync.WaitGroup
	done   sync.WaitGroup
}

type lazyDomain struct {
	thieves atomic.Int64
	note    *core.Notifier
}

// NewLazyPool starts a lazy pool.
func NewLazyPool(opts ...Option) *LazyPool {
	cfg := newConfig(opts)
	n := cfg.workers
	p := &LazyPool{
		domains: make([]*lazyDomain, cfg.topology.NumDomains(n)),
		domOf:   make([]int, n),
	}
	for i := range p.domains {
		p.domains[i] = &lazyDomain{note: core.NewNotifier()}
	}
	for i := 0; i < n; i++ {
		p.domOf[i] = cfg.topology.DomainOf(i, n)
	}

	// A submission must wake its target worker, and only the target may
	// drain its own inbox: wake the whole domain and let the sleepers
	// re-check their private state.
	p.workers = buildWorkers(cfg, func(i int) {
		p.domains[p.domOf[i]].note.NotifyAll()
	})

	p.done.Add(n)
	for i, w := range p.workers {
		i, w := i, w
		go func() {
			defer p.done.Done()
			if cfg.pin {
				runtime.LockOSThread()
				defer runtime.UnlockOSThread()
			}
			w.BindGoroutine()
			defer w.UnbindGoroutine()
			p.loop(w, p.domains[p.domOf[i]])
		}()
	}
	return p
}

// Schedule delivers a submission to the next worker round-robin and fires
// its notifier.
func (p *LazyPool) Schedule(n *core.SubmitNode) {
	i := p.next.Add(1) % uint64(len(p.workers))
	p.workers[i].Submit(n)
}

func (p *LazyPool) rootSubmitted() { p.roots.Add(1) }
func (p *LazyPool) rootDone()      { p.roots.Done() }

// beginWork moves a thief with work to the active state. Leaving the thief
// pool wakes a replacement when the domain would otherwise be unwatched,
// and the first activation of the whole pool wakes one thread per domain.
func (p *LazyPool) beginWork(d *lazyDomain) {
	if d.thieves.Add(-1) == 0 {
		d.note.Notify()
	}
	if p.active.Add(1) == 1 {
		for _, dm := range p.domains {
			dm.note.Notify()
		}
	}
}

// endWork returns an active worker to thieving.
func (p *LazyPool) endWork(d *lazyDomain) {
	p.active.Add(-1)
	d.thieves.Add(1)
}

func (p *LazyPool) loop(w *core.Worker, d *lazyDomain) {
	d.thieves.Add(1)
	for {
		if p.stop.Load() {
			break
		}

		if w.HasSubmissions() {
			p.beginWork(d)
			drainSubmissions(w)
			p.endWork(d)
			continue
		}

		if h := w.FindWork(); h != nil {
			p.beginWork(d)
			w.ResumeStolen(h)
			p.endWork(d)
			continue
		}

		// Nothing found: go to sleep. The submission and stop re-checks are
		// ordered before the commit so a concurrent producer either sees
		// our decrement or we see its submission.
		key := d.note.Prepare()
		if p.stop.Load() || w.HasSubmissions() {
			d.note.Cancel(key)
			continue
		}
		if d.thieves.Add(-1) == 0 && p.active.Load() > 0 {
			// We were the domain's last thief while work is in flight:
			// cancel the sleep and keep thieving.
			d.note.Cancel(key)
			d.thieves.Add(1)
			continue
		}
		d.note.Wait(key)
		d.thieves.Add(1)
	}
	d.thieves.Add(-1)

	// Keep draining submissions until empty on the way out.
	for drainSubmissions(w) {
	}
}

// Close waits for all submitted roots (detached ones included) to
// complete, then stops and wakes every worker. Submitting during Close is
// undefined.
func (p *LazyPool) Close() {
	p.roots.Wait()
	p.stop.Store(true)
	for _, d := range p.domains {
		d.note.NotifyAll()
	}
	p.done.Wait()
	for _, w := range p.workers {
		w.Finalize()
	}
}
