package weft

import (
	"runtime"

	"weft/core"
)

type config struct {
	workers    int
	topology   core.Topology
	pin        bool
	stackLimit int
}

func newConfig(opts []Option) config {
	cfg := config{
		workers:  runtime.NumCPU(),
		topology: core.FlatTopology{},
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.workers < 1 {
		cfg.workers = 1
	}
	return cfg
}

// An Option configures a pool.
type Option func(*config)

// WithWorkers sets the worker count. Default is the hardware parallelism.
func WithWorkers(n int) Option { return func(c *config) { c.workers = n } }

// WithTopology installs the worker topology used for steal-target selection
// and, on the lazy pool, the sleep/wake domains. Default is flat.
func WithTopology(t core.Topology) Option { return func(c *config) { c.topology = t } }

// WithPin locks each worker goroutine to an OS thread, letting an external
// binding collaborator pin those threads to processing units.
func WithPin() Option { return func(c *config) { c.pin = true } }

// WithStackLimit bounds each worker's segmented stack in bytes, surfacing
// exhaustion as ErrOutOfMemory. Zero means unlimited.
func WithStackLimit(n int) Option { return func(c *config) { c.stackLimit = n } }

// buildWorkers creates the worker contexts and wires their neighborhoods.
func buildWorkers(cfg config, notify func(i int)) []*core.Worker {
	n := cfg.workers
	ws := make([]*core.Worker, n)
	for i := 0; i < n; i++ {
		i := i
		ws[i] = core.NewWorker(func() { notify(i) })
		if cfg.stackLimit > 0 {
			ws[i].SetStackLimit(cfg.stackLimit)
		}
	}
	for i := 0; i < n; i++ {
		idx := cfg.topology.Cohorts(i, n)
		cohorts := make([][]*core.Worker, len(idx))
		for k, cohort := range idx {
			for _, j := range cohort {
				cohorts[k] = append(cohorts[k], ws[j])
			}
		}
		ws[i].SetNeighborhood(core.NewNeighborhood(cohorts))
	}
	return ws
}
