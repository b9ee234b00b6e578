// Package scratch implements the row-band worker's scratch-buffer pool:
// a thread-safe LIFO stack of reusable Sets, each wrapping everything one
// worker needs to run an engine over a band (the aggregators, trackers,
// and row scratch internal/engine.Scaffold owns). The mutex is held only
// across a slice push/pop; Go has no safe user-space spinlock under
// preemptible goroutines, so a sync.Mutex stands in for one.
package scratch

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/gostereo/disparity/internal/engine"
)

// Set is the scratch bundle one row-band worker borrows for the duration
// of its band. ID tags a newly-constructed set for log correlation when
// the pool has to grow.
type Set struct {
	ID       uuid.UUID
	cfg      engine.Config
	factory  engine.AggregatorFactory
	Scaffold *engine.Scaffold
}

func newSet(cfg engine.Config, factory engine.AggregatorFactory) *Set {
	return &Set{
		ID:       uuid.New(),
		cfg:      cfg,
		factory:  factory,
		Scaffold: engine.NewScaffold(cfg, factory),
	}
}

// resize rebuilds the Scaffold if cfg asks for more columns or more
// disparity hypotheses than this set was last built for; otherwise it
// reuses the existing (possibly larger) Scaffold after clearing its state.
// Growth persists: a set that grows to serve a large image never shrinks
// back down for a later, smaller borrower.
func (s *Set) resize(cfg engine.Config, factory engine.AggregatorFactory) {
	if cfg.Width <= s.cfg.Width && cfg.Params.SearchWidth() <= s.cfg.Params.SearchWidth() {
		s.Scaffold.Reset()
		return
	}
	s.cfg = cfg
	s.factory = factory
	s.Scaffold = engine.NewScaffold(cfg, factory)
}

// Pool is a thread-safe LIFO stack of Sets. Acquire constructs a new Set
// only when the stack is empty; Release returns a Set to the top of the
// stack so the next Acquire gets it back, maximizing cache locality for
// bursts of bands that exceed the steady-state worker count.
type Pool struct {
	mu      sync.Mutex
	stack   []*Set
	factory engine.AggregatorFactory
	logger  *slog.Logger
}

// NewPool constructs an empty pool that builds Sets for the given
// disparity engine (SadAggregator or GfAggregator). logger may be nil, in
// which case pool-growth events are logged through slog.Default().
func NewPool(factory engine.AggregatorFactory, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{factory: factory, logger: logger}
}

// Acquire pops the most recently released Set, resizing it for cfg, or
// constructs a new one if the pool is empty.
func (p *Pool) Acquire(cfg engine.Config) *Set {
	p.mu.Lock()
	n := len(p.stack)
	if n == 0 {
		p.mu.Unlock()
		set := newSet(cfg, p.factory)
		p.logger.Debug("scratch pool grew",
			"id", set.ID, "width", cfg.Width, "searchWidth", cfg.Params.SearchWidth())
		return set
	}
	set := p.stack[n-1]
	p.stack = p.stack[:n-1]
	p.mu.Unlock()

	set.resize(cfg, p.factory)
	return set
}

// Release returns set to the pool for reuse by a future Acquire.
func (p *Pool) Release(set *Set) {
	p.mu.Lock()
	p.stack = append(p.stack, set)
	p.mu.Unlock()
}

// Len reports how many Sets currently sit idle in the pool.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.stack)
}
