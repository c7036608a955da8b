// Package pool implements the Pool (spec §3, §4.4): a bank of reusable
// script-engine worker contexts plus a per-pool admission gate. Grounded on
// the teacher's agent/task.pool, generalized from a fixed-size channel
// counting loop to golang.org/x/sync/semaphore.Weighted, a teacher
// dependency better suited to the grow/shrink-by-delta semantics Configure
// requires (spec §4.7).
package pool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/semaphore"

	"github.com/noahpeltier/backgroundworker/internal/engine"
	"github.com/noahpeltier/backgroundworker/internal/log"
	"github.com/noahpeltier/backgroundworker/internal/session"
	"github.com/noahpeltier/backgroundworker/internal/task"
	"github.com/noahpeltier/backgroundworker/pkg/contracts"
)

// Defaults per spec §4.4.
const (
	DefaultMinWorkers       = 1
	DefaultRetention        = 30 * time.Minute
	DefaultResizeWaitBound  = 10 * time.Second
	DefaultNameNormalizedAs = "default"
)

// ErrPoolActive is returned when an operation that requires an idle pool
// (template rebuild, session reconfiguration) is attempted while a task is
// Created, Scheduled, or Running (spec §3, §4.4, §4.5, §7).
var ErrPoolActive = errors.New("pool: tasks are active")

// ErrGateResizeTimeout is returned when Resize cannot shrink the admission
// gate within the bounded wait (spec §9 "Throttle resize").
var ErrGateResizeTimeout = errors.New("pool: timed out waiting for workers to drain during resize")

// DefaultMaxWorkers mirrors spec §4.4: max(2, logical-cpus).
func DefaultMaxWorkers() int {
	if n := runtime.NumCPU(); n > 2 {
		return n
	}
	return 2
}

// Pool owns a bank of worker contexts and the admission gate bounding how
// many of a pool's tasks may be Running concurrently (spec §3 "Pool").
type Pool struct {
	mu sync.RWMutex

	log  log.T
	name string // case-insensitive unique key, stored lowercase

	min, max        int
	retention       time.Duration
	resizeWaitBound time.Duration

	settings contracts.SessionSettings
	template *session.Template

	gate     *semaphore.Weighted
	inFlight int64

	idle    chan *engine.Worker
	created int

	tasks map[string]*task.Task
}

// Config bundles the optional arguments to New (spec §4.4 "Create").
type Config struct {
	Min, Max        int
	Retention       time.Duration
	Settings        contracts.SessionSettings
	ResizeWaitBound time.Duration
}

// New builds a pool from validated settings. Callers (the scheduler façade)
// are responsible for resolving defaults and probing modules via
// session.Build before calling New.
func New(logger log.T, name string, cfg Config, template *session.Template) (*Pool, error) {
	if cfg.Min < 1 {
		return nil, fmt.Errorf("pool %q: min workers must be >= 1, got %d", name, cfg.Min)
	}
	if cfg.Max < cfg.Min {
		return nil, fmt.Errorf("pool %q: max workers (%d) must be >= min (%d)", name, cfg.Max, cfg.Min)
	}
	wait := cfg.ResizeWaitBound
	if wait <= 0 {
		wait = DefaultResizeWaitBound
	}

	p := &Pool{
		log:             logger.WithContext("pool", name),
		name:            name,
		min:             cfg.Min,
		max:             cfg.Max,
		retention:       cfg.Retention,
		resizeWaitBound: wait,
		settings:        cfg.Settings,
		template:        template,
		gate:            semaphore.NewWeighted(int64(cfg.Max)),
		idle:            make(chan *engine.Worker, cfg.Max),
		tasks:           make(map[string]*task.Task),
	}

	for i := 0; i < cfg.Min; i++ {
		w, err := p.newWorker()
		if err != nil {
			return nil, err
		}
		p.idle <- w
	}

	return p, nil
}

func (p *Pool) newWorker() (*engine.Worker, error) {
	w, err := engine.NewWorker(p.template.Seed)
	if err != nil {
		return nil, fmt.Errorf("pool %q: %w", p.name, err)
	}
	p.created++
	return w, nil
}

// Name returns the pool's normalized (lowercase) name.
func (p *Pool) Name() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.name
}

// AcquireWorker blocks on the admission gate until a slot is free or ctx is
// done (spec §4.4 "AcquireWorker", §5 "Admission").
func (p *Pool) AcquireWorker(ctx context.Context) error {
	p.mu.RLock()
	gate := p.gate
	p.mu.RUnlock()

	if err := gate.Acquire(ctx, 1); err != nil {
		return err
	}
	p.mu.Lock()
	p.inFlight++
	p.mu.Unlock()
	return nil
}

// ReleaseWorker returns an admission slot.
func (p *Pool) ReleaseWorker() {
	p.mu.RLock()
	gate := p.gate
	p.mu.RUnlock()

	gate.Release(1)
	p.mu.Lock()
	p.inFlight--
	p.mu.Unlock()
}

// LendEngine yields a worker-context handle bound to the pool's template
// (spec §4.4 "LendEngine"). Workers are reused from the idle bank; a new
// one is materialized on demand up to Max.
func (p *Pool) LendEngine() (*engine.Worker, error) {
	// The whole operation holds mu so it serializes against swapGate's
	// close-and-replace of idle; a lock-free channel op here could send on
	// or receive from a channel mid-swap.
	p.mu.Lock()
	defer p.mu.Unlock()

	select {
	case w := <-p.idle:
		return w, nil
	default:
	}

	if p.created >= p.max {
		// All Max workers are already checked out; AcquireWorker's gate
		// guarantees this branch is only reached transiently, but guard
		// anyway rather than unbounded worker creation.
		return nil, fmt.Errorf("pool %q: no worker available", p.name)
	}
	return p.newWorker()
}

// ReturnEngine places a worker back in the idle bank for reuse.
func (p *Pool) ReturnEngine(w *engine.Worker) {
	p.mu.Lock()
	defer p.mu.Unlock()
	select {
	case p.idle <- w:
	default:
		// idle bank is sized to Max so this should never block; if it
		// somehow would, drop the worker rather than leak the goroutine.
	}
}

// RegisterTask adds a newly created task to this pool's index (spec §3
// "Tasks").
func (p *Pool) RegisterTask(t *task.Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks[t.ID] = t
}

// Task looks up a task by id within this pool.
func (p *Pool) Task(id string) (*task.Task, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	t, ok := p.tasks[id]
	return t, ok
}

// Tasks returns every task currently indexed by this pool.
func (p *Pool) Tasks() []*task.Task {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*task.Task, 0, len(p.tasks))
	for _, t := range p.tasks {
		out = append(out, t)
	}
	return out
}

// EvictTask removes a task from the index (spec §4.7 "Retention sweep").
// The caller must have already verified the task is terminal and aged out.
func (p *Pool) EvictTask(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.tasks, id)
}

// RemoveTask removes a terminal task on request (spec §4.7 "RemoveTasks").
func (p *Pool) RemoveTask(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.tasks[id]
	if !ok {
		return nil
	}
	if t.Active() {
		return fmt.Errorf("task %q is still active", id)
	}
	delete(p.tasks, id)
	return nil
}

// hasActiveTask reports whether any indexed task is Created/Scheduled/Running
// (spec §4.4, §4.5 invariant gating Rebuild/ConfigureSession).
func (p *Pool) hasActiveTask() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, t := range p.tasks {
		if t.Active() {
			return true
		}
	}
	return false
}

// Info renders the pool's public snapshot (spec §3 "PoolInfo").
func (p *Pool) Info() contracts.PoolInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()

	active := 0
	for _, t := range p.tasks {
		if t.Status() == contracts.StatusRunning {
			active++
		}
	}
	return contracts.PoolInfo{
		Name:        p.name,
		MinWorkers:  p.min,
		MaxWorkers:  p.max,
		Retention:   p.retention,
		Modules:     append([]string(nil), p.settings.Modules...),
		InitScript:  p.settings.InitScript,
		TaskCount:   len(p.tasks),
		ActiveCount: active,
	}
}

// Settings returns the pool's current session settings.
func (p *Pool) Settings() contracts.SessionSettings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.settings
}

// SchedulerSettings returns the pool's current sizing/retention config.
func (p *Pool) SchedulerSettings() contracts.SchedulerSettings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return contracts.SchedulerSettings{MinWorkers: p.min, MaxWorkers: p.max, Retention: p.retention}
}

// Retention returns the pool's current retention duration.
func (p *Pool) Retention() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.retention
}

// SetRetention updates the retention duration; always permitted (it does
// not touch the worker bank or session state).
func (p *Pool) SetRetention(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.retention = d
}

// Rebuild atomically replaces the template and the underlying worker bank
// (spec §4.4 "Rebuild"). Rejected while any task is Created/Scheduled/
// Running, per §9 "Worker reuse across session changes": because workers
// persist engine state, a partial rebuild would violate visibility
// guarantees.
func (p *Pool) Rebuild(settings contracts.SessionSettings, template *session.Template) error {
	if p.hasActiveTask() {
		return ErrPoolActive
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Drain and discard the current idle bank; Min workers are seeded from
	// the new template right away, the rest lazily as LendEngine needs them.
	for {
		select {
		case <-p.idle:
			continue
		default:
		}
		break
	}
	p.created = 0
	p.settings = settings
	p.template = template

	for i := 0; i < p.min; i++ {
		w, err := p.newWorker()
		if err != nil {
			return err
		}
		p.idle <- w
	}
	return nil
}

// Resize changes Min/Max, growing or shrinking the admission gate (spec
// §4.7 "Configure"). Shrinking blocks, bounded by resizeWaitBound, until
// enough in-flight tasks have released their slot; exceeding the bound
// returns ErrGateResizeTimeout and leaves Max unchanged (spec §9 "Throttle
// resize").
func (p *Pool) Resize(min, max int) error {
	if min < 1 {
		return fmt.Errorf("pool: min workers must be >= 1, got %d", min)
	}
	if max < min {
		return fmt.Errorf("pool: max workers (%d) must be >= min (%d)", max, min)
	}

	p.mu.Lock()
	oldMax := p.max
	p.min = min
	if max == oldMax {
		p.max = max
		p.mu.Unlock()
		return nil
	}
	growing := max > oldMax
	p.mu.Unlock()

	if growing {
		p.swapGate(max)
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = p.resizeWaitBound
	err := backoff.Retry(func() error {
		p.mu.RLock()
		n := p.inFlight
		p.mu.RUnlock()
		if n <= int64(max) {
			return nil
		}
		return fmt.Errorf("pool: %d tasks still running, want <= %d", n, max)
	}, b)
	if err != nil {
		return ErrGateResizeTimeout
	}

	p.swapGate(max)
	return nil
}

func (p *Pool) swapGate(newMax int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	newGate := semaphore.NewWeighted(int64(newMax))
	if p.inFlight > 0 {
		_ = newGate.TryAcquire(p.inFlight)
	}
	p.gate = newGate
	p.max = newMax
	idleCap := make(chan *engine.Worker, newMax)
	close(p.idle)
	for w := range p.idle {
		select {
		case idleCap <- w:
		default:
		}
	}
	p.idle = idleCap
}

// CancelAllActive fires CancelSignal on every active task (spec §4.4
// "Remove(force)").
func (p *Pool) CancelAllActive() {
	p.mu.RLock()
	tasks := make([]*task.Task, 0, len(p.tasks))
	for _, t := range p.tasks {
		tasks = append(tasks, t)
	}
	p.mu.RUnlock()

	for _, t := range tasks {
		if t.Active() {
			t.CancelSignal.Fire()
		}
	}
}

// HasActiveTask exposes hasActiveTask for callers outside the package that
// need the same invariant (e.g. the scheduler façade's ConfigureSession).
func (p *Pool) HasActiveTask() bool { return p.hasActiveTask() }
