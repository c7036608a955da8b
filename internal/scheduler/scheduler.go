// Package scheduler implements the façade (spec §4.7): pool registry, task
// indexing across pools, the configuration gateway, and the retention
// sweep. Grounded on the teacher's runcommand.RunCommandService, which plays
// the same "top-level coordinator wiring a carlescere/scheduler periodic job
// over a registry of per-name state" role that this package plays over
// pools instead of message processors.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/carlescere/scheduler"

	"github.com/noahpeltier/backgroundworker/internal/eventbus"
	"github.com/noahpeltier/backgroundworker/internal/executor"
	"github.com/noahpeltier/backgroundworker/internal/log"
	"github.com/noahpeltier/backgroundworker/internal/pool"
	"github.com/noahpeltier/backgroundworker/internal/session"
	"github.com/noahpeltier/backgroundworker/internal/task"
	"github.com/noahpeltier/backgroundworker/pkg/contracts"
)

// DefaultPoolName is the always-present, never-removable pool (spec §3 "Pool
// invariants").
const DefaultPoolName = "default"

// defaultSweepInterval is how often the retention sweep runs absent an
// override (spec §4.7 "Retention sweep runs every minute").
const defaultSweepInterval = 60 * time.Second

var (
	// ErrPoolNotFound is returned when an operation names a pool that does
	// not exist.
	ErrPoolNotFound = errors.New("scheduler: pool not found")
	// ErrDefaultPoolProtected is returned by RemovePool("default", ...).
	ErrDefaultPoolProtected = errors.New("scheduler: the default pool cannot be removed")
	// ErrTaskActive is returned when removing a task that has not reached a
	// terminal state.
	ErrTaskActive = errors.New("scheduler: task is still active")
	// ErrDisposed is returned by StartTask once Close has been called (spec
	// §7 "Disposal").
	ErrDisposed = errors.New("scheduler: scheduler is disposed")
)

// Scheduler is the single process-wide coordinator (spec §9 "Singleton vs.
// instance": an explicit object constructed once and passed around, rather
// than package-level globals).
type Scheduler struct {
	mu                sync.RWMutex
	log               log.T
	bus               *eventbus.Bus
	pools             map[string]*pool.Pool
	taskPool          map[string]string // task id -> owning pool name, for O(1) cross-pool lookup
	sweepJob          *scheduler.Job
	defaultResizeWait time.Duration
	disposed          bool
}

// Options carries the process-wide ambient tuning a Scheduler needs beyond
// per-pool settings (spec §9 "Throttle resize", §4.7 "Retention sweep"),
// normally sourced from appconfig.Config.
type Options struct {
	// SweepInterval overrides how often the retention sweep runs. Zero uses
	// defaultSweepInterval.
	SweepInterval time.Duration
	// DefaultResizeWait overrides the bound a newly created pool waits for
	// in-flight tasks to drain during a shrinking Resize, when the pool's
	// own Config.ResizeWaitBound is unset. Zero uses pool.DefaultResizeWaitBound.
	DefaultResizeWait time.Duration
}

// New constructs a scheduler with default options. See NewWithOptions.
func New(logger log.T) (*Scheduler, error) {
	return NewWithOptions(logger, Options{})
}

// NewWithOptions constructs a scheduler with a default pool already
// registered and starts the retention sweep at the given cadence.
func NewWithOptions(logger log.T, opts Options) (*Scheduler, error) {
	bus, err := eventbus.New(logger)
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}

	s := &Scheduler{
		log:               logger.WithContext("scheduler"),
		bus:               bus,
		pools:             make(map[string]*pool.Pool),
		taskPool:          make(map[string]string),
		defaultResizeWait: opts.DefaultResizeWait,
	}

	if _, err := s.createPoolLocked(DefaultPoolName, pool.Config{
		Min:       pool.DefaultMinWorkers,
		Max:       pool.DefaultMaxWorkers(),
		Retention: pool.DefaultRetention,
	}); err != nil {
		return nil, err
	}

	interval := opts.SweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	job, err := scheduler.Every(int(interval.Seconds())).Seconds().Run(s.sweep)
	if err != nil {
		return nil, fmt.Errorf("scheduler: starting retention sweep: %w", err)
	}
	s.sweepJob = job

	return s, nil
}

// Subscribe registers a process-wide event handler (spec §4.8, "single event
// source per process").
func (s *Scheduler) Subscribe(h eventbus.Handler) (func(), error) {
	return s.bus.Subscribe(h)
}

// Close stops the retention sweep and the event bus. After Close, StartTask
// returns ErrDisposed; the other operations do not check for disposal.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	s.mu.Unlock()

	if s.sweepJob != nil {
		s.sweepJob.Quit <- true
	}
	s.bus.Close()
}

func (s *Scheduler) checkDisposed() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.disposed {
		return ErrDisposed
	}
	return nil
}

// normalize lowercases a pool name, defaulting empty to "default" (spec §3
// "domain normalized to lowercase").
func normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultPoolName
	}
	return name
}

func (s *Scheduler) pool(name string) (*pool.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pools[normalize(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPoolNotFound, name)
	}
	return p, nil
}

// StartTask submits a new task for execution (spec §4.7 "StartTask").
func (s *Scheduler) StartTask(poolName, script string, args []string, deadline time.Duration, name string) (*task.Task, error) {
	if err := s.checkDisposed(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(script) == "" {
		return nil, errors.New("scheduler: script must not be empty")
	}

	key := normalize(poolName)
	p, err := s.pool(key)
	if err != nil {
		return nil, err
	}

	t := task.New(key, script, args, deadline, name)
	p.RegisterTask(t)

	s.mu.Lock()
	s.taskPool[t.ID] = key
	s.mu.Unlock()

	s.publish(t, contracts.EventCreated, nil)

	go func() {
		if err := executor.Run(context.Background(), s.log, p, t, s.bus); err != nil {
			s.log.Errorf("scheduler: task %s exited abnormally: %v", t.ID, err)
		}
	}()

	return t, nil
}

func (s *Scheduler) publish(t *task.Task, kind contracts.EventKind, progress *contracts.ProgressRecord) {
	s.bus.Publish(contracts.TaskEvent{
		TaskID:       t.ID,
		PoolName:     t.PoolName,
		Kind:         kind,
		Progress:     progress,
		TimestampUtc: time.Now().UTC(),
	})
}

// GetTask looks up a single task by id across every pool (spec §4.7
// "Look-up by id searches across pools").
func (s *Scheduler) GetTask(id string) (*task.Task, bool) {
	s.mu.RLock()
	poolName, ok := s.taskPool[id]
	if !ok {
		s.mu.RUnlock()
		return nil, false
	}
	p, ok := s.pools[poolName]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return p.Task(id)
}

// GetTasks returns tasks ordered by CreatedAt (spec §4.7 "GetTasks"),
// scoped to a pool when poolName is non-empty, or to the given ids.
func (s *Scheduler) GetTasks(poolName string, ids []string) ([]*task.Task, error) {
	var tasks []*task.Task

	if len(ids) > 0 {
		for _, id := range ids {
			if t, ok := s.GetTask(id); ok {
				tasks = append(tasks, t)
			}
		}
	} else if poolName != "" {
		p, err := s.pool(poolName)
		if err != nil {
			return nil, err
		}
		tasks = p.Tasks()
	} else {
		s.mu.RLock()
		pools := make([]*pool.Pool, 0, len(s.pools))
		for _, p := range s.pools {
			pools = append(pools, p)
		}
		s.mu.RUnlock()
		for _, p := range pools {
			tasks = append(tasks, p.Tasks()...)
		}
	}

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt().Before(tasks[j].CreatedAt()) })
	return tasks, nil
}

// StopTask fires the task's cancel signal (spec §4.7 "StopTask"). Returns
// false for an already-terminal task without error (spec §5 "StopTask on a
// terminal task is a no-op returning false").
func (s *Scheduler) StopTask(t *task.Task) bool {
	if !t.Active() {
		return false
	}
	t.CancelSignal.Fire()
	return true
}

// WaitTask blocks until t reaches a terminal state, cancel fires, or timeout
// elapses (whichever first); timeout <= 0 means wait indefinitely (spec §4.7
// "WaitTask").
func (s *Scheduler) WaitTask(ctx context.Context, t *task.Task, timeout time.Duration) bool {
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}
	select {
	case <-t.Completion.Done():
		return true
	case <-timeoutCh:
		return false
	case <-ctx.Done():
		return false
	}
}

// RemoveTasks removes a batch of terminal tasks, rejecting the whole batch
// if any named task is still active (spec §4.7 "RemoveTasks", §7 "State"
// error category, §8 invariant "RemoveTask on a Running task fails").
func (s *Scheduler) RemoveTasks(tasks []*task.Task) ([]string, error) {
	for _, t := range tasks {
		if t.Active() {
			return nil, fmt.Errorf("%w: %s", ErrTaskActive, t.ID)
		}
	}

	removed := make([]string, 0, len(tasks))
	for _, t := range tasks {
		s.mu.RLock()
		poolName := s.taskPool[t.ID]
		p, ok := s.pools[poolName]
		s.mu.RUnlock()
		if !ok {
			continue
		}
		if err := p.RemoveTask(t.ID); err != nil {
			return removed, err
		}
		s.mu.Lock()
		delete(s.taskPool, t.ID)
		s.mu.Unlock()
		removed = append(removed, t.ID)
	}
	return removed, nil
}

// Configure resizes and/or re-retains a pool (spec §4.7 "Configure").
func (s *Scheduler) Configure(poolName string, min, max int, retention time.Duration) (contracts.SchedulerSettings, error) {
	p, err := s.pool(poolName)
	if err != nil {
		return contracts.SchedulerSettings{}, err
	}
	if min < 1 {
		return contracts.SchedulerSettings{}, fmt.Errorf("scheduler: min workers must be >= 1, got %d", min)
	}
	if max < min {
		return contracts.SchedulerSettings{}, fmt.Errorf("scheduler: max workers (%d) must be >= min (%d)", max, min)
	}
	if err := p.Resize(min, max); err != nil {
		return contracts.SchedulerSettings{}, err
	}
	if retention > 0 {
		p.SetRetention(retention)
	}
	return p.SchedulerSettings(), nil
}

// GetSettings returns a pool's current sizing/retention config.
func (s *Scheduler) GetSettings(poolName string) (contracts.SchedulerSettings, error) {
	p, err := s.pool(poolName)
	if err != nil {
		return contracts.SchedulerSettings{}, err
	}
	return p.SchedulerSettings(), nil
}

// ConfigureSession rebuilds a pool's worker template (spec §4.7
// "ConfigureSession"). Fails fast, leaving the pool unchanged, if any task
// is active or if any module is unavailable.
func (s *Scheduler) ConfigureSession(poolName string, settings contracts.SessionSettings) (contracts.SessionSettings, error) {
	p, err := s.pool(poolName)
	if err != nil {
		return contracts.SessionSettings{}, err
	}
	if p.HasActiveTask() {
		return contracts.SessionSettings{}, fmt.Errorf("%w: tasks are active on pool %q", pool.ErrPoolActive, p.Name())
	}

	tmpl, err := session.Build(settings)
	if err != nil {
		return contracts.SessionSettings{}, err
	}
	if err := p.Rebuild(settings, tmpl); err != nil {
		return contracts.SessionSettings{}, err
	}
	return p.Settings(), nil
}

// GetSessionSettings returns a pool's current session configuration.
func (s *Scheduler) GetSessionSettings(poolName string) (contracts.SessionSettings, error) {
	p, err := s.pool(poolName)
	if err != nil {
		return contracts.SessionSettings{}, err
	}
	return p.Settings(), nil
}

// CreatePool creates a pool, or applies configuration overrides to an
// existing one of the same name (spec §4.4 "Create").
func (s *Scheduler) CreatePool(name string, cfg pool.Config) (contracts.PoolInfo, error) {
	key := normalize(name)

	s.mu.RLock()
	existing, ok := s.pools[key]
	s.mu.RUnlock()
	if ok {
		settings := cfg.Settings
		if len(settings.Modules) > 0 || len(settings.Variables) > 0 || settings.InitScript != "" {
			if _, err := s.ConfigureSession(key, settings); err != nil {
				return contracts.PoolInfo{}, err
			}
		}
		if cfg.Min > 0 || cfg.Max > 0 {
			min, max := existing.SchedulerSettings().MinWorkers, existing.SchedulerSettings().MaxWorkers
			if cfg.Min > 0 {
				min = cfg.Min
			}
			if cfg.Max > 0 {
				max = cfg.Max
			}
			if _, err := s.Configure(key, min, max, cfg.Retention); err != nil {
				return contracts.PoolInfo{}, err
			}
		} else if cfg.Retention > 0 {
			existing.SetRetention(cfg.Retention)
		}
		return existing.Info(), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createPoolLocked(key, cfg)
}

func (s *Scheduler) createPoolLocked(key string, cfg pool.Config) (contracts.PoolInfo, error) {
	if cfg.Min == 0 {
		cfg.Min = pool.DefaultMinWorkers
	}
	if cfg.Max == 0 {
		cfg.Max = pool.DefaultMaxWorkers()
	}
	if cfg.Retention == 0 {
		cfg.Retention = pool.DefaultRetention
	}
	if cfg.ResizeWaitBound == 0 {
		cfg.ResizeWaitBound = s.defaultResizeWait
	}

	tmpl, err := session.Build(cfg.Settings)
	if err != nil {
		return contracts.PoolInfo{}, err
	}
	p, err := pool.New(s.log, key, cfg, tmpl)
	if err != nil {
		return contracts.PoolInfo{}, err
	}
	s.pools[key] = p
	return p.Info(), nil
}

// RemovePool destroys a non-default pool (spec §4.4 "Remove", §4.7
// "RemovePool").
func (s *Scheduler) RemovePool(name string, force bool) error {
	key := normalize(name)
	if key == DefaultPoolName {
		return ErrDefaultPoolProtected
	}

	s.mu.Lock()
	p, ok := s.pools[key]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrPoolNotFound, name)
	}
	s.mu.Unlock()

	if p.HasActiveTask() && !force {
		return fmt.Errorf("%w: pool %q has active tasks", pool.ErrPoolActive, key)
	}
	if force {
		p.CancelAllActive()
	}

	s.mu.Lock()
	delete(s.pools, key)
	for id, owner := range s.taskPool {
		if owner == key {
			delete(s.taskPool, id)
		}
	}
	s.mu.Unlock()
	return nil
}

// GetPools lists every pool, or a single named one (spec §4.7 "GetPools").
func (s *Scheduler) GetPools(name string) ([]contracts.PoolInfo, error) {
	if name != "" {
		p, err := s.pool(name)
		if err != nil {
			return nil, err
		}
		return []contracts.PoolInfo{p.Info()}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]contracts.PoolInfo, 0, len(s.pools))
	for _, p := range s.pools {
		out = append(out, p.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// sweep evicts terminal tasks whose completion age exceeds their pool's
// retention (spec §4.7 "Retention sweep"). Invoked periodically by
// carlescere/scheduler; also callable directly from tests.
func (s *Scheduler) sweep() {
	s.mu.RLock()
	pools := make([]*pool.Pool, 0, len(s.pools))
	for _, p := range s.pools {
		pools = append(pools, p)
	}
	s.mu.RUnlock()

	now := time.Now().UTC()
	for _, p := range pools {
		retention := p.Retention()
		for _, t := range p.Tasks() {
			completedAt := t.CompletedAt()
			if completedAt == nil {
				continue
			}
			if now.Sub(*completedAt) >= retention {
				p.EvictTask(t.ID)
				s.mu.Lock()
				delete(s.taskPool, t.ID)
				s.mu.Unlock()
			}
		}
	}
}
