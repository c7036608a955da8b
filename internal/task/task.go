// Package task implements the Task record (spec §3 "Task") and its state
// machine (spec §4.1), grounded on the teacher's agent/task package:
// JobToken's id/job/cancelFlag shape becomes Task's ID/ScriptText/
// CancelSignal, and ChanneledCancelFlag's Set/Wait/State semantics become
// CancelSignal below.
package task

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/twinj/uuid"

	"github.com/noahpeltier/backgroundworker/pkg/contracts"
)

// ErrInvalidTransition is returned when a Mark* call would violate the
// state machine in spec §4.1.
type ErrInvalidTransition struct {
	From, To contracts.Status
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("task: invalid transition %s -> %s", e.From, e.To)
}

// CancelSignal is a one-shot trigger requesting cooperative stop, modeled
// on the teacher's ChanneledCancelFlag (agent/task/cancelflag.go).
type CancelSignal struct {
	once sync.Once
	ch   chan struct{}
}

// NewCancelSignal returns an unfired signal.
func NewCancelSignal() *CancelSignal {
	return &CancelSignal{ch: make(chan struct{})}
}

// Fire requests stop. Idempotent.
func (c *CancelSignal) Fire() { c.once.Do(func() { close(c.ch) }) }

// Fired reports whether Fire has been called.
func (c *CancelSignal) Fired() bool {
	select {
	case <-c.ch:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when Fire is called, for use in select
// statements composing this signal with a deadline timer (spec §4.6 step 5).
func (c *CancelSignal) Done() <-chan struct{} { return c.ch }

// Completion is a one-shot signal other code can await (spec §3).
type Completion struct {
	once sync.Once
	ch   chan struct{}
}

// NewCompletion returns an unfired completion signal.
func NewCompletion() *Completion {
	return &Completion{ch: make(chan struct{})}
}

// Fire marks the completion as reached. Idempotent.
func (c *Completion) Fire() { c.once.Do(func() { close(c.ch) }) }

// Done returns a channel closed once the task has reached a terminal state.
func (c *Completion) Done() <-chan struct{} { return c.ch }

// Task is the scheduler's internal record of one unit of work (spec §3).
type Task struct {
	mu sync.RWMutex

	ID         string
	Name       string
	PoolName   string
	ScriptText string
	Arguments  []string
	Deadline   time.Duration // zero means no deadline

	status        contracts.Status
	createdAt     time.Time
	startedAt     *time.Time
	completedAt   *time.Time
	failureReason string

	Output   *StreamBuffer
	Errors   *StreamBuffer
	Progress *ProgressStream

	CancelSignal *CancelSignal
	Completion   *Completion
}

// New creates a freshly Created task. id is process-unique (128-bit random,
// spec §3); name is trimmed and never used for lookup.
func New(poolName, script string, args []string, deadline time.Duration, name string) *Task {
	return &Task{
		ID:           uuid.NewV4().String(),
		Name:         strings.TrimSpace(name),
		PoolName:     poolName,
		ScriptText:   script,
		Arguments:    args,
		Deadline:     deadline,
		status:       contracts.StatusCreated,
		createdAt:    time.Now().UTC(),
		Output:       NewStreamBuffer(),
		Errors:       NewStreamBuffer(),
		Progress:     NewProgressStream(),
		CancelSignal: NewCancelSignal(),
		Completion:   NewCompletion(),
	}
}

// Status returns the current lifecycle status.
func (t *Task) Status() contracts.Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Active reports whether the task is in {Created, Scheduled, Running},
// i.e. counts against a pool's "no active task" invariants (spec §3, §4.4).
func (t *Task) Active() bool {
	switch t.Status() {
	case contracts.StatusCreated, contracts.StatusScheduled, contracts.StatusRunning:
		return true
	default:
		return false
	}
}

func (t *Task) transition(to contracts.Status) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !canTransition(t.status, to) {
		return &ErrInvalidTransition{From: t.status, To: to}
	}
	t.status = to
	return nil
}

// MarkScheduled: Created -> Scheduled (spec §4.1, §4.6 step 1).
func (t *Task) MarkScheduled() error { return t.transition(contracts.StatusScheduled) }

// MarkRunning: Scheduled -> Running, recording StartedAt the first and only
// time (spec §3 invariant, §4.6 step 3).
func (t *Task) MarkRunning() error {
	if err := t.transition(contracts.StatusRunning); err != nil {
		return err
	}
	t.mu.Lock()
	now := time.Now().UTC()
	t.startedAt = &now
	t.mu.Unlock()
	return nil
}

// markTerminal transitions to a terminal status, stamps CompletedAt exactly
// once, and fires Completion. Safe to call at most once successfully per
// task (spec invariant: "a task reaches a terminal state at most once").
func (t *Task) markTerminal(to contracts.Status, reason string) error {
	if err := t.transition(to); err != nil {
		return err
	}
	t.mu.Lock()
	now := time.Now().UTC()
	t.completedAt = &now
	if reason != "" {
		t.failureReason = reason
	}
	t.mu.Unlock()
	t.Completion.Fire()
	return nil
}

// MarkCompleted: Running -> Completed.
func (t *Task) MarkCompleted() error { return t.markTerminal(contracts.StatusCompleted, "") }

// MarkFailed: {Scheduled|Running} -> Failed, capturing the diagnostic reason.
func (t *Task) MarkFailed(reason string) error {
	return t.markTerminal(contracts.StatusFailed, reason)
}

// MarkCancelled: {Created|Scheduled|Running} -> Cancelled.
func (t *Task) MarkCancelled() error { return t.markTerminal(contracts.StatusCancelled, "") }

// MarkTimedOut: Running -> TimedOut. reason may carry the underlying engine
// error for diagnostics without affecting the TimedOut classification
// (spec §4.1 "deadline takes precedence").
func (t *Task) MarkTimedOut(reason string) error {
	return t.markTerminal(contracts.StatusTimedOut, reason)
}

// Snapshot renders the current state as the external DTO (spec §3, §6).
func (t *Task) Snapshot() contracts.TaskHandle {
	t.mu.RLock()
	defer t.mu.RUnlock()

	h := contracts.TaskHandle{
		ID:            t.ID,
		Name:          t.Name,
		PoolName:      t.PoolName,
		ScriptText:    t.ScriptText,
		Arguments:     append([]string(nil), t.Arguments...),
		Status:        t.status,
		CreatedAt:     t.createdAt,
		StartedAt:     t.startedAt,
		CompletedAt:   t.completedAt,
		FailureReason: t.failureReason,
		LastProgress:  t.Progress.Last(),
	}
	if t.Deadline > 0 {
		h.DeadlineSecs = t.Deadline.Seconds()
	}
	if t.startedAt != nil && t.completedAt != nil {
		d := t.completedAt.Sub(*t.startedAt)
		h.Duration = &d
	}
	return h
}

// CreatedAt returns the creation timestamp, used by the scheduler to order
// GetTasks results (spec §4.7).
func (t *Task) CreatedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.createdAt
}

// CompletedAt returns the completion timestamp, or nil if still active —
// used by the retention sweep (spec §4.7).
func (t *Task) CompletedAt() *time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.completedAt
}
