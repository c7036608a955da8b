// Package contracts holds the DTO shapes exchanged between the scheduler
// core and its external collaborators (the command surface, the TUI table
// renderer) per spec §6. Nothing in this package talks to a worker or an
// engine directly; it only shapes data.
package contracts

import (
	"time"

	"github.com/Jeffail/gabs"
)

// Status is the lifecycle state of a Task, per spec §4.1.
type Status string

const (
	StatusCreated   Status = "Created"
	StatusScheduled Status = "Scheduled"
	StatusRunning   Status = "Running"
	StatusCompleted Status = "Completed"
	StatusFailed    Status = "Failed"
	StatusCancelled Status = "Cancelled"
	StatusTimedOut  Status = "TimedOut"
)

// Terminal reports whether s is one of the absorbing states.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusTimedOut:
		return true
	default:
		return false
	}
}

// EventKind enumerates the lifecycle events the event bus (§4.8) publishes.
type EventKind string

const (
	EventCreated   EventKind = "Created"
	EventScheduled EventKind = "Scheduled"
	EventStarted   EventKind = "Started"
	EventProgress  EventKind = "Progress"
	EventCompleted EventKind = "Completed"
	EventFailed    EventKind = "Failed"
	EventCancelled EventKind = "Cancelled"
	EventTimedOut  EventKind = "TimedOut"
)

// StreamKind selects which of a task's three stream buffers an operation
// targets.
type StreamKind int

const (
	StreamOutput StreamKind = iota
	StreamError
	StreamProgress
)

// ProgressRecord is one progress emission from a running script.
type ProgressRecord struct {
	Activity        string
	Status          string
	PercentComplete int
	At              time.Time
}

// TaskHandle is the immutable-ish external view of a Task (spec §3).
// Everything here is a snapshot taken at the moment the caller asked for it.
type TaskHandle struct {
	ID           string
	Name         string
	PoolName     string
	ScriptText   string
	Arguments    []string
	DeadlineSecs float64 // 0 means no deadline
	Status       Status
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	Duration     *time.Duration
	FailureReason string
	LastProgress *ProgressRecord
}

// ToJSON renders the handle as a queryable gabs document, the shape the
// (out of scope) command surface would print as a structured object.
func (h TaskHandle) ToJSON() *gabs.Container {
	c := gabs.New()
	_, _ = c.Set(h.ID, "id")
	_, _ = c.Set(h.Name, "name")
	_, _ = c.Set(h.PoolName, "pool")
	_, _ = c.Set(string(h.Status), "status")
	_, _ = c.Set(h.CreatedAt, "createdAt")
	if h.StartedAt != nil {
		_, _ = c.Set(*h.StartedAt, "startedAt")
	}
	if h.CompletedAt != nil {
		_, _ = c.Set(*h.CompletedAt, "completedAt")
	}
	if h.Duration != nil {
		_, _ = c.Set(h.Duration.String(), "duration")
	}
	if h.FailureReason != "" {
		_, _ = c.Set(h.FailureReason, "failureReason")
	}
	if h.LastProgress != nil {
		_, _ = c.Set(h.LastProgress.PercentComplete, "lastProgress", "percentComplete")
		_, _ = c.Set(h.LastProgress.Activity, "lastProgress", "activity")
	}
	return c
}

// SessionSettings is the public view of a pool's worker seed state (spec §3).
type SessionSettings struct {
	Modules    []string
	Variables  map[string]interface{}
	InitScript string
}

// ToJSON renders the session settings as a queryable document.
func (s SessionSettings) ToJSON() *gabs.Container {
	c := gabs.New()
	_, _ = c.Set(s.Modules, "modules")
	for k, v := range s.Variables {
		_, _ = c.Set(v, "variables", k)
	}
	if s.InitScript != "" {
		_, _ = c.Set(s.InitScript, "initScript")
	}
	return c
}

// SchedulerSettings is the public view of a pool's sizing/retention config.
type SchedulerSettings struct {
	MinWorkers int
	MaxWorkers int
	Retention  time.Duration
}

// PoolInfo is the public view of a pool (spec §3).
type PoolInfo struct {
	Name         string
	MinWorkers   int
	MaxWorkers   int
	Retention    time.Duration
	Modules      []string
	InitScript   string
	TaskCount    int
	ActiveCount  int
}

// ToJSON renders the pool info as a queryable document.
func (p PoolInfo) ToJSON() *gabs.Container {
	c := gabs.New()
	_, _ = c.Set(p.Name, "name")
	_, _ = c.Set(p.MinWorkers, "min")
	_, _ = c.Set(p.MaxWorkers, "max")
	_, _ = c.Set(p.Retention.String(), "retention")
	_, _ = c.Set(p.Modules, "modules")
	_, _ = c.Set(p.TaskCount, "taskCount")
	_, _ = c.Set(p.ActiveCount, "activeCount")
	return c
}

// ModuleCheckResult is the outcome of probing a single module name (spec §4.3).
type ModuleCheckResult struct {
	Name      string
	Available bool
	Location  string
	Message   string
}

// TaskEvent is the payload published on the event bus (spec §4.8).
type TaskEvent struct {
	TaskID       string
	PoolName     string
	Kind         EventKind
	Progress     *ProgressRecord
	TimestampUtc time.Time
}
