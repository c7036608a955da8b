// Package executor implements the per-task run loop (spec §4.6), grounded on
// the teacher's agent/task.Pool.Submit combined with agent/plugins/runscript's
// plugin invocation shape: acquire a slot, run the interpreter, report the
// outcome. Cancellation composition (explicit stop OR deadline) follows the
// teacher's ChanneledCancelFlag.Wait pattern, generalized to a select over
// two channels instead of one.
package executor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/noahpeltier/backgroundworker/internal/engine"
	"github.com/noahpeltier/backgroundworker/internal/log"
	"github.com/noahpeltier/backgroundworker/internal/pool"
	"github.com/noahpeltier/backgroundworker/internal/task"
	"github.com/noahpeltier/backgroundworker/pkg/contracts"
)

// Publisher is the subset of eventbus.Bus the executor needs; kept as an
// interface so executor does not import eventbus (avoiding a needless
// dependency edge — the scheduler wires the concrete bus in).
type Publisher interface {
	Publish(contracts.TaskEvent)
}

// Run drives one task from Created through a terminal state against p,
// implementing the eight steps of spec §4.6. It blocks until the task
// reaches a terminal state or ctx is cancelled before admission is granted.
func Run(ctx context.Context, logger log.T, p *pool.Pool, t *task.Task, pub Publisher) error {
	l := logger.WithContext("executor", t.ID)

	// Step 1: Created -> Scheduled.
	if err := t.MarkScheduled(); err != nil {
		return err
	}
	l.Debugf("task %s scheduled on pool %q", t.ID, t.PoolName)
	publish(pub, t, contracts.EventScheduled, nil)

	// Step 2: admission wait. A task already cancelled while queued for a
	// slot should not occupy one at all (spec §4.1 "pre-start cancellation").
	admissionCtx := ctx
	if t.CancelSignal.Fired() {
		_ = t.MarkCancelled()
		publish(pub, t, contracts.EventCancelled, nil)
		return nil
	}
	if err := p.AcquireWorker(admissionCtx); err != nil {
		_ = t.MarkCancelled()
		publish(pub, t, contracts.EventCancelled, nil)
		return fmt.Errorf("executor: admission wait for task %s: %w", t.ID, err)
	}
	defer p.ReleaseWorker()
	if t.CancelSignal.Fired() {
		_ = t.MarkCancelled()
		publish(pub, t, contracts.EventCancelled, nil)
		return nil
	}

	worker, err := p.LendEngine()
	if err != nil {
		_ = t.MarkFailed(err.Error())
		publish(pub, t, contracts.EventFailed, nil)
		return err
	}
	defer p.ReturnEngine(worker)

	// Step 3: Scheduled -> Running.
	if err := t.MarkRunning(); err != nil {
		return err
	}
	l.Debugf("task %s running", t.ID)
	publish(pub, t, contracts.EventStarted, nil)

	// Step 4: wire stream handlers so script output reaches the task's
	// buffers and the event bus without the engine package knowing about
	// either (spec §4.2, §4.8).
	hooks := engine.Hooks{
		Output: func(line string) {
			t.Output.Append(line)
		},
		Error: func(line string) {
			t.Errors.Append(line)
		},
		Progress: func(activity, status string, pct int) {
			rec := contracts.ProgressRecord{Activity: activity, Status: status, PercentComplete: pct, At: time.Now().UTC()}
			t.Progress.Append(rec)
			publish(pub, t, contracts.EventProgress, &rec)
		},
	}

	// Step 5: compose cancellation — explicit CancelSignal, or the
	// deadline, whichever fires first. The watcher records which of the
	// two it saw first in stopReason, and classify uses that firing order
	// to choose between Cancelled and TimedOut.
	stop := make(chan struct{})
	deadlineFired := make(chan struct{})
	var timer *time.Timer
	if t.Deadline > 0 {
		timer = time.AfterFunc(t.Deadline, func() {
			close(deadlineFired)
		})
		defer timer.Stop()
	}

	var stopReason atomic.Value // stores "deadline" or "cancel"
	stopOnce := make(chan struct{})
	go func() {
		select {
		case <-t.CancelSignal.Done():
			stopReason.Store("cancel")
		case <-deadlineFired:
			stopReason.Store("deadline")
		case <-stopOnce:
			return
		}
		close(stop)
		worker.Stop("stopped")
	}()
	defer close(stopOnce)

	worker.Prepare(hooks, stop, t.Arguments)

	// Step 6: submit the script, guarded by the one-shot init prelude.
	script := engine.PrependInit(p.Settings().InitScript, t.ScriptText)

	// Step 7: await completion — Run is synchronous, so this call itself is
	// the wait.
	result, runErr := worker.Run(script)

	// Step 8: classify the terminal state.
	return classify(t, pub, result, runErr, &stopReason)
}

func classify(t *task.Task, pub Publisher, result string, runErr error, stopReason *atomic.Value) error {
	reason, _ := stopReason.Load().(string)
	switch {
	case runErr == nil:
		if result != "" {
			t.Output.Append(result)
		}
		_ = t.MarkCompleted()
		publish(pub, t, contracts.EventCompleted, nil)
		return nil

	case isInterrupted(runErr) || reason != "":
		// stopReason holds whichever signal the watcher saw first, so the
		// classification follows firing order (spec §4.1). An error the
		// script raised after being stopped is absorbed into that
		// classification; for a deadline it is kept as FailureReason.
		if reason == "deadline" {
			detail := fmt.Sprintf("exceeded deadline of %s", t.Deadline)
			if !isInterrupted(runErr) {
				detail += ": " + runErr.Error()
			}
			_ = t.MarkTimedOut(detail)
			publish(pub, t, contracts.EventTimedOut, nil)
			return nil
		}
		_ = t.MarkCancelled()
		publish(pub, t, contracts.EventCancelled, nil)
		return nil

	default:
		_ = t.MarkFailed(runErr.Error())
		publish(pub, t, contracts.EventFailed, nil)
		return nil
	}
}

func isInterrupted(err error) bool {
	return err == engine.ErrInterrupted
}

func publish(pub Publisher, t *task.Task, kind contracts.EventKind, progress *contracts.ProgressRecord) {
	if pub == nil {
		return
	}
	pub.Publish(contracts.TaskEvent{
		TaskID:       t.ID,
		PoolName:     t.PoolName,
		Kind:         kind,
		Progress:     progress,
		TimestampUtc: time.Now().UTC(),
	})
}
