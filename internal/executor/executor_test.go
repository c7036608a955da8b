package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noahpeltier/backgroundworker/internal/log"
	"github.com/noahpeltier/backgroundworker/internal/pool"
	"github.com/noahpeltier/backgroundworker/internal/session"
	"github.com/noahpeltier/backgroundworker/internal/task"
	"github.com/noahpeltier/backgroundworker/pkg/contracts"
)

type recordingPublisher struct {
	events []contracts.TaskEvent
}

func (r *recordingPublisher) Publish(evt contracts.TaskEvent) { r.events = append(r.events, evt) }

func (r *recordingPublisher) kinds() []contracts.EventKind {
	out := make([]contracts.EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func newTestPool(t *testing.T, settings contracts.SessionSettings) *pool.Pool {
	t.Helper()
	tmpl, err := session.Build(settings)
	require.NoError(t, err)
	p, err := pool.New(log.NewMockLog(), "default", pool.Config{Min: 1, Max: 1, Settings: settings}, tmpl)
	require.NoError(t, err)
	return p
}

func TestRun_happyPathCompletes(t *testing.T) {
	p := newTestPool(t, contracts.SessionSettings{})
	tsk := task.New("default", `output("hi");`, nil, 0, "")
	pub := &recordingPublisher{}

	err := Run(context.Background(), log.NewMockLog(), p, tsk, pub)
	require.NoError(t, err)
	assert.Equal(t, contracts.StatusCompleted, tsk.Status())
	assert.Equal(t, []interface{}{"hi"}, tsk.Output.Receive(false))
	assert.Contains(t, pub.kinds(), contracts.EventCompleted)
}

func TestRun_scriptErrorClassifiesFailed(t *testing.T) {
	p := newTestPool(t, contracts.SessionSettings{})
	tsk := task.New("default", `throw new Error("boom")`, nil, 0, "")
	pub := &recordingPublisher{}

	err := Run(context.Background(), log.NewMockLog(), p, tsk, pub)
	require.NoError(t, err)
	assert.Equal(t, contracts.StatusFailed, tsk.Status())
	assert.Contains(t, pub.kinds(), contracts.EventFailed)
}

func TestRun_deadlineExceededClassifiesTimedOut(t *testing.T) {
	p := newTestPool(t, contracts.SessionSettings{})
	tsk := task.New("default", `sleep(5000)`, nil, 30*time.Millisecond, "")
	pub := &recordingPublisher{}

	err := Run(context.Background(), log.NewMockLog(), p, tsk, pub)
	require.NoError(t, err)
	assert.Equal(t, contracts.StatusTimedOut, tsk.Status())
	assert.Contains(t, pub.kinds(), contracts.EventTimedOut)
}

func TestRun_explicitCancelClassifiesCancelled(t *testing.T) {
	p := newTestPool(t, contracts.SessionSettings{})
	tsk := task.New("default", `sleep(5000)`, nil, 0, "")
	pub := &recordingPublisher{}

	go func() {
		time.Sleep(30 * time.Millisecond)
		tsk.CancelSignal.Fire()
	}()

	err := Run(context.Background(), log.NewMockLog(), p, tsk, pub)
	require.NoError(t, err)
	assert.Equal(t, contracts.StatusCancelled, tsk.Status())
	assert.Contains(t, pub.kinds(), contracts.EventCancelled)
}

func TestRun_cancelledBeforeAdmissionSkipsWorker(t *testing.T) {
	p := newTestPool(t, contracts.SessionSettings{})
	tsk := task.New("default", `"unreached"`, nil, 0, "")
	tsk.CancelSignal.Fire()
	pub := &recordingPublisher{}

	err := Run(context.Background(), log.NewMockLog(), p, tsk, pub)
	require.NoError(t, err)
	assert.Equal(t, contracts.StatusCancelled, tsk.Status())
}

func TestRun_lendEngineFailureClassifiesFailed(t *testing.T) {
	p := newTestPool(t, contracts.SessionSettings{})
	// Check out the pool's sole prewarmed worker directly, so the task
	// below passes admission (the gate slot is untouched) but then finds
	// LendEngine unable to hand it a worker — the task is still Scheduled
	// at that point, not yet Running.
	stuck, err := p.LendEngine()
	require.NoError(t, err)
	defer p.ReturnEngine(stuck)

	tsk := task.New("default", `"unreached"`, nil, 0, "")
	pub := &recordingPublisher{}

	runErr := Run(context.Background(), log.NewMockLog(), p, tsk, pub)
	require.Error(t, runErr)
	assert.Equal(t, contracts.StatusFailed, tsk.Status())
	assert.Contains(t, pub.kinds(), contracts.EventFailed)
	select {
	case <-tsk.Completion.Done():
	default:
		t.Fatal("completion signal not fired on LendEngine failure")
	}
}

func TestRun_progressHookRecordsLast(t *testing.T) {
	p := newTestPool(t, contracts.SessionSettings{})
	tsk := task.New("default", `progress("work", "running", 50); "ok"`, nil, 0, "")
	pub := &recordingPublisher{}

	err := Run(context.Background(), log.NewMockLog(), p, tsk, pub)
	require.NoError(t, err)
	require.NotNil(t, tsk.Progress.Last())
	assert.Equal(t, 50, tsk.Progress.Last().PercentComplete)
	assert.Contains(t, pub.kinds(), contracts.EventProgress)
}
