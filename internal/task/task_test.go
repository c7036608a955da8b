package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noahpeltier/backgroundworker/pkg/contracts"
)

func TestTask_HappyPathTransitions(t *testing.T) {
	tsk := New("default", `"hi"`, nil, 0, " job ")
	assert.Equal(t, "job", tsk.Name)
	assert.Equal(t, contracts.StatusCreated, tsk.Status())
	assert.Nil(t, tsk.CompletedAt())

	require.NoError(t, tsk.MarkScheduled())
	assert.Equal(t, contracts.StatusScheduled, tsk.Status())

	require.NoError(t, tsk.MarkRunning())
	assert.Equal(t, contracts.StatusRunning, tsk.Status())
	snap := tsk.Snapshot()
	require.NotNil(t, snap.StartedAt)

	require.NoError(t, tsk.MarkCompleted())
	assert.Equal(t, contracts.StatusCompleted, tsk.Status())
	assert.NotNil(t, tsk.CompletedAt())

	select {
	case <-tsk.Completion.Done():
	default:
		t.Fatal("completion should have fired")
	}
}

func TestTask_TerminalIsAbsorbing(t *testing.T) {
	tsk := New("default", "1", nil, 0, "")
	require.NoError(t, tsk.MarkScheduled())
	require.NoError(t, tsk.MarkRunning())
	require.NoError(t, tsk.MarkCompleted())

	err := tsk.MarkFailed("late error")
	assert.Error(t, err)
	assert.Equal(t, contracts.StatusCompleted, tsk.Status())
}

func TestTask_ScheduledCanFailBeforeRunning(t *testing.T) {
	tsk := New("default", "1", nil, 0, "")
	require.NoError(t, tsk.MarkScheduled())

	require.NoError(t, tsk.MarkFailed("worker seed failed"))
	assert.Equal(t, contracts.StatusFailed, tsk.Status())
	assert.NotNil(t, tsk.CompletedAt())
	assert.False(t, tsk.Active())

	select {
	case <-tsk.Completion.Done():
	default:
		t.Fatal("completion should have fired")
	}
}

func TestTask_PreStartCancellation(t *testing.T) {
	tsk := New("default", "1", nil, 0, "")
	require.NoError(t, tsk.MarkScheduled())
	require.NoError(t, tsk.MarkCancelled())
	assert.Equal(t, contracts.StatusCancelled, tsk.Status())
}

func TestTask_CompletedAtOnlyWhenTerminal(t *testing.T) {
	tsk := New("default", "1", nil, 0, "")
	assert.Nil(t, tsk.CompletedAt())
	require.NoError(t, tsk.MarkScheduled())
	assert.Nil(t, tsk.CompletedAt())
	require.NoError(t, tsk.MarkRunning())
	assert.Nil(t, tsk.CompletedAt())
	require.NoError(t, tsk.MarkCompleted())
	assert.NotNil(t, tsk.CompletedAt())
}

func TestStreamBuffer_DrainThenDrainIsEmpty(t *testing.T) {
	b := NewStreamBuffer()
	b.Append("one")
	b.Append("two")

	first := b.Receive(false)
	assert.Equal(t, []interface{}{"one", "two"}, first)

	second := b.Receive(false)
	assert.Empty(t, second)
}

func TestStreamBuffer_KeepPreservesItems(t *testing.T) {
	b := NewStreamBuffer()
	b.Append("one")

	first := b.Receive(true)
	second := b.Receive(true)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), b.Len())
}

func TestProgressStream_LastIsOverwritten(t *testing.T) {
	p := NewProgressStream()
	p.Append(contracts.ProgressRecord{PercentComplete: 0, At: time.Now()})
	p.Append(contracts.ProgressRecord{PercentComplete: 50, At: time.Now()})
	p.Append(contracts.ProgressRecord{PercentComplete: 100, At: time.Now()})

	require.NotNil(t, p.Last())
	assert.Equal(t, 100, p.Last().PercentComplete)
	assert.Equal(t, int64(3), p.Len())
}
