package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorker_RunReturnsFinalValue(t *testing.T) {
	w, err := NewWorker(nil)
	require.NoError(t, err)

	w.Prepare(Hooks{}, make(chan struct{}), []string{"50"})
	result, err := w.Run(`"done-" + args[0]`)
	require.NoError(t, err)
	assert.Equal(t, "done-50", result)
}

func TestWorker_StreamHooksCalled(t *testing.T) {
	w, err := NewWorker(nil)
	require.NoError(t, err)

	var outputs, errs []string
	var lastPct int
	w.Prepare(Hooks{
		Output:   func(l string) { outputs = append(outputs, l) },
		Error:    func(l string) { errs = append(errs, l) },
		Progress: func(activity, status string, pct int) { lastPct = pct },
	}, make(chan struct{}), nil)

	_, err = w.Run(`output("hello"); fail("uh oh"); progress("work", "running", 50); progress("work", "running", 100);`)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, outputs)
	assert.Equal(t, []string{"uh oh"}, errs)
	assert.Equal(t, 100, lastPct)
}

func TestWorker_SleepInterruptsOnStop(t *testing.T) {
	w, err := NewWorker(nil)
	require.NoError(t, err)

	stop := make(chan struct{})
	w.Prepare(Hooks{}, stop, nil)

	done := make(chan error, 1)
	go func() {
		_, runErr := w.Run(`sleep(10000); "unreached"`)
		done <- runErr
	}()

	time.Sleep(30 * time.Millisecond)
	close(stop)
	w.Stop("stopped")

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrInterrupted)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop within timeout")
	}
}

func TestPrependInit_onlyWhenSet(t *testing.T) {
	assert.Equal(t, "1+1", PrependInit("", "1+1"))
	withInit := PrependInit("globalThis.counter = (globalThis.counter||0)+1;", "1+1")
	assert.Contains(t, withInit, InitDoneFlag)
}
