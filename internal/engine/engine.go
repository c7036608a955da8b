// Package engine wraps the host scripting engine. Each Worker is a reusable
// goja.Runtime pre-seeded with a pool's session state; cooperative
// cancellation is realized with Runtime.Interrupt, which is checked between
// bytecode instructions — the cooperative-stop primitive spec §5 describes
// as the reason preemption is a non-goal. Blocking builtins (sleep) poll
// their own stop channel so a script parked inside one can still be
// interrupted promptly.
package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dop251/goja"
)

// ErrInterrupted is returned when a script stops because Stop was called on
// its Worker rather than because the script itself failed.
var ErrInterrupted = errors.New("engine: interrupted")

// InitDoneFlag is the worker-global variable name guarding the one-shot
// init prelude (spec §4.5, §9 "Script prefix for init").
const InitDoneFlag = "__bgw_init_done"

// Hooks are invoked by built-in script functions; they connect a running
// script back to the task that owns it without the engine importing the
// task package (which would create an import cycle).
type Hooks struct {
	Output   func(line string)
	Error    func(line string)
	Progress func(activity, status string, percentComplete int)
}

// Worker is one reusable script-engine context.
type Worker struct {
	mu      sync.Mutex
	rt      *goja.Runtime
	running bool
}

// NewWorker creates a worker from a template-building function; see
// session.Builder for how the template (base libs + modules + variables)
// is assembled before a Worker wraps it.
func NewWorker(seed func(rt *goja.Runtime) error) (*Worker, error) {
	rt := goja.New()
	if seed != nil {
		if err := seed(rt); err != nil {
			return nil, fmt.Errorf("engine: seeding worker: %w", err)
		}
	}
	return &Worker{rt: rt}, nil
}

// Prepare binds the per-task builtins (stream hooks, cooperative sleep) and
// the frozen positional arguments before Run is called. Called once per
// task dispatch, even when the worker is reused from a prior task.
func (w *Worker) Prepare(h Hooks, stop <-chan struct{}, args []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	installBuiltins(w.rt, h)
	bindCancellation(w.rt, stop)
	argv := make([]interface{}, len(args))
	for i, a := range args {
		argv[i] = a
	}
	_ = w.rt.Set("args", argv)
}

// Run compiles and evaluates script, returning the script's final value as
// a string (empty if undefined) plus a narrowed error: ErrInterrupted when
// Stop fired mid-run (whether the interrupt landed between bytecode steps
// or inside a blocking builtin like sleep), or the original goja error
// otherwise.
func (w *Worker) Run(script string) (result string, err error) {
	w.mu.Lock()
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	v, runErr := w.rt.RunString(script)
	if runErr != nil {
		if interruptErr, ok := asInterrupted(runErr); ok {
			_ = interruptErr
			return "", ErrInterrupted
		}
		return "", runErr
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return "", nil
	}
	return v.String(), nil
}

func asInterrupted(err error) (error, bool) {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return err, true
	}
	var exc *goja.Exception
	if errors.As(err, &exc) {
		if wrapped, ok := exc.Value().Export().(error); ok && errors.Is(wrapped, ErrInterrupted) {
			return wrapped, true
		}
	}
	return nil, false
}

// Stop requests cooperative termination of whatever script is currently
// running on this worker. A no-op if nothing is running. The caller must
// also close the stop channel passed to Prepare so a blocking builtin
// notices; Interrupt alone only wakes the VM between bytecode steps.
func (w *Worker) Stop(reason interface{}) {
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()
	if running {
		w.rt.Interrupt(reason)
	}
}

// PrependInit textually prepends a guarded one-shot block to script, per
// spec §9's accepted primary strategy: the init runs once per worker,
// gated on a global flag that survives across tasks dispatched to the same
// worker.
func PrependInit(initScript, script string) string {
	if initScript == "" {
		return script
	}
	guarded := fmt.Sprintf("if (!globalThis.%s) {\n%s\nglobalThis.%s = true;\n}\n", InitDoneFlag, initScript, InitDoneFlag)
	return guarded + script
}
