package engine

import (
	"os"
	"time"

	"github.com/dop251/goja"
)

// sleepSlice bounds how long a single native sleep iteration blocks before
// re-checking for a stop request; it is what lets Worker.Stop interrupt a
// script that is blocked inside the sleep builtin rather than between
// bytecode instructions.
const sleepSlice = 10 * time.Millisecond

// InstallBaseLibs binds the two fixed base-library verbs (spec §4.5 "base
// libraries"): path/utility functions available to every worker regardless
// of configured modules. Called once, when the worker's template is seeded
// (session.Template.Seed), so they survive across every task the worker
// ever runs.
func InstallBaseLibs(rt *goja.Runtime) {
	_ = rt.Set("joinPath", builtinJoinPath)
	_ = rt.Set("testPath", builtinTestPath)
}

// installBuiltins binds the stream builtins (output/error/progress) onto
// rt. Called once per task dispatch via Worker.Prepare, since the bound
// functions close over that task's Hooks.
func installBuiltins(rt *goja.Runtime, h Hooks) {
	_ = rt.Set("output", func(line string) {
		if h.Output != nil {
			h.Output(line)
		}
	})
	_ = rt.Set("fail", func(line string) {
		if h.Error != nil {
			h.Error(line)
		}
	})
	_ = rt.Set("progress", func(activity, status string, percentComplete int) {
		if h.Progress != nil {
			h.Progress(activity, status, percentComplete)
		}
	})
}

// bindCancellation installs the sleep builtin against stop, which is
// recreated per Run call (each task gets its own stop channel even when
// reusing a worker).
func bindCancellation(rt *goja.Runtime, stop <-chan struct{}) {
	_ = rt.Set("sleep", func(call goja.FunctionCall) goja.Value {
		ms := call.Argument(0).ToInteger()
		remaining := time.Duration(ms) * time.Millisecond
		for remaining > 0 {
			slice := sleepSlice
			if remaining < slice {
				slice = remaining
			}
			select {
			case <-stop:
				panic(rt.NewGoError(ErrInterrupted))
			case <-time.After(slice):
				remaining -= slice
			}
		}
		return goja.Undefined()
	})
}

func builtinJoinPath(parts ...string) string {
	out := ""
	for i, p := range parts {
		if i > 0 && out != "" && p != "" {
			out += "/"
		}
		out += p
	}
	return out
}

func builtinTestPath(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
