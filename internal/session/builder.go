// Package session implements the session-state builder (spec §4.5): turning
// a pool's SessionSettings into a worker template. Grounded on the teacher's
// agent/plugins/psmodule plugin, which installs a module list into a
// PowerShell session before running user scripts — here the "session" is a
// goja.Runtime instead of a PowerShell runspace.
package session

import (
	"fmt"
	"os"
	"strings"

	"github.com/dop251/goja"

	"github.com/noahpeltier/backgroundworker/internal/engine"
	"github.com/noahpeltier/backgroundworker/internal/moduleprobe"
	"github.com/noahpeltier/backgroundworker/pkg/contracts"
)

// ErrModulesUnavailable is returned by Build when one or more requested
// modules cannot be found on the search path. It lists every missing
// module, its probe message, and the search path actually consulted —
// spec §4.5/§7's "Dependency" error category.
type ErrModulesUnavailable struct {
	Missing    []contracts.ModuleCheckResult
	SearchPath string
}

func (e *ErrModulesUnavailable) Error() string {
	var names []string
	for _, m := range e.Missing {
		names = append(names, fmt.Sprintf("%s (%s)", m.Name, m.Message))
	}
	return fmt.Sprintf("modules unavailable on %s=%q: %s", moduleprobe.SearchPathEnvVar, e.SearchPath, strings.Join(names, "; "))
}

// Template is the canonical seeded initial state a Pool materializes
// workers from (spec §3 "WorkerTemplate").
type Template struct {
	Modules    []string
	Variables  map[string]interface{}
	InitScript string

	moduleSources map[string]string
}

// Seed applies this template to a freshly constructed goja.Runtime: base
// libraries, configured modules in declaration order, then variables. It
// does not run InitScript — that is textually prepended to each submitted
// script by the executor (spec §9).
func (t *Template) Seed(rt *goja.Runtime) error {
	engine.InstallBaseLibs(rt)

	for _, m := range t.Modules {
		src, ok := t.moduleSources[strings.ToLower(m)]
		if !ok {
			continue
		}
		if _, err := rt.RunString(src); err != nil {
			return fmt.Errorf("session: running module %q: %w", m, err)
		}
	}

	for name, value := range t.Variables {
		if err := rt.Set(name, value); err != nil {
			return fmt.Errorf("session: installing variable %q: %w", name, err)
		}
	}
	return nil
}

// Build validates every requested module (spec §4.5 "Module validation")
// and, only if all are available, returns a Template. No template is built
// and no state mutated on failure.
func Build(settings contracts.SessionSettings) (*Template, error) {
	modules := dedupModules(settings.Modules)

	_, missing := moduleprobe.CheckAll(modules)
	if len(missing) > 0 {
		return nil, &ErrModulesUnavailable{Missing: missing, SearchPath: os.Getenv(moduleprobe.SearchPathEnvVar)}
	}

	sources := make(map[string]string, len(modules))
	for _, m := range modules {
		res := moduleprobe.Check(m)
		if res.Location == "" {
			continue
		}
		body, err := os.ReadFile(res.Location)
		if err != nil {
			return nil, fmt.Errorf("session: reading module %q: %w", m, err)
		}
		sources[strings.ToLower(m)] = string(body)
	}

	// Variable names are case-insensitive (spec §3), but goja/JS property
	// lookup is not, so a variable configured as "Marker" must still resolve
	// when a script references it as "Marker" — lower-casing the stored name
	// would break exactly that. Keep the author's original casing as the
	// primary binding, dedup case-insensitive collisions onto it, and also
	// install a lower-cased alias so a script that normalizes the name still
	// finds it.
	vars := make(map[string]interface{}, len(settings.Variables))
	originalOf := make(map[string]string, len(settings.Variables)) // lowercase -> chosen original-case name
	for k, v := range settings.Variables {
		key := strings.ToLower(k)
		if prev, ok := originalOf[key]; ok && prev != k {
			delete(vars, prev)
		}
		originalOf[key] = k
		vars[k] = v
	}
	for key, original := range originalOf {
		if key != original {
			vars[key] = vars[original]
		}
	}

	return &Template{
		Modules:       modules,
		Variables:     vars,
		InitScript:    settings.InitScript,
		moduleSources: sources,
	}, nil
}

// dedupModules preserves declaration order while dropping case-insensitive
// duplicates (spec §3 "Modules (ordered unique set)").
func dedupModules(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, m := range in {
		key := strings.ToLower(m)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}
