// Package moduleprobe implements the pure module-availability check from
// spec §4.3: "is library X available to workers?" Grounded on the teacher's
// env-driven discovery idiom (aws-amazon-ssm-agent/agent/appconfig reads its
// search locations from the process environment); here the analogous
// variable is the module-search-path env var named by appconfig.
package moduleprobe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/noahpeltier/backgroundworker/pkg/contracts"
)

// SearchPathEnvVar is the environment variable consulted for probes and
// diagnostics (spec §6 "Environment"). It is a var, not a const, so the
// process entry point can rename it per appconfig.Config.ModuleSearchPathEnvVar
// before any pool starts probing modules.
var SearchPathEnvVar = "BGW_MODULE_PATH"

// ModuleExt is the file extension a module must have to be importable by
// the engine (spec §4.5 base libraries are built in; everything else is a
// file on the search path).
const ModuleExt = ".js"

// Check answers whether name is available on the current search path. It
// has no side effects and keeps no state across calls, per spec §4.3.
func Check(name string) contracts.ModuleCheckResult {
	searchPath := os.Getenv(SearchPathEnvVar)
	dirs := splitSearchPath(searchPath)

	for _, dir := range dirs {
		candidate := filepath.Join(dir, name+ModuleExt)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return contracts.ModuleCheckResult{
				Name:      name,
				Available: true,
				Location:  candidate,
				Message:   fmt.Sprintf("found %s on %s", name, SearchPathEnvVar),
			}
		}
	}

	return contracts.ModuleCheckResult{
		Name:      name,
		Available: false,
		Message:   fmt.Sprintf("module %q not found; searched %s=%q", name, SearchPathEnvVar, searchPath),
	}
}

// CheckAll probes every name and returns the results in the same order,
// plus the subset that was unavailable.
func CheckAll(names []string) (results []contracts.ModuleCheckResult, missing []contracts.ModuleCheckResult) {
	for _, n := range names {
		r := Check(n)
		results = append(results, r)
		if !r.Available {
			missing = append(missing, r)
		}
	}
	return results, missing
}

func splitSearchPath(path string) []string {
	if path == "" {
		return nil
	}
	sep := string(os.PathListSeparator)
	var out []string
	for _, p := range strings.Split(path, sep) {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
