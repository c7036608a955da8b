// Package appconfig holds the scheduler process's ambient tuning knobs —
// the settings that shape how the scheduler itself behaves rather than any
// one pool's session state. Grounded on the teacher's agent/appconfig
// package, which loads an ini-style seelog/agent config the same way: a
// struct of defaults, overridden by an optional file on disk.
package appconfig

import (
	"time"

	"gopkg.in/ini.v1"
)

// Section/key names in the ini file.
const (
	sectionScheduler = "Scheduler"
	keyModulePathEnv = "ModuleSearchPathEnvVar"
	keyResizeWait    = "GateResizeWaitSeconds"
	keySweepInterval = "RetentionSweepIntervalSeconds"
	keyLockFile      = "ProcessLockFile"
)

// Config is the scheduler process's ambient configuration (spec §6
// "Environment": the module-search-path variable name; spec §9 "Throttle
// resize": the bounded wait; spec §4.7: the sweep cadence).
type Config struct {
	ModuleSearchPathEnvVar string
	GateResizeWait         time.Duration
	RetentionSweepInterval time.Duration
	ProcessLockFile        string
}

// Default returns the built-in configuration used when no file is present
// or overrides it.
func Default() Config {
	return Config{
		ModuleSearchPathEnvVar: "BGW_MODULE_PATH",
		GateResizeWait:         10 * time.Second,
		RetentionSweepInterval: 60 * time.Second,
		ProcessLockFile:        "/var/run/backgroundworker/scheduler.lock",
	}
}

// Load reads path as an ini file and overlays any keys present in the
// [Scheduler] section on top of Default(). A missing file is not an error —
// it simply yields the defaults, mirroring the teacher's tolerant
// appconfig.Config loading.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := ini.LoadSources(ini.LoadOptions{Loose: true, AllowBooleanKeys: true}, path)
	if err != nil {
		return cfg, nil
	}

	sec := f.Section(sectionScheduler)
	if v := sec.Key(keyModulePathEnv).String(); v != "" {
		cfg.ModuleSearchPathEnvVar = v
	}
	if v, err := sec.Key(keyResizeWait).Int(); err == nil && v > 0 {
		cfg.GateResizeWait = time.Duration(v) * time.Second
	}
	if v, err := sec.Key(keySweepInterval).Int(); err == nil && v > 0 {
		cfg.RetentionSweepInterval = time.Duration(v) * time.Second
	}
	if v := sec.Key(keyLockFile).String(); v != "" {
		cfg.ProcessLockFile = v
	}
	return cfg, nil
}
