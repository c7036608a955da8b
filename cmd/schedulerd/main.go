// Command schedulerd is the background task scheduler's process entry
// point. Grounded on the teacher's agent/agent_unix.go & agent/agent.go:
// parse flags, build the logger, start the long-lived coordinator, block on
// OS signals, then shut down cleanly.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/shlex"
	"github.com/mitchellh/go-ps"
	"github.com/nightlyone/lockfile"

	"github.com/noahpeltier/backgroundworker/internal/appconfig"
	logger "github.com/noahpeltier/backgroundworker/internal/log"
	"github.com/noahpeltier/backgroundworker/internal/moduleprobe"
	"github.com/noahpeltier/backgroundworker/internal/scheduler"
)

var log logger.T
var sched *scheduler.Scheduler
var lock lockfile.Lockfile

func main() {
	Start()
}

// Start wires the scheduler and blocks until a termination signal arrives.
func Start() {
	configPath := flag.String("config", "", "path to the ambient ini configuration file")
	poolsPath := flag.String("pools", "pools.yaml", "path to the declarative pools file")
	inlineScript := flag.String("run", "", "optional: run a single script body immediately and exit")
	inlineArgs := flag.String("args", "", "positional arguments for -run, shell-quoted")
	flag.Parse()

	cfg, err := appconfig.Load(*configPath)
	if err != nil {
		fmt.Println("could not load configuration:", err)
		os.Exit(1)
	}

	log = logger.New(nil)
	defer log.Flush()
	defer log.Close()

	if cfg.ModuleSearchPathEnvVar != "" {
		moduleprobe.SearchPathEnvVar = cfg.ModuleSearchPathEnvVar
	}

	if err := acquireSingleton(cfg.ProcessLockFile); err != nil {
		log.Errorf("another instance appears to be running: %v", err)
		os.Exit(1)
	}
	defer releaseSingleton()

	log.Info("starting background task scheduler")

	sched, err = scheduler.NewWithOptions(log, scheduler.Options{
		SweepInterval:     cfg.RetentionSweepInterval,
		DefaultResizeWait: cfg.GateResizeWait,
	})
	if err != nil {
		log.Errorf("failed to start scheduler: %v", err)
		os.Exit(1)
	}

	if err := sched.ApplyPoolsFile(*poolsPath); err != nil {
		log.Errorf("failed to apply %s: %v", *poolsPath, err)
	}
	stopWatch, err := sched.WatchPoolsFile(*poolsPath)
	if err != nil {
		log.Warnf("not watching %s for changes: %v", *poolsPath, err)
	} else {
		defer stopWatch()
	}

	if *inlineScript != "" {
		runInline(*inlineScript, *inlineArgs)
		Stop()
		return
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	s := <-c
	log.Infof("got signal %v, stopping scheduler", s)
	Stop()
}

// Stop closes the scheduler and flushes the log. The singleton lock is
// released by Start's deferred releaseSingleton once Start returns.
func Stop() {
	if sched != nil {
		sched.Close()
	}
	log.Info("scheduler stopped")
	log.Flush()
}

// runInline submits one task, waits for it, and prints its outcome — a
// convenience path for ad hoc invocation (`schedulerd -run '"done-" + args[0]' -args 50`,
// where -run is the script body itself, not a file path),
// standing in for the out-of-scope command surface described in the spec.
func runInline(script, rawArgs string) {
	args, err := shlex.Split(rawArgs)
	if err != nil {
		log.Errorf("could not parse -args %q: %v", rawArgs, err)
		return
	}

	t, err := sched.StartTask("", script, args, 0, "")
	if err != nil {
		log.Errorf("could not start task: %v", err)
		return
	}

	sched.WaitTask(context.Background(), t, 0)
	snap := t.Snapshot()
	fmt.Printf("task %s finished as %s\n", snap.ID, snap.Status)
	for _, line := range t.Output.Receive(false) {
		fmt.Println(line)
	}
}

// acquireSingleton takes an exclusive process lock at path, clearing a
// stale lock left behind by a process that no longer exists (mirrors the
// teacher's extra/lockfile helper, generalized with mitchellh/go-ps to
// confirm the recorded pid is actually gone before stealing the lock).
func acquireSingleton(path string) error {
	l, err := lockfile.New(path)
	if err != nil {
		return fmt.Errorf("constructing lockfile at %s: %w", path, err)
	}
	lock = l

	if err := lock.TryLock(); err != nil {
		if owner, ownerErr := lock.GetOwner(); ownerErr == nil {
			if proc, _ := ps.FindProcess(owner.Pid); proc == nil {
				os.Remove(path)
				return lock.TryLock()
			}
		}
		return err
	}
	return nil
}

func releaseSingleton() {
	_ = lock.Unlock()
}
