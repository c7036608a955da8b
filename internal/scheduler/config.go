package scheduler

import (
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v2"

	"github.com/noahpeltier/backgroundworker/internal/pool"
	"github.com/noahpeltier/backgroundworker/pkg/contracts"
)

// poolDoc mirrors one pool's declarative configuration in pools.yaml.
type poolDoc struct {
	Name          string                 `yaml:"name"`
	Min           int                    `yaml:"min"`
	Max           int                    `yaml:"max"`
	RetentionMins int                    `yaml:"retentionMinutes"`
	Modules       []string               `yaml:"modules"`
	Variables     map[string]interface{} `yaml:"variables"`
	Init          string                 `yaml:"init"`
}

// poolsFile is the top-level shape of pools.yaml.
type poolsFile struct {
	Pools []poolDoc `yaml:"pools"`
}

// LoadPoolsFile parses a pools.yaml document into pool.Config values keyed by
// normalized name (spec §4.4 "Create"). A missing file yields no pools
// rather than an error, so a fresh install can run with just the default
// pool.
func LoadPoolsFile(path string) (map[string]pool.Config, error) {
	out := make(map[string]pool.Config)

	body, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("scheduler: reading %s: %w", path, err)
	}

	var doc poolsFile
	if err := yaml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("scheduler: parsing %s: %w", path, err)
	}

	for _, p := range doc.Pools {
		key := normalize(p.Name)
		out[key] = pool.Config{
			Min:       p.Min,
			Max:       p.Max,
			Retention: time.Duration(p.RetentionMins) * time.Minute,
			Settings: contracts.SessionSettings{
				Modules:    p.Modules,
				Variables:  p.Variables,
				InitScript: p.Init,
			},
		}
	}
	return out, nil
}

// ApplyPoolsFile creates or reconfigures every pool named in path against s
// (spec §9 "Singleton vs. instance": config application happens against the
// live scheduler object, not a global).
func (s *Scheduler) ApplyPoolsFile(path string) error {
	configs, err := LoadPoolsFile(path)
	if err != nil {
		return err
	}
	for name, cfg := range configs {
		if _, err := s.CreatePool(name, cfg); err != nil {
			s.log.Errorf("scheduler: applying pool %q from %s: %v", name, path, err)
		}
	}
	return nil
}

// WatchPoolsFile re-applies path whenever it changes on disk, using
// fsnotify the same way the teacher's config loader watches seelog.xml for
// edits. The returned func stops the watch.
func (s *Scheduler) WatchPoolsFile(path string) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("scheduler: starting config watch: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("scheduler: watching %s: %w", path, err)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					if err := s.ApplyPoolsFile(path); err != nil {
						s.log.Errorf("scheduler: reloading %s: %v", path, err)
					}
				}
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Errorf("scheduler: config watch error: %v", werr)
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		_ = watcher.Close()
	}, nil
}
