package log

import (
	"sync"

	"github.com/cihub/seelog"
)

// New builds the process-wide logger from the given seelog XML config, or
// from the built-in adaptive default if cfg is empty or malformed.
func New(cfg []byte) T {
	if len(cfg) == 0 {
		cfg = defaultConfig()
	}

	base, err := seelog.LoggerFromConfigAsBytes(cfg)
	if err != nil {
		base, _ = seelog.LoggerFromConfigAsBytes(defaultConfig())
	}
	_ = seelog.ReplaceLogger(base)

	return &Wrapper{
		Format:   &ContextFormatFilter{},
		M:        &sync.Mutex{},
		Delegate: &DelegateLogger{BaseLoggerInstance: base},
	}
}
