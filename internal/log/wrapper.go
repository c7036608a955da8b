package log

import (
	"strings"
	"sync"
)

// DelegateLogger holds the base logger for logging.
type DelegateLogger struct {
	BaseLoggerInstance BasicT
}

// Wrapper is a logger that prefixes a contextual tag before delegating.
type Wrapper struct {
	Format   FormatFilter
	M        *sync.Mutex
	Delegate *DelegateLogger
}

// FormatFilter modifies parameters before they reach the delegate logger.
type FormatFilter interface {
	Filter(params ...interface{}) (newParams []interface{})
	Filterf(format string, params ...interface{}) (newFormat string, newParams []interface{})
}

// ContextFormatFilter prepends a joined context tag such as "[pool:default]".
type ContextFormatFilter struct {
	Context []string
}

func (c *ContextFormatFilter) tag() string {
	if len(c.Context) == 0 {
		return ""
	}
	return "[" + strings.Join(c.Context, ":") + "] "
}

func (c *ContextFormatFilter) Filter(params ...interface{}) []interface{} {
	if c.tag() == "" {
		return params
	}
	return append([]interface{}{c.tag()}, params...)
}

func (c *ContextFormatFilter) Filterf(format string, params ...interface{}) (string, []interface{}) {
	return c.tag() + format, params
}

// WithContext returns a logger that tags every message with the given
// context segments, e.g. WithContext("pool", name).
func (w *Wrapper) WithContext(context ...string) T {
	return &Wrapper{Format: &ContextFormatFilter{Context: context}, M: w.M, Delegate: w.Delegate}
}

func (w *Wrapper) Tracef(format string, params ...interface{}) {
	format, params = w.Format.Filterf(format, params...)
	w.M.Lock()
	defer w.M.Unlock()
	w.Delegate.BaseLoggerInstance.Tracef(format, params...)
}

func (w *Wrapper) Debugf(format string, params ...interface{}) {
	format, params = w.Format.Filterf(format, params...)
	w.M.Lock()
	defer w.M.Unlock()
	w.Delegate.BaseLoggerInstance.Debugf(format, params...)
}

func (w *Wrapper) Infof(format string, params ...interface{}) {
	format, params = w.Format.Filterf(format, params...)
	w.M.Lock()
	defer w.M.Unlock()
	w.Delegate.BaseLoggerInstance.Infof(format, params...)
}

func (w *Wrapper) Warnf(format string, params ...interface{}) error {
	format, params = w.Format.Filterf(format, params...)
	w.M.Lock()
	defer w.M.Unlock()
	return w.Delegate.BaseLoggerInstance.Warnf(format, params...)
}

func (w *Wrapper) Errorf(format string, params ...interface{}) error {
	format, params = w.Format.Filterf(format, params...)
	w.M.Lock()
	defer w.M.Unlock()
	return w.Delegate.BaseLoggerInstance.Errorf(format, params...)
}

func (w *Wrapper) Criticalf(format string, params ...interface{}) error {
	format, params = w.Format.Filterf(format, params...)
	w.M.Lock()
	defer w.M.Unlock()
	return w.Delegate.BaseLoggerInstance.Criticalf(format, params...)
}

func (w *Wrapper) Trace(v ...interface{}) {
	v = w.Format.Filter(v...)
	w.M.Lock()
	defer w.M.Unlock()
	w.Delegate.BaseLoggerInstance.Trace(v...)
}

func (w *Wrapper) Debug(v ...interface{}) {
	v = w.Format.Filter(v...)
	w.M.Lock()
	defer w.M.Unlock()
	w.Delegate.BaseLoggerInstance.Debug(v...)
}

func (w *Wrapper) Info(v ...interface{}) {
	v = w.Format.Filter(v...)
	w.M.Lock()
	defer w.M.Unlock()
	w.Delegate.BaseLoggerInstance.Info(v...)
}

func (w *Wrapper) Warn(v ...interface{}) error {
	v = w.Format.Filter(v...)
	w.M.Lock()
	defer w.M.Unlock()
	return w.Delegate.BaseLoggerInstance.Warn(v...)
}

func (w *Wrapper) Error(v ...interface{}) error {
	v = w.Format.Filter(v...)
	w.M.Lock()
	defer w.M.Unlock()
	return w.Delegate.BaseLoggerInstance.Error(v...)
}

func (w *Wrapper) Critical(v ...interface{}) error {
	v = w.Format.Filter(v...)
	w.M.Lock()
	defer w.M.Unlock()
	return w.Delegate.BaseLoggerInstance.Critical(v...)
}

func (w *Wrapper) Flush() {
	w.M.Lock()
	defer w.M.Unlock()
	w.Delegate.BaseLoggerInstance.Flush()
}

func (w *Wrapper) Close() {
	w.M.Lock()
	defer w.M.Unlock()
	w.Delegate.BaseLoggerInstance.Close()
}

// ReplaceDelegate swaps in a new base logger, flushing the old one first.
func (w *Wrapper) ReplaceDelegate(newLogger BasicT) {
	w.M.Lock()
	defer w.M.Unlock()
	w.Delegate.BaseLoggerInstance.Flush()
	w.Delegate.BaseLoggerInstance = newLogger
	w.Delegate.BaseLoggerInstance.Info("logger replaced")
}
