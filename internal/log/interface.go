// Package log provides the logging facade used throughout the scheduler.
// This interface matches seelog.LoggerInterface so the rest of the tree
// never imports seelog directly.
package log

// BasicT represents structs capable of logging messages.
type BasicT interface {
	Tracef(format string, params ...interface{})
	Debugf(format string, params ...interface{})
	Infof(format string, params ...interface{})
	Warnf(format string, params ...interface{}) error
	Errorf(format string, params ...interface{}) error
	Criticalf(format string, params ...interface{}) error

	Trace(v ...interface{})
	Debug(v ...interface{})
	Info(v ...interface{})
	Warn(v ...interface{}) error
	Error(v ...interface{}) error
	Critical(v ...interface{}) error

	Flush()
	Close()
}

// T adds context management on top of BasicT.
type T interface {
	BasicT
	WithContext(context ...string) (contextLogger T)
}
