// Package log provides the process-wide logging facade.
//
// Log lines are written to stderr so stdout stays reserved for packet
// output and the dashboard. A rotating file appender can be attached
// through the configuration.
package log

import (
	"sync"
)

// Logger is the logging facade used across the codebase. It mirrors the
// logrus entry API so call sites stay decoupled from the backend.
type Logger interface {
	Print(args ...interface{})
	Printf(format string, args ...interface{})

	Trace(args ...interface{})
	Tracef(format string, args ...interface{})

	Debug(args ...interface{})
	Debugf(format string, args ...interface{})

	Info(args ...interface{})
	Infof(format string, args ...interface{})

	Warn(args ...interface{})
	Warnf(format string, args ...interface{})

	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})

	Panic(args ...interface{})
	Panicf(format string, args ...interface{})

	WithField(field string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	IsTraceEnabled() bool
	IsDebugEnabled() bool
	IsInfoEnabled() bool
}

var (
	once   sync.Once
	logger Logger
)

// Init builds the process logger from config. Only the first call takes
// effect; later calls keep the logger already built.
func Init(cfg *LoggerConfig) {
	once.Do(func() {
		logger = newAdapter(cfg)
	})
}

// GetLogger returns the process logger, building one from defaults if
// Init has not run yet.
func GetLogger() Logger {
	Init(nil)
	return logger
}
