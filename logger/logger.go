// Package logger routes library log output through a single injectable
// function so callers decide where messages go. Nothing is logged until
// [SetLogger] installs a sink.
package logger

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// LogLevel represents log severity
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
)

// LogFunc is a single logger function that handles all levels.
// keyvals alternate between string keys and arbitrary values.
type LogFunc func(level LogLevel, msg string, keyvals ...interface{})

var logFunc atomic.Value

func init() {
	logFunc.Store(LogFunc(func(LogLevel, string, ...interface{}) {}))
}

// SetLogger sets the global logger function. A nil f is ignored.
func SetLogger(f LogFunc) {
	if f != nil {
		logFunc.Store(f)
	}
}

// Discard restores the silent default sink.
func Discard() {
	logFunc.Store(LogFunc(func(LogLevel, string, ...interface{}) {}))
}

func current() LogFunc {
	return logFunc.Load().(LogFunc)
}

// Debug logs a message at debug level
func Debug(msg string, keyvals ...interface{}) {
	current()(DebugLevel, msg, keyvals...)
}

// Info logs a message at info level
func Info(msg string, keyvals ...interface{}) {
	current()(InfoLevel, msg, keyvals...)
}

// Warn logs a message at warn level
func Warn(msg string, keyvals ...interface{}) {
	current()(WarnLevel, msg, keyvals...)
}

// Error logs a message at error level
func Error(msg string, keyvals ...interface{}) {
	current()(ErrorLevel, msg, keyvals...)
}

// Logrus adapts a logrus logger to a LogFunc. Key/value pairs become
// logrus fields; a trailing key without a value is recorded under "extra".
func Logrus(l *logrus.Logger) LogFunc {
	return func(level LogLevel, msg string, keyvals ...interface{}) {
		entry := l.WithFields(Fields(keyvals...))
		switch level {
		case DebugLevel:
			entry.Debug(msg)
		case InfoLevel:
			entry.Info(msg)
		case WarnLevel:
			entry.Warn(msg)
		default:
			entry.Error(msg)
		}
	}
}

// Fields converts alternating key/value arguments to logrus fields.
func Fields(keyvals ...interface{}) logrus.Fields {
	fields := make(logrus.Fields, len(keyvals)/2)
	for i := 0; i < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = "extra"
		}
		if i+1 >= len(keyvals) {
			fields["extra"] = keyvals[i]
			break
		}
		fields[key] = keyvals[i+1]
	}
	return fields
}

// ParseLevel maps a level name to the matching logrus level, defaulting to
// info for unknown names.
func ParseLevel(name string) logrus.Level {
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
