package config

import "log"

// Logger is the injected logging interface every core component uses
// instead of importing "log" directly. Constructors that take a Logger
// substitute NopLogger when given nil.
type Logger interface {
	Warnf(format string, args ...any)
	Infof(format string, args ...any)
}

// StdLogger adapts the standard library's log package to Logger.
type StdLogger struct {
	*log.Logger
}

// NewStdLogger returns a Logger backed by the given stdlib *log.Logger, or
// log.Default() if l is nil.
func NewStdLogger(l *log.Logger) StdLogger {
	if l == nil {
		l = log.Default()
	}
	return StdLogger{Logger: l}
}

func (s StdLogger) Warnf(format string, args ...any) {
	s.Printf("WARN: "+format, args...)
}

func (s StdLogger) Infof(format string, args ...any) {
	s.Printf("INFO: "+format, args...)
}

// nopLogger discards everything; useful in tests that don't care about log
// output.
type nopLogger struct{}

func (nopLogger) Warnf(string, ...any) {}
func (nopLogger) Infof(string, ...any) {}

// NopLogger is a Logger that discards all messages.
var NopLogger Logger = nopLogger{}
