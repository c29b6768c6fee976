// Package rudplog provides the logging injection point used by the
// rudp endpoints. The protocol itself never decides how or whether a
// message is printed; it calls a small interface that defaults to
// doing nothing.
package rudplog

import (
	"fmt"
	"log"
)

// Logger receives diagnostic messages from a Sender or Receiver.
// Implementations must be safe for use by a single goroutine at a
// time, matching the single-threaded endpoint model of the protocol.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger discards every message. It is the default when a Config
// does not set a Logger.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Warnf(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}

// Nop returns the shared no-op Logger.
func Nop() Logger { return NopLogger{} }

// StdLogger writes every message to a *log.Logger, prefixed with its
// severity. It is a thin wrapper, not a structured logging layer: the
// protocol has no log fields worth structuring beyond a format string.
type StdLogger struct {
	base *log.Logger
}

// NewStdLogger wraps l. A nil l uses log.Default().
func NewStdLogger(l *log.Logger) *StdLogger {
	if l == nil {
		l = log.Default()
	}
	return &StdLogger{base: l}
}

func (s *StdLogger) Debugf(format string, args ...any) { s.base.Output(2, "DEBUG "+fmt.Sprintf(format, args...)) }
func (s *StdLogger) Infof(format string, args ...any)  { s.base.Output(2, "INFO  "+fmt.Sprintf(format, args...)) }
func (s *StdLogger) Warnf(format string, args ...any)  { s.base.Output(2, "WARN  "+fmt.Sprintf(format, args...)) }
func (s *StdLogger) Errorf(format string, args ...any) { s.base.Output(2, "ERROR "+fmt.Sprintf(format, args...)) }
