package sched

import "go.uber.org/zap"

// Logger encapsulates a logger and the module which it belongs to.
// Passes receive it through the shared Context; anything configurable
// implements LogSetter.
type Logger struct {
	*zap.SugaredLogger
	module string
}

// LogSetter is implemented by components that accept a run logger.
type LogSetter interface {
	SetLogger(*Logger)
}

// NewLogger wraps l as the logger of the given module.
func NewLogger(l *zap.SugaredLogger, module string) *Logger {
	return &Logger{SugaredLogger: l, module: module}
}

// NopLogger returns a logger that discards everything.
func NopLogger() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar(), module: "nop"}
}

// Module returns (stylised) module name.
func (l *Logger) Module() string {
	return l.module
}

// Named returns a copy of l tagged as module.
func (l *Logger) Named(module string) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger, module: module}
}
