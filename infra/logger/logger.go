package logger

import corelogger "github.com/ngantchou/warap-ai-sub004/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// New returns the default logger implementation for the component.
func New(component string) Logger {
	return NewZerologLogger(component)
}

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}
