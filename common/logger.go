package common

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that discards every record.
// Enabled returns false so callers skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger configures the logger shared by the engine and all of its sub-packages.
// By default nothing is logged. Passing nil restores the silent default.
//
// Levels used by the engine:
//   - slog.LevelDebug: per-resource diagnostics (buffer sizes, VAO creation, pipeline cache misses)
//   - slog.LevelInfo: lifecycle events (backend selected, render mode changed, program reloaded)
//   - slog.LevelWarn: recoverable issues (missing config file, unknown uniform)
//   - slog.LevelError: shader compile/link diagnostics and fatal frame errors
//
// Parameters:
//   - l: the logger to install, or nil to disable logging
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the active engine logger. Safe for concurrent use.
//
// Returns:
//   - *slog.Logger: the current logger
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
