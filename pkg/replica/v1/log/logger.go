// Package log defines the logging interface shared by every replica package.
package log

import (
	"context"
	"log/slog"
)

// Logger is the logging surface the cloner and its supporting services write
// to. Callers may plug in any implementation; the default one is backed by
// log/slog.
type Logger interface {
	// Debugf logs a formatted message at the DEBUG level.
	Debugf(format string, args ...interface{})
	// Infof logs a formatted message at the INFO level.
	Infof(format string, args ...interface{})
	// Warnf logs a formatted message at the WARN level.
	Warnf(format string, args ...interface{})
	// Errorf logs a formatted message at the ERROR level. When the last
	// argument is an error, implementations should log it as an attribute.
	Errorf(format string, args ...interface{})

	// Log logs msg at level with alternating key-value attributes.
	Log(level slog.Level, msg string, args ...interface{})
	// LogCtx is Log with a context, which carries trace correlation.
	LogCtx(ctx context.Context, level slog.Level, msg string, args ...interface{})

	// With returns a Logger that adds args to every entry.
	With(args ...interface{}) Logger
	// IsEnabled reports whether entries at level are emitted.
	IsEnabled(level slog.Level) bool
}
