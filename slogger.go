// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import (
	"context"
	"log/slog"
)

// SLogger abstracts the [*slog.Logger] behavior.
//
// This package uses two log levels:
//   - Info for lifecycle events (open, bind, connect, listen, accept, close,
//     adopt, export to net.Conn)
//   - Debug for per-I/O and readiness events (send, recv, poll, select,
//     blocking mode changes)
//
// The [*slog.Logger] type satisfies this interface.
type SLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

// DefaultSLogger returns the default [SLogger] to use.
//
// The default discards all output: sockets report failures by returning
// a [*Fault] and never print anything unless a logger is configured.
func DefaultSLogger() SLogger {
	return discardSLogger{}
}

type discardSLogger struct{}

var _ SLogger = discardSLogger{}

// Debug implements [SLogger].
func (discardSLogger) Debug(msg string, args ...any) {
	// nothing
}

// Info implements [SLogger].
func (discardSLogger) Info(msg string, args ...any) {
	// nothing
}

// Enabled implements [levelEnabler].
func (discardSLogger) Enabled(ctx context.Context, level slog.Level) bool {
	return false
}

// levelEnabler is the optional [SLogger] method reporting whether a level
// is enabled. The [*slog.Logger] type implements it.
type levelEnabler interface {
	Enabled(ctx context.Context, level slog.Level) bool
}

// loggerEnabled returns whether logger emits events at level. Loggers
// without an Enabled method are assumed to emit everything.
func loggerEnabled(logger SLogger, level slog.Level) bool {
	if le, ok := logger.(levelEnabler); ok {
		return le.Enabled(context.Background(), level)
	}
	return true
}
