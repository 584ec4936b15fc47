// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import (
	"github.com/bassosimone/runtimex"
	"github.com/google/uuid"
)

// NewSpanID returns a UUIDv7 identifying a span.
//
// Attach it to a logger with [*slog.Logger.With] before constructing a
// socket, so that every event of that socket, from openStart to closeDone,
// shares the same spanID.
//
// This function panics if the system random number generator fails.
func NewSpanID() string {
	return runtimex.PanicOnError1(uuid.NewV7()).String()
}
