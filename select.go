// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import (
	"log/slog"
	"time"

	"github.com/bassosimone/runtimex"
)

// Selectable adds select-style readiness checks of the owning socket.
type Selectable[A Address] struct {
	core *Core[A]
}

// WithSelect returns the [Selectable] layer over core.
func WithSelect[A Address](core *Core[A]) Selectable[A] {
	runtimex.Assert(core != nil)
	return Selectable[A]{core: core}
}

// Select waits up to timeout for the socket to become readable, writable
// or to have an exceptional condition pending.
//
// The timeout is passed to the platform as whole seconds plus remainder
// microseconds; a negative timeout blocks indefinitely. The reactions are
// invoked at most once each, in the order onError, onRead, onWrite, and
// only for the conditions reported. Nil reactions are skipped.
//
// Fails with a [SelectFault].
func (s Selectable[A]) Select(timeout time.Duration, onRead, onWrite, onError func()) error {
	c := s.core
	if !c.owner.valid() {
		return newFault(SelectFault, "select", errBadHandle)
	}
	ms := timeoutMillis(timeout)
	t0 := c.TimeNow()
	c.logStart(c.Logger.Debug, "selectStart", c.owner.h, t0, slog.Int("timeout", ms))
	var err error
	ready, n, serr := sysSelect(c.owner.h, ms)
	if serr != nil {
		err = newFault(SelectFault, "select", serr)
	}
	c.logDone(c.Logger.Debug, "selectDone", c.owner.h, t0, err,
		slog.Int("timeout", ms),
		slog.String("revents", ready.String()),
	)
	if err != nil || n == 0 {
		return err
	}
	dispatch(ready, ErrorReady, onError)
	dispatch(ready, ReadReady, onRead)
	dispatch(ready, WriteReady, onWrite)
	return nil
}
