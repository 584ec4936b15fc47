// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import (
	"log/slog"
	"strings"
	"time"

	"github.com/bassosimone/runtimex"
)

// Readiness is the set of conditions reported by a readiness check.
type Readiness uint8

const (
	// ReadReady means a receive (or accept) would not block.
	ReadReady Readiness = 1 << iota

	// WriteReady means a send would not block.
	WriteReady

	// ErrorReady means an error condition is pending.
	ErrorReady

	// HangupReady means the peer disconnected.
	HangupReady
)

// Has returns whether all the conditions in mask are set.
func (r Readiness) Has(mask Readiness) bool {
	return r&mask == mask
}

// String returns the set conditions joined by "|", or "none".
func (r Readiness) String() string {
	var names []string
	for _, e := range []struct {
		flag Readiness
		name string
	}{
		{ErrorReady, "error"},
		{HangupReady, "hangup"},
		{ReadReady, "read"},
		{WriteReady, "write"},
	} {
		if r&e.flag != 0 {
			names = append(names, e.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Poller is the capability of poll-style readiness checks.
type Poller interface {
	Poll(timeout time.Duration) (Readiness, error)
}

// Selector is the capability of select-style readiness checks.
type Selector interface {
	Select(timeout time.Duration, onRead, onWrite, onError func()) error
}

// timeoutMillis converts a timeout to the millisecond convention of poll:
// negative blocks indefinitely, zero returns immediately, and positive
// values are rounded up to whole milliseconds.
func timeoutMillis(timeout time.Duration) int {
	switch {
	case timeout < 0:
		return -1
	case timeout == 0:
		return 0
	default:
		return int((timeout + time.Millisecond - 1) / time.Millisecond)
	}
}

// Pollable adds poll-style readiness checks of the owning socket, with
// four optional reaction slots.
//
// Set the slots after construction but before calling Poll.
type Pollable[A Address] struct {
	core *Core[A]

	// OnRead is invoked when the socket is readable.
	OnRead func()

	// OnWrite is invoked when the socket is writable.
	OnWrite func()

	// OnDisconnect is invoked when the peer hung up.
	OnDisconnect func()

	// OnError is invoked when an error condition is pending.
	OnError func()
}

// WithPoll returns the [Pollable] layer over core with empty slots.
func WithPoll[A Address](core *Core[A]) Pollable[A] {
	runtimex.Assert(core != nil)
	return Pollable[A]{core: core}
}

// Poll waits up to timeout for the socket to become readable or writable.
//
// A negative timeout blocks indefinitely and zero returns immediately.
// When conditions are reported, the slots whose condition is set are
// invoked in the order error, disconnect, read, write; empty slots are
// skipped. When nothing is ready, no slot is invoked.
//
// Fails with a [PollFault].
func (p *Pollable[A]) Poll(timeout time.Duration) (Readiness, error) {
	c := p.core
	if !c.owner.valid() {
		return 0, newFault(PollFault, "poll", errBadHandle)
	}
	ms := timeoutMillis(timeout)
	t0 := c.TimeNow()
	c.logStart(c.Logger.Debug, "pollStart", c.owner.h, t0, slog.Int("timeout", ms))
	var err error
	ready, n, serr := sysPoll(c.owner.h, ms)
	if serr != nil {
		err = newFault(PollFault, "poll", serr)
	}
	c.logDone(c.Logger.Debug, "pollDone", c.owner.h, t0, err,
		slog.Int("timeout", ms),
		slog.String("revents", ready.String()),
	)
	if err != nil || n == 0 {
		return 0, err
	}
	dispatch(ready, ErrorReady, p.OnError)
	dispatch(ready, HangupReady, p.OnDisconnect)
	dispatch(ready, ReadReady, p.OnRead)
	dispatch(ready, WriteReady, p.OnWrite)
	return ready, nil
}

// dispatch invokes fn when flag is set in ready and fn is not nil.
func dispatch(ready, flag Readiness, fn func()) {
	if ready&flag != 0 && fn != nil {
		fn()
	}
}
