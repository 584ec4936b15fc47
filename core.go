// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import (
	"io"
	"log/slog"
	"net/netip"
	"time"

	"github.com/bassosimone/runtimex"
)

// Core is a native socket of the address family of A with a fixed [Kind]
// and [Protocol]. It is the base every capability layer decorates.
//
// A Core exclusively owns its [Handle]. Hand it around by pointer only;
// use [*Core.Move] and [*Core.Swap] to transfer ownership. Scope the
// handle with a deferred [*Core.Close].
//
// Operations on the same Core are not synchronized; callers must
// serialize access from multiple goroutines.
//
// The exported fields are safe to modify after construction but before
// first use. Fields must not be mutated concurrently with other calls.
type Core[A Address] struct {
	owner    handleOwner
	family   Family
	kind     Kind
	protocol Protocol

	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewCore] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use.
	//
	// Set by [NewCore] to the user-provided logger.
	Logger SLogger

	// MaxSequenceLength bounds the element count of sequences read from this socket.
	//
	// Set by [NewCore] from [Config.MaxSequenceLength].
	MaxSequenceLength uint64

	// TimeNow is the function to get the current time.
	//
	// Set by [NewCore] from [Config.TimeNow].
	TimeNow func() time.Time
}

var _ Channel = &Core[IPv4Address]{}

// NewCore opens a native socket of the family of A with the given kind and protocol.
//
// The first call in the process bootstraps the platform socket stack.
//
// Returns either a valid [*Core] or an error, never both. The error is a
// [*Fault] of kind [OpenFault] or [SubsystemInitFault].
func NewCore[A Address](cfg *Config, kind Kind, protocol Protocol, logger SLogger) (*Core[A], error) {
	runtimex.Assert(cfg != nil && logger != nil)
	var zero A
	c := &Core[A]{
		family:            zero.Family(),
		kind:              kind,
		protocol:          protocol,
		ErrClassifier:     cfg.ErrClassifier,
		Logger:            logger,
		MaxSequenceLength: cfg.MaxSequenceLength,
		TimeNow:           cfg.TimeNow,
	}

	t0 := c.TimeNow()
	c.logStart(c.Logger.Info, "openStart", 0, t0, slog.String("family", c.family.String()))
	err := ensureSubsystem()
	if err == nil {
		var h Handle
		if h, err = sysSocket(c.family, kind, protocol); err != nil {
			err = newFault(OpenFault, "socket", err)
		}
		c.owner.h = h
	}
	c.logDone(c.Logger.Info, "openDone", c.owner.h, t0, err, slog.String("family", c.family.String()))

	if err != nil {
		return nil, err
	}
	return c, nil
}

// derive returns an unowned core sharing the configuration of c.
func (c *Core[A]) derive() *Core[A] {
	return &Core[A]{
		family:            c.family,
		kind:              c.kind,
		protocol:          c.protocol,
		ErrClassifier:     c.ErrClassifier,
		Logger:            c.Logger,
		MaxSequenceLength: c.MaxSequenceLength,
		TimeNow:           c.TimeNow,
	}
}

// Handle returns the native handle, or zero when the core is unowned.
func (c *Core[A]) Handle() Handle {
	return c.owner.h
}

// Valid returns whether the core owns a live handle.
func (c *Core[A]) Valid() bool {
	return c.owner.valid()
}

// Family returns the address family.
func (c *Core[A]) Family() Family {
	return c.family
}

// Kind implements [Channel].
func (c *Core[A]) Kind() Kind {
	return c.kind
}

// Protocol returns the transport protocol.
func (c *Core[A]) Protocol() Protocol {
	return c.protocol
}

// SequenceLimit implements [Channel].
func (c *Core[A]) SequenceLimit() uint64 {
	return c.MaxSequenceLength
}

// Move transfers the handle into a new [*Core] and leaves c unowned.
//
// Closing c afterwards is a no-op.
func (c *Core[A]) Move() *Core[A] {
	dst := c.derive()
	dst.owner.h = c.owner.take()
	return dst
}

// Swap exchanges the whole state of c and src.
//
// This is move assignment: c takes over the handle of src, and the handle
// c previously owned, if any, is now owned by src and released when src
// is closed.
func (c *Core[A]) Swap(src *Core[A]) {
	c.owner.h, src.owner.h = src.owner.h, c.owner.h
	c.family, src.family = src.family, c.family
	c.kind, src.kind = src.kind, c.kind
	c.protocol, src.protocol = src.protocol, c.protocol
	c.ErrClassifier, src.ErrClassifier = src.ErrClassifier, c.ErrClassifier
	c.Logger, src.Logger = src.Logger, c.Logger
	c.MaxSequenceLength, src.MaxSequenceLength = src.MaxSequenceLength, c.MaxSequenceLength
	c.TimeNow, src.TimeNow = src.TimeNow, c.TimeNow
}

// Close releases the handle. It is idempotent and always returns nil.
//
// A failure of the native close is only reported by the closeDone event:
// the handle is gone either way.
func (c *Core[A]) Close() error {
	if !c.owner.valid() {
		return nil
	}
	t0 := c.TimeNow()
	c.logStart(c.Logger.Info, "closeStart", c.owner.h, t0)
	h, err := c.owner.release()
	c.logDone(c.Logger.Info, "closeDone", h, t0, err)
	return nil
}

// SetBlocking toggles blocking mode.
//
// A non-blocking socket still requires the caller to drive its own
// retry loop. Fails with an [OptionFault].
func (c *Core[A]) SetBlocking(blocking bool) error {
	if !c.owner.valid() {
		return newFault(OptionFault, callSetBlocking, errBadHandle)
	}
	var err error
	if serr := sysSetBlocking(c.owner.h, blocking); serr != nil {
		err = newFault(OptionFault, callSetBlocking, serr)
	}
	c.Logger.Debug(
		"setBlocking",
		slog.Bool("blocking", blocking),
		slog.Any("err", err),
		slog.String("errClass", c.ErrClassifier.Classify(err)),
		slog.String("handle", c.owner.h.String()),
		slog.String("protocol", c.protocol.String()),
		slog.Time("t", c.TimeNow()),
	)
	return err
}

// Send performs a single native send of p and returns the bytes moved.
//
// An empty p performs no call. Fails with an [IOFault].
func (c *Core[A]) Send(p []byte) (int, error) {
	if !c.owner.valid() {
		return 0, newFault(IOFault, "send", errBadHandle)
	}
	if len(p) == 0 {
		return 0, nil
	}
	t0 := c.TimeNow()
	c.logStart(c.Logger.Debug, "sendStart", c.owner.h, t0, slog.Int("ioBufferSize", len(p)))
	var err error
	n, serr := sysSend(c.owner.h, p)
	if serr != nil {
		n, err = 0, newFault(IOFault, "send", serr)
	}
	c.logDone(c.Logger.Debug, "sendDone", c.owner.h, t0, err, slog.Int("ioBytesCount", n))
	return n, err
}

// Recv performs a single native receive into p and returns the bytes moved.
//
// Receiving zero bytes means the peer closed the connection and is an
// [IOFault] wrapping [io.EOF]. An empty p performs no call.
func (c *Core[A]) Recv(p []byte) (int, error) {
	if !c.owner.valid() {
		return 0, newFault(IOFault, "recv", errBadHandle)
	}
	if len(p) == 0 {
		return 0, nil
	}
	t0 := c.TimeNow()
	c.logStart(c.Logger.Debug, "recvStart", c.owner.h, t0, slog.Int("ioBufferSize", len(p)))
	var err error
	n, serr := sysRecv(c.owner.h, p)
	switch {
	case serr != nil:
		n, err = 0, newFault(IOFault, "recv", serr)
	case n <= 0:
		n, err = 0, newFault(IOFault, "recv", io.EOF)
	}
	c.logDone(c.Logger.Debug, "recvDone", c.owner.h, t0, err, slog.Int("ioBytesCount", n))
	return n, err
}

// GetOption returns the integer value of a socket option.
//
// Fails with an [OptionFault].
func (c *Core[A]) GetOption(level, name int) (int, error) {
	if !c.owner.valid() {
		return 0, newFault(OptionFault, "getsockopt", errBadHandle)
	}
	value, err := sysGetsockopt(c.owner.h, level, name)
	if err != nil {
		return 0, newFault(OptionFault, "getsockopt", err)
	}
	return value, nil
}

// SetOption sets the integer value of a socket option.
//
// Fails with an [OptionFault].
func (c *Core[A]) SetOption(level, name, value int) error {
	if !c.owner.valid() {
		return newFault(OptionFault, "setsockopt", errBadHandle)
	}
	if err := sysSetsockopt(c.owner.h, level, name, value); err != nil {
		return newFault(OptionFault, "setsockopt", err)
	}
	return nil
}

// LocalAddr returns the address the socket is bound to.
//
// Use it to discover the ephemeral port assigned when binding to port 0.
// Fails with an [OptionFault].
func (c *Core[A]) LocalAddr() (netip.AddrPort, error) {
	if !c.owner.valid() {
		return netip.AddrPort{}, newFault(OptionFault, "getsockname", errBadHandle)
	}
	ap, err := sysLocalAddr(c.owner.h)
	if err != nil {
		return netip.AddrPort{}, newFault(OptionFault, "getsockname", err)
	}
	return ap, nil
}

// RemoteAddr returns the address of the connected peer.
//
// Fails with an [OptionFault].
func (c *Core[A]) RemoteAddr() (netip.AddrPort, error) {
	if !c.owner.valid() {
		return netip.AddrPort{}, newFault(OptionFault, "getpeername", errBadHandle)
	}
	ap, err := sysRemoteAddr(c.owner.h)
	if err != nil {
		return netip.AddrPort{}, newFault(OptionFault, "getpeername", err)
	}
	return ap, nil
}

// logAddr runs an address query for a lifecycle event field. It
// returns "" without a native call when the core is unowned or the
// logger drops Info events.
func (c *Core[A]) logAddr(query func() (netip.AddrPort, error)) string {
	if !c.owner.valid() || !loggerEnabled(c.Logger, slog.LevelInfo) {
		return ""
	}
	ap, err := query()
	if err != nil || !ap.IsValid() {
		return ""
	}
	return ap.String()
}

// logFunc is either the Info or the Debug method of an [SLogger].
type logFunc func(msg string, args ...any)

func (c *Core[A]) logStart(emit logFunc, event string, h Handle, t0 time.Time, extra ...any) {
	args := append(extra,
		slog.String("handle", h.String()),
		slog.String("protocol", c.protocol.String()),
		slog.Time("t", t0),
	)
	emit(event, args...)
}

func (c *Core[A]) logDone(emit logFunc, event string, h Handle, t0 time.Time, err error, extra ...any) {
	args := append(extra,
		slog.Any("err", err),
		slog.String("errClass", c.ErrClassifier.Classify(err)),
		slog.String("handle", h.String()),
		slog.String("protocol", c.protocol.String()),
		slog.Time("t0", t0),
		slog.Time("t", c.TimeNow()),
	)
	emit(event, args...)
}
