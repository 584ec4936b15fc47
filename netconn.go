// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import (
	"context"
	"log/slog"
	"net"
	"syscall"
	"time"

	"github.com/bassosimone/safeconn"
)

// Exportable is implemented by every socket of this package and allows
// [*NetConnFunc] to move the handle out of it.
type Exportable interface {
	Handle() Handle
	Protocol() Protocol
	Close() error
	detach() Handle
}

var _ Exportable = &TCPStream{}

// detach transfers the handle out of c without closing it.
func (c *Core[A]) detach() Handle {
	return c.owner.take()
}

// NewNetConnFunc returns a new [*NetConnFunc].
//
// The cfg argument contains the common configuration.
//
// The logger argument is the [SLogger] to use for structured logging.
func NewNetConnFunc[S Exportable](cfg *Config, logger SLogger) *NetConnFunc[S] {
	return &NetConnFunc[S]{
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		TimeNow:       cfg.TimeNow,
	}
}

// NetConnFunc moves the handle of a socket into a standard library [net.Conn].
//
// The input socket is left unowned whether the call succeeds or not: on
// failure its handle is closed. Only Unix systems support the export.
//
// Returns either a valid [net.Conn] or an error, never both.
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to [Call].
type NetConnFunc[S Exportable] struct {
	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewNetConnFunc] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use.
	//
	// Set by [NewNetConnFunc] to the user-provided logger.
	Logger SLogger

	// TimeNow is the function to get the current time.
	//
	// Set by [NewNetConnFunc] from [Config.TimeNow].
	TimeNow func() time.Time
}

var _ Func[*TCPStream, net.Conn] = &NetConnFunc[*TCPStream]{}

// Call invokes the [*NetConnFunc] to convert the socket into a [net.Conn].
func (op *NetConnFunc[S]) Call(ctx context.Context, s S) (net.Conn, error) {
	t0 := op.TimeNow()
	h := s.Handle()
	protocol := s.Protocol().String()
	op.logNetConnStart(h, protocol, t0)
	conn, err := op.export(s)
	op.logNetConnDone(h, protocol, t0, conn, err)
	return conn, err
}

func (op *NetConnFunc[S]) export(s S) (net.Conn, error) {
	h := s.detach()
	if h == 0 {
		return nil, newFault(OptionFault, "dup", errBadHandle)
	}
	conn, err := sysNetConn(h)
	if err != nil {
		return nil, newFault(OptionFault, "dup", err)
	}
	return conn, nil
}

func (op *NetConnFunc[S]) logNetConnStart(h Handle, protocol string, t0 time.Time) {
	op.Logger.Info(
		"netConnStart",
		slog.String("handle", h.String()),
		slog.String("protocol", protocol),
		slog.Time("t", t0),
	)
}

func (op *NetConnFunc[S]) logNetConnDone(h Handle, protocol string, t0 time.Time, conn net.Conn, err error) {
	op.Logger.Info(
		"netConnDone",
		slog.Any("err", err),
		slog.String("errClass", op.ErrClassifier.Classify(err)),
		slog.String("handle", h.String()),
		slog.String("localAddr", safeconn.LocalAddr(conn)),
		slog.String("protocol", protocol),
		slog.String("remoteAddr", safeconn.RemoteAddr(conn)),
		slog.Time("t0", t0),
		slog.Time("t", op.TimeNow()),
	)
}

// NewAdoptFunc returns a new [*AdoptFunc].
//
// The cfg argument contains the common configuration.
//
// The logger argument is the [SLogger] to use for structured logging.
func NewAdoptFunc(cfg *Config, logger SLogger) *AdoptFunc {
	return &AdoptFunc{
		ErrClassifier:     cfg.ErrClassifier,
		Logger:            logger,
		MaxSequenceLength: cfg.MaxSequenceLength,
		TimeNow:           cfg.TimeNow,
	}
}

// AdoptFunc takes over an IPv4 TCP [net.Conn] as a blocking [*TCPStream].
//
// The input must implement [syscall.Conn]. Its descriptor is duplicated
// into the new socket and the input connection is always closed.
//
// Returns either a valid [*TCPStream] or an error, never both. The error
// is an [OptionFault] when the connection has no usable descriptor or is
// not an IPv4 stream socket.
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to [Call].
type AdoptFunc struct {
	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewAdoptFunc] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use.
	//
	// Set by [NewAdoptFunc] to the user-provided logger.
	Logger SLogger

	// MaxSequenceLength is copied into the adopted socket.
	//
	// Set by [NewAdoptFunc] from [Config.MaxSequenceLength].
	MaxSequenceLength uint64

	// TimeNow is the function to get the current time.
	//
	// Set by [NewAdoptFunc] from [Config.TimeNow].
	TimeNow func() time.Time
}

var _ Func[net.Conn, *TCPStream] = &AdoptFunc{}

// Call invokes the [*AdoptFunc] to adopt the given [net.Conn].
func (op *AdoptFunc) Call(ctx context.Context, conn net.Conn) (*TCPStream, error) {
	t0 := op.TimeNow()
	op.logAdoptStart(conn, t0)
	s, err := op.adopt(conn)
	conn.Close()
	var h Handle
	if s != nil {
		h = s.Handle()
	}
	op.logAdoptDone(conn, h, t0, err)
	return s, err
}

func (op *AdoptFunc) adopt(conn net.Conn) (*TCPStream, error) {
	if err := ensureSubsystem(); err != nil {
		return nil, err
	}
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return nil, newFault(OptionFault, "dup", errNotSocket)
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return nil, newFault(OptionFault, "dup", err)
	}
	var (
		h    Handle
		derr error
	)
	if cerr := raw.Control(func(fd uintptr) { h, derr = sysDup(fd) }); cerr != nil {
		derr = cerr
	}
	if derr != nil {
		return nil, newFault(OptionFault, "dup", derr)
	}

	core := &Core[IPv4Address]{
		family:            FamilyIPv4,
		kind:              KindStream,
		protocol:          ProtocolTCP,
		ErrClassifier:     op.ErrClassifier,
		Logger:            op.Logger,
		MaxSequenceLength: op.MaxSequenceLength,
		TimeNow:           op.TimeNow,
	}
	core.owner.h = h
	if err := checkAdopted(h); err != nil {
		core.Close()
		return nil, err
	}
	return wrapTCPStream(core), nil
}

// checkAdopted verifies that h is a blocking IPv4 stream socket.
func checkAdopted(h Handle) error {
	stream, err := sysIsStream(h)
	if err != nil {
		return newFault(OptionFault, "getsockopt", err)
	}
	if !stream {
		return newFault(OptionFault, "getsockopt", errNotStream)
	}
	ap, err := sysLocalAddr(h)
	if err != nil {
		return newFault(OptionFault, "getsockname", err)
	}
	if !ap.Addr().Is4() {
		return newFault(OptionFault, "getsockname", ErrIPv6NotImplemented)
	}
	if err := sysSetBlocking(h, true); err != nil {
		return newFault(OptionFault, callSetBlocking, err)
	}
	return nil
}

func (op *AdoptFunc) logAdoptStart(conn net.Conn, t0 time.Time) {
	op.Logger.Info(
		"adoptStart",
		slog.String("localAddr", safeconn.LocalAddr(conn)),
		slog.String("protocol", safeconn.Network(conn)),
		slog.String("remoteAddr", safeconn.RemoteAddr(conn)),
		slog.Time("t", t0),
	)
}

func (op *AdoptFunc) logAdoptDone(conn net.Conn, h Handle, t0 time.Time, err error) {
	op.Logger.Info(
		"adoptDone",
		slog.Any("err", err),
		slog.String("errClass", op.ErrClassifier.Classify(err)),
		slog.String("handle", h.String()),
		slog.String("localAddr", safeconn.LocalAddr(conn)),
		slog.String("protocol", safeconn.Network(conn)),
		slog.String("remoteAddr", safeconn.RemoteAddr(conn)),
		slog.Time("t0", t0),
		slog.Time("t", op.TimeNow()),
	)
}
