// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import (
	"log/slog"

	"github.com/bassosimone/runtimex"
)

// DefaultBacklog is the platform maximum listen backlog (SOMAXCONN).
const DefaultBacklog = nativeMaxBacklog

// Binder is the capability of binding to a local address.
type Binder[A Address] interface {
	Bind(address A) error
	Close() error
}

// Connector is the capability of connecting to a remote address.
type Connector[A Address] interface {
	Connect(address A) error
	Close() error
}

// Listener is the capability of accepting connections as sockets of type S.
type Listener[S any] interface {
	Listen(backlog int) error
	Accept() (S, error)
	Close() error
}

// IPOptions is the layer for IP-level socket options.
//
// It currently adds no operation.
type IPOptions[A Address] struct {
	core *Core[A]
}

// WithIPOptions returns the [IPOptions] layer over core.
func WithIPOptions[A Address](core *Core[A]) IPOptions[A] {
	runtimex.Assert(core != nil)
	return IPOptions[A]{core: core}
}

// Bindable adds server-side binding.
type Bindable[A Address] struct {
	core *Core[A]
}

// WithBind returns the [Bindable] layer over core.
func WithBind[A Address](core *Core[A]) Bindable[A] {
	runtimex.Assert(core != nil)
	return Bindable[A]{core: core}
}

// Bind assigns the local address.
//
// Fails with a [BindFault]; the socket stays open.
func (b Bindable[A]) Bind(address A) error {
	c := b.core
	if !c.owner.valid() {
		return newFault(BindFault, "bind", errBadHandle)
	}
	t0 := c.TimeNow()
	c.logStart(c.Logger.Info, "bindStart", c.owner.h, t0, slog.String("localAddr", address.String()))
	var err error
	sa, serr := address.sockaddr()
	if serr == nil {
		serr = sysBind(c.owner.h, sa)
	}
	if serr != nil {
		err = newFault(BindFault, "bind", serr)
	}
	c.logDone(c.Logger.Info, "bindDone", c.owner.h, t0, err,
		slog.String("localAddr", c.logAddr(c.LocalAddr)))
	return err
}

// Connectable adds client-side connecting.
type Connectable[A Address] struct {
	core *Core[A]
}

// WithConnect returns the [Connectable] layer over core.
func WithConnect[A Address](core *Core[A]) Connectable[A] {
	runtimex.Assert(core != nil)
	return Connectable[A]{core: core}
}

// Connect connects to the remote address, blocking until the connection is
// established or refused (unless the socket is non-blocking).
//
// Fails with a [ConnectFault]; the socket stays open so the caller may
// retry with another address.
func (cn Connectable[A]) Connect(address A) error {
	c := cn.core
	if !c.owner.valid() {
		return newFault(ConnectFault, "connect", errBadHandle)
	}
	t0 := c.TimeNow()
	c.logStart(c.Logger.Info, "connectStart", c.owner.h, t0, slog.String("remoteAddr", address.String()))
	var err error
	sa, serr := address.sockaddr()
	if serr == nil {
		serr = sysConnect(c.owner.h, sa)
	}
	if serr != nil {
		err = newFault(ConnectFault, "connect", serr)
	}
	c.logDone(c.Logger.Info, "connectDone", c.owner.h, t0, err,
		slog.String("localAddr", c.logAddr(c.LocalAddr)),
		slog.String("remoteAddr", address.String()),
	)
	return err
}

// Listening adds server-side listening and accepting. Accepted
// connections are wrapped into the concrete type S.
type Listening[A Address, S any] struct {
	core *Core[A]
	wrap func(*Core[A]) S
}

// WithListen returns the [Listening] layer over core. The wrap function
// builds the concrete socket type of accepted connections.
func WithListen[A Address, S any](core *Core[A], wrap func(*Core[A]) S) Listening[A, S] {
	runtimex.Assert(core != nil && wrap != nil)
	return Listening[A, S]{core: core, wrap: wrap}
}

// Listen marks the socket as passive. Use [DefaultBacklog] for the
// platform maximum.
//
// Fails with a [ListenFault].
func (l Listening[A, S]) Listen(backlog int) error {
	c := l.core
	if !c.owner.valid() {
		return newFault(ListenFault, "listen", errBadHandle)
	}
	t0 := c.TimeNow()
	c.logStart(c.Logger.Info, "listenStart", c.owner.h, t0, slog.Int("backlog", backlog))
	var err error
	if serr := sysListen(c.owner.h, backlog); serr != nil {
		err = newFault(ListenFault, "listen", serr)
	}
	c.logDone(c.Logger.Info, "listenDone", c.owner.h, t0, err,
		slog.Int("backlog", backlog),
		slog.String("localAddr", c.logAddr(c.LocalAddr)),
	)
	return err
}

// Accept blocks until a peer connects and returns the connection as a
// new, independently owned socket.
//
// Fails with an [AcceptFault].
func (l Listening[A, S]) Accept() (S, error) {
	var zero S
	c := l.core
	if !c.owner.valid() {
		return zero, newFault(AcceptFault, "accept", errBadHandle)
	}
	t0 := c.TimeNow()
	c.logStart(c.Logger.Info, "acceptStart", c.owner.h, t0)
	conn := c.derive()
	var err error
	h, serr := sysAccept(c.owner.h)
	if serr != nil {
		err = newFault(AcceptFault, "accept", serr)
	}
	conn.owner.h = h
	c.logDone(c.Logger.Info, "acceptDone", c.owner.h, t0, err,
		slog.String("acceptedHandle", h.String()),
		slog.String("localAddr", conn.logAddr(conn.LocalAddr)),
		slog.String("remoteAddr", conn.logAddr(conn.RemoteAddr)),
	)
	if err != nil {
		return zero, err
	}
	return l.wrap(conn), nil
}
