// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import (
	"context"

	"github.com/bassosimone/runtimex"
)

// NewOpenFunc returns a [Func] that opens a new socket using open, which
// is usually a product constructor such as [NewTCPStream] or [NewUDPPeer].
//
// Returns either a valid socket or an error, never both.
func NewOpenFunc[S any](cfg *Config, logger SLogger, open func(*Config, SLogger) (S, error)) Func[Unit, S] {
	runtimex.Assert(cfg != nil && logger != nil && open != nil)
	return FuncAdapter[Unit, S](func(ctx context.Context, _ Unit) (S, error) {
		return open(cfg, logger)
	})
}

// NewBindFunc returns a [Func] that binds its input socket to address.
//
// On failure, the input socket is closed.
func NewBindFunc[S Binder[A], A Address](address A) Func[S, S] {
	return FuncAdapter[S, S](func(ctx context.Context, s S) (S, error) {
		return closeOnError(s, s.Bind(address))
	})
}

// NewConnectFunc returns a [Func] that connects its input socket to address.
//
// On failure, the input socket is closed.
func NewConnectFunc[S Connector[A], A Address](address A) Func[S, S] {
	return FuncAdapter[S, S](func(ctx context.Context, s S) (S, error) {
		return closeOnError(s, s.Connect(address))
	})
}

// passive is the part of [Listener] that [NewListenFunc] needs.
type passive interface {
	Listen(backlog int) error
	Close() error
}

// NewListenFunc returns a [Func] that marks its input socket as passive.
//
// On failure, the input socket is closed.
func NewListenFunc[S passive](backlog int) Func[S, S] {
	return FuncAdapter[S, S](func(ctx context.Context, s S) (S, error) {
		return closeOnError(s, s.Listen(backlog))
	})
}

// NewDialFunc returns a [Func] that opens a socket using open and
// connects it to the input address.
//
// Returns either a connected socket or an error, never both.
func NewDialFunc[S Connector[IPv4Address]](cfg *Config, logger SLogger, open func(*Config, SLogger) (S, error)) Func[IPv4Address, S] {
	runtimex.Assert(cfg != nil && logger != nil && open != nil)
	return FuncAdapter[IPv4Address, S](func(ctx context.Context, address IPv4Address) (S, error) {
		s, err := open(cfg, logger)
		if err != nil {
			return s, err
		}
		return closeOnError(s, s.Connect(address))
	})
}

// closeOnError closes s when err is not nil.
func closeOnError[S interface{ Close() error }](s S, err error) (S, error) {
	if err != nil {
		s.Close()
		var zero S
		return zero, err
	}
	return s, nil
}
