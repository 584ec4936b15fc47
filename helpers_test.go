// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"testing"

	"github.com/bassosimone/netstub"
	"github.com/bassosimone/slogstub"
	"github.com/stretchr/testify/require"
)

// newCapturingLogger returns a logger that captures all log records into the
// returned slice. The caller can inspect the slice after exercising the code
// under test to verify which events were emitted.
func newCapturingLogger() (*slog.Logger, *[]slog.Record) {
	var (
		mu      sync.Mutex
		records []slog.Record
	)
	handler := &slogstub.FuncHandler{
		EnabledFunc: func(ctx context.Context, level slog.Level) bool {
			return true
		},
		HandleFunc: func(ctx context.Context, record slog.Record) error {
			mu.Lock()
			records = append(records, record)
			mu.Unlock()
			return nil
		},
	}
	return slog.New(handler), &records
}

// eventNames returns the messages of the captured records, in order.
func eventNames(records []slog.Record) []string {
	var names []string
	for _, record := range records {
		names = append(names, record.Message)
	}
	return names
}

// findEvent returns the attributes of the first record with the given message.
func findEvent(t *testing.T, records []slog.Record, message string) map[string]slog.Value {
	t.Helper()
	for _, record := range records {
		if record.Message != message {
			continue
		}
		attrs := make(map[string]slog.Value)
		record.Attrs(func(attr slog.Attr) bool {
			attrs[attr.Key] = attr.Value
			return true
		})
		return attrs
	}
	require.FailNow(t, "event not found", "message: %s", message)
	return nil
}

// newMinimalConn returns a [*netstub.FuncConn] with only LocalAddrFunc and
// RemoteAddrFunc set. This is the minimum needed for code that calls
// [safeconn.LocalAddr], [safeconn.RemoteAddr], and [safeconn.Network].
func newMinimalConn() *netstub.FuncConn {
	return &netstub.FuncConn{
		LocalAddrFunc:  func() net.Addr { return &net.TCPAddr{} },
		RemoteAddrFunc: func() net.Addr { return &net.TCPAddr{} },
	}
}

// loopback is 127.0.0.1 with port zero, for binding to an ephemeral port.
var loopback = MustIPv4Address("127.0.0.1", 0)

// newTestListener returns a [*TCPStream] listening on an ephemeral
// loopback port, along with the address it is bound to.
func newTestListener(t *testing.T) (*TCPStream, IPv4Address) {
	t.Helper()
	listener, err := NewTCPStream(NewConfig(), DefaultSLogger())
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })
	require.NoError(t, listener.Bind(loopback))
	require.NoError(t, listener.Listen(DefaultBacklog))
	ap, err := listener.LocalAddr()
	require.NoError(t, err)
	return listener, IPv4AddressFrom(ap)
}

// newStreamPair returns a connected client and the server side accepted
// from a fresh listener.
func newStreamPair(t *testing.T) (client, server *TCPStream) {
	t.Helper()
	listener, address := newTestListener(t)
	client, err := NewTCPStream(NewConfig(), DefaultSLogger())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Connect(address))
	server, err = listener.Accept()
	require.NoError(t, err)
	t.Cleanup(func() { server.Close() })
	return client, server
}

// newPeerPair returns two [*UDPPeer] bound to loopback and connected
// to each other.
func newPeerPair(t *testing.T) (left, right *UDPPeer) {
	t.Helper()
	open := func() (*UDPPeer, IPv4Address) {
		peer, err := NewUDPPeer(NewConfig(), DefaultSLogger())
		require.NoError(t, err)
		t.Cleanup(func() { peer.Close() })
		require.NoError(t, peer.Bind(loopback))
		ap, err := peer.LocalAddr()
		require.NoError(t, err)
		return peer, IPv4AddressFrom(ap)
	}
	left, leftAddr := open()
	right, rightAddr := open()
	require.NoError(t, left.Connect(rightAddr))
	require.NoError(t, right.Connect(leftAddr))
	return left, right
}
