// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducts(t *testing.T) {
	cfg := NewConfig()
	logger := DefaultSLogger()

	tests := []struct {
		// name describes what this test case verifies.
		name string

		// open opens the product and returns its core.
		open func() (*Core[IPv4Address], error)

		// kind is the expected kind.
		kind Kind

		// protocol is the expected protocol.
		protocol Protocol
	}{
		{
			name: "TCPStream",
			open: func() (*Core[IPv4Address], error) {
				s, err := NewTCPStream(cfg, logger)
				if err != nil {
					return nil, err
				}
				return s.Core, nil
			},
			kind:     KindStream,
			protocol: ProtocolTCP,
		},
		{
			name: "UDPSocket",
			open: func() (*Core[IPv4Address], error) {
				s, err := NewUDPSocket(cfg, logger)
				if err != nil {
					return nil, err
				}
				return s.Core, nil
			},
			kind:     KindDatagram,
			protocol: ProtocolUDP,
		},
		{
			name: "PollableTCPStream",
			open: func() (*Core[IPv4Address], error) {
				s, err := NewPollableTCPStream(cfg, logger)
				if err != nil {
					return nil, err
				}
				return s.Core, nil
			},
			kind:     KindStream,
			protocol: ProtocolTCP,
		},
		{
			name: "UDPPeer",
			open: func() (*Core[IPv4Address], error) {
				s, err := NewUDPPeer(cfg, logger)
				if err != nil {
					return nil, err
				}
				return s.Core, nil
			},
			kind:     KindDatagram,
			protocol: ProtocolUDP,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, err := tt.open()
			require.NoError(t, err)
			defer core.Close()

			assert.True(t, core.Valid())
			assert.Equal(t, FamilyIPv4, core.Family())
			assert.Equal(t, tt.kind, core.Kind())
			assert.Equal(t, tt.protocol, core.Protocol())
		})
	}
}

func TestProductLayersShareCore(t *testing.T) {
	s, err := NewTCPStream(NewConfig(), DefaultSLogger())
	require.NoError(t, err)
	defer s.Close()

	assert.Same(t, s.Core, s.IPOptions.core)
	assert.Same(t, s.Core, s.Connectable.core)
	assert.Same(t, s.Core, s.Bindable.core)
	assert.Same(t, s.Core, s.Listening.core)
	assert.Same(t, s.Core, s.Selectable.core)
}

func TestTCPStreamMove(t *testing.T) {
	s, err := NewTCPStream(NewConfig(), DefaultSLogger())
	require.NoError(t, err)
	h := s.Handle()

	moved := s.Move()
	defer moved.Close()

	assert.False(t, s.Valid())
	assert.Equal(t, h, moved.Handle())
	assert.Same(t, moved.Core, moved.Bindable.core)

	// The moved-from stream fails without touching the new owner
	err = s.Bind(loopback)
	require.ErrorIs(t, err, BindFault)
	require.NoError(t, moved.Bind(loopback))
}

func TestUDPSocketMove(t *testing.T) {
	s, err := NewUDPSocket(NewConfig(), DefaultSLogger())
	require.NoError(t, err)
	h := s.Handle()

	moved := s.Move()
	defer moved.Close()

	assert.Equal(t, h, moved.Handle())
	assert.False(t, s.Valid())
}

func TestUDPSocketSendWithoutPeer(t *testing.T) {
	s, err := NewUDPSocket(NewConfig(), DefaultSLogger())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Send([]byte("x"))
	require.ErrorIs(t, err, IOFault)
}

func TestUDPPeerExchange(t *testing.T) {
	left, right := newPeerPair(t)

	n, err := left.Send([]byte("datagram"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	buf := make([]byte, 64)
	n, err = right.Recv(buf)
	require.NoError(t, err)
	assert.Equal(t, "datagram", string(buf[:n]))

	moved := right.Move()
	defer moved.Close()
	assert.Nil(t, moved.OnRead)
	assert.False(t, right.Valid())
}
