// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCore(t *testing.T) {
	tests := []struct {
		// name describes what this test case verifies.
		name string

		// kind is the socket kind.
		kind Kind

		// protocol is the transport protocol.
		protocol Protocol
	}{
		{
			name:     "TCP stream",
			kind:     KindStream,
			protocol: ProtocolTCP,
		},
		{
			name:     "UDP datagram",
			kind:     KindDatagram,
			protocol: ProtocolUDP,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, err := NewCore[IPv4Address](NewConfig(), tt.kind, tt.protocol, DefaultSLogger())
			require.NoError(t, err)
			defer core.Close()

			assert.True(t, core.Valid())
			assert.NotEqual(t, Handle(0), core.Handle())
			assert.Equal(t, FamilyIPv4, core.Family())
			assert.Equal(t, tt.kind, core.Kind())
			assert.Equal(t, tt.protocol, core.Protocol())
			assert.Equal(t, uint64(DefaultMaxSequenceLength), core.SequenceLimit())
		})
	}
}

func TestNewCoreInvalidCombination(t *testing.T) {
	// A datagram socket cannot speak TCP
	core, err := NewCore[IPv4Address](NewConfig(), KindDatagram, ProtocolTCP, DefaultSLogger())

	require.ErrorIs(t, err, OpenFault)
	assert.Nil(t, core)
}

func TestNewCoreLogging(t *testing.T) {
	logger, records := newCapturingLogger()

	core, err := NewCore[IPv4Address](NewConfig(), KindStream, ProtocolTCP, logger)
	require.NoError(t, err)
	core.Close()

	assert.Equal(t, []string{"openStart", "openDone", "closeStart", "closeDone"}, eventNames(*records))

	attrs := findEvent(t, *records, "openDone")
	assert.Equal(t, "tcp", attrs["protocol"].String())
	assert.Equal(t, "ipv4", attrs["family"].String())
	assert.Equal(t, "", attrs["errClass"].String())
	assert.NotEqual(t, "0", attrs["handle"].String())
}

func TestCoreClose(t *testing.T) {
	logger, records := newCapturingLogger()
	core, err := NewCore[IPv4Address](NewConfig(), KindStream, ProtocolTCP, logger)
	require.NoError(t, err)

	require.NoError(t, core.Close())
	assert.False(t, core.Valid())
	assert.Equal(t, Handle(0), core.Handle())

	// Closing again is a no-op that emits nothing
	*records = nil
	require.NoError(t, core.Close())
	assert.Empty(t, *records)
}

func TestCoreMove(t *testing.T) {
	src, err := NewCore[IPv4Address](NewConfig(), KindStream, ProtocolTCP, DefaultSLogger())
	require.NoError(t, err)
	defer src.Close()
	h := src.Handle()

	dst := src.Move()
	defer dst.Close()

	assert.False(t, src.Valid())
	assert.Equal(t, h, dst.Handle())
	assert.Equal(t, KindStream, dst.Kind())
	assert.Equal(t, ProtocolTCP, dst.Protocol())

	// The moved-from core is closable and inert
	require.NoError(t, src.Close())
	assert.True(t, dst.Valid())
}

func TestCoreSwap(t *testing.T) {
	stream, err := NewCore[IPv4Address](NewConfig(), KindStream, ProtocolTCP, DefaultSLogger())
	require.NoError(t, err)
	defer stream.Close()
	datagram, err := NewCore[IPv4Address](NewConfig(), KindDatagram, ProtocolUDP, DefaultSLogger())
	require.NoError(t, err)
	defer datagram.Close()
	hs, hd := stream.Handle(), datagram.Handle()

	stream.Swap(datagram)

	assert.Equal(t, hd, stream.Handle())
	assert.Equal(t, KindDatagram, stream.Kind())
	assert.Equal(t, hs, datagram.Handle())
	assert.Equal(t, KindStream, datagram.Kind())

	// Swapping with an unowned core is move assignment
	var empty Core[IPv4Address]
	stream.Swap(&empty)
	assert.False(t, stream.Valid())
	assert.Equal(t, hd, empty.Handle())
	require.NoError(t, empty.Close())
	assert.False(t, empty.Valid())
}

func TestCoreSetBlocking(t *testing.T) {
	logger, records := newCapturingLogger()
	core, err := NewCore[IPv4Address](NewConfig(), KindStream, ProtocolTCP, logger)
	require.NoError(t, err)
	defer core.Close()

	require.NoError(t, core.SetBlocking(false))
	require.NoError(t, core.SetBlocking(true))

	attrs := findEvent(t, *records, "setBlocking")
	assert.False(t, attrs["blocking"].Bool())
}

func TestCoreUnowned(t *testing.T) {
	var core Core[IPv4Address]
	buf := make([]byte, 4)

	tests := []struct {
		// name describes what this test case verifies.
		name string

		// run invokes the operation under test.
		run func() error

		// want is the expected fault kind.
		want FaultKind
	}{
		{"SetBlocking", func() error { return core.SetBlocking(true) }, OptionFault},
		{"Send", func() error { _, err := core.Send(buf); return err }, IOFault},
		{"Recv", func() error { _, err := core.Recv(buf); return err }, IOFault},
		{"GetOption", func() error { _, err := core.GetOption(1, 1); return err }, OptionFault},
		{"SetOption", func() error { return core.SetOption(1, 1, 1) }, OptionFault},
		{"LocalAddr", func() error { _, err := core.LocalAddr(); return err }, OptionFault},
		{"RemoteAddr", func() error { _, err := core.RemoteAddr(); return err }, OptionFault},
		{"Bind", func() error { return WithBind(&core).Bind(loopback) }, BindFault},
		{"Connect", func() error { return WithConnect(&core).Connect(loopback) }, ConnectFault},
		{"Listen", func() error { return WithListen(&core, wrapTCPStream).Listen(1) }, ListenFault},
		{"Accept", func() error { _, err := WithListen(&core, wrapTCPStream).Accept(); return err }, AcceptFault},
		{"Select", func() error { return WithSelect(&core).Select(0, nil, nil, nil) }, SelectFault},
		{"Poll", func() error { p := WithPoll(&core); _, err := p.Poll(0); return err }, PollFault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, errBadHandle)
		})
	}

	require.NoError(t, core.Close())
}

func TestCoreSendRecv(t *testing.T) {
	client, server := newStreamPair(t)

	t.Run("empty buffers perform no call", func(t *testing.T) {
		n, err := client.Send(nil)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		n, err = server.Recv([]byte{})
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("bytes flow", func(t *testing.T) {
		n, err := client.Send([]byte("hello"))
		require.NoError(t, err)
		assert.Equal(t, 5, n)

		buf := make([]byte, 5)
		require.NoError(t, recvAll(server, buf))
		assert.Equal(t, "hello", string(buf))
	})

	t.Run("peer close is EOF", func(t *testing.T) {
		require.NoError(t, client.Close())

		n, err := server.Recv(make([]byte, 1))
		require.ErrorIs(t, err, IOFault)
		assert.ErrorIs(t, err, io.EOF)
		assert.Equal(t, 0, n)
	})
}

func TestCoreSendRecvLogging(t *testing.T) {
	client, server := newStreamPair(t)
	logger, records := newCapturingLogger()
	client.Logger = logger

	_, err := client.Send([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, recvAll(server, make([]byte, 3)))

	assert.Equal(t, []string{"sendStart", "sendDone"}, eventNames(*records))
	attrs := findEvent(t, *records, "sendDone")
	assert.Equal(t, int64(3), attrs["ioBytesCount"].Int64())
	assert.Equal(t, "tcp", attrs["protocol"].String())
}

func TestCoreOptions(t *testing.T) {
	core, err := NewCore[IPv4Address](NewConfig(), KindStream, ProtocolTCP, DefaultSLogger())
	require.NoError(t, err)
	defer core.Close()

	// Option values differ across platforms; an invalid level fails everywhere.
	_, err = core.GetOption(-1, -1)
	require.ErrorIs(t, err, OptionFault)

	err = core.SetOption(-1, -1, 0)
	require.ErrorIs(t, err, OptionFault)

	var fault *Fault
	require.True(t, errors.As(err, &fault))
	assert.Equal(t, "setsockopt", fault.Call)
}

func TestCoreTimeNow(t *testing.T) {
	cfg := NewConfig()
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg.TimeNow = func() time.Time { return fixed }
	logger, records := newCapturingLogger()

	core, err := NewCore[IPv4Address](cfg, KindStream, ProtocolTCP, logger)
	require.NoError(t, err)
	core.Close()

	attrs := findEvent(t, *records, "openDone")
	assert.True(t, fixed.Equal(attrs["t0"].Time()))
	assert.True(t, fixed.Equal(attrs["t"].Time()))
}
