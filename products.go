// SPDX-License-Identifier: GPL-3.0-or-later

package sock

// A product is a [*Core] followed by an ordered list of capability layers.
// Layers only add methods, so two layers providing the same operation
// fail to compile at the call site instead of shadowing one another.
// A new product only needs a struct, a wrap function and a constructor.

// TCPStream is an IPv4 TCP stream socket that can bind, connect, listen,
// accept and select.
type TCPStream struct {
	*Core[IPv4Address]
	IPOptions[IPv4Address]
	Connectable[IPv4Address]
	Bindable[IPv4Address]
	Listening[IPv4Address, *TCPStream]
	Selectable[IPv4Address]
}

var (
	_ Binder[IPv4Address]    = &TCPStream{}
	_ Connector[IPv4Address] = &TCPStream{}
	_ Listener[*TCPStream]   = &TCPStream{}
	_ Selector               = &TCPStream{}
	_ Channel                = &TCPStream{}
)

// NewTCPStream opens a new [*TCPStream].
func NewTCPStream(cfg *Config, logger SLogger) (*TCPStream, error) {
	core, err := NewCore[IPv4Address](cfg, KindStream, ProtocolTCP, logger)
	if err != nil {
		return nil, err
	}
	return wrapTCPStream(core), nil
}

func wrapTCPStream(core *Core[IPv4Address]) *TCPStream {
	return &TCPStream{
		Core:        core,
		IPOptions:   WithIPOptions(core),
		Connectable: WithConnect(core),
		Bindable:    WithBind(core),
		Listening:   WithListen(core, wrapTCPStream),
		Selectable:  WithSelect(core),
	}
}

// Move transfers the handle into a new [*TCPStream] and leaves s unowned.
func (s *TCPStream) Move() *TCPStream {
	return wrapTCPStream(s.Core.Move())
}

// UDPSocket is an IPv4 UDP datagram socket with only the IP options layer.
type UDPSocket struct {
	*Core[IPv4Address]
	IPOptions[IPv4Address]
}

var _ Channel = &UDPSocket{}

// NewUDPSocket opens a new [*UDPSocket].
func NewUDPSocket(cfg *Config, logger SLogger) (*UDPSocket, error) {
	core, err := NewCore[IPv4Address](cfg, KindDatagram, ProtocolUDP, logger)
	if err != nil {
		return nil, err
	}
	return wrapUDPSocket(core), nil
}

func wrapUDPSocket(core *Core[IPv4Address]) *UDPSocket {
	return &UDPSocket{
		Core:      core,
		IPOptions: WithIPOptions(core),
	}
}

// Move transfers the handle into a new [*UDPSocket] and leaves s unowned.
func (s *UDPSocket) Move() *UDPSocket {
	return wrapUDPSocket(s.Core.Move())
}

// PollableTCPStream is a [TCPStream] variant that checks readiness
// with poll and reaction slots instead of select.
type PollableTCPStream struct {
	*Core[IPv4Address]
	IPOptions[IPv4Address]
	Connectable[IPv4Address]
	Bindable[IPv4Address]
	Listening[IPv4Address, *PollableTCPStream]
	Pollable[IPv4Address]
}

var (
	_ Binder[IPv4Address]          = &PollableTCPStream{}
	_ Connector[IPv4Address]       = &PollableTCPStream{}
	_ Listener[*PollableTCPStream] = &PollableTCPStream{}
	_ Poller                       = &PollableTCPStream{}
	_ Channel                      = &PollableTCPStream{}
)

// NewPollableTCPStream opens a new [*PollableTCPStream].
func NewPollableTCPStream(cfg *Config, logger SLogger) (*PollableTCPStream, error) {
	core, err := NewCore[IPv4Address](cfg, KindStream, ProtocolTCP, logger)
	if err != nil {
		return nil, err
	}
	return wrapPollableTCPStream(core), nil
}

func wrapPollableTCPStream(core *Core[IPv4Address]) *PollableTCPStream {
	return &PollableTCPStream{
		Core:        core,
		IPOptions:   WithIPOptions(core),
		Connectable: WithConnect(core),
		Bindable:    WithBind(core),
		Listening:   WithListen(core, wrapPollableTCPStream),
		Pollable:    WithPoll(core),
	}
}

// Move transfers the handle into a new [*PollableTCPStream] and leaves s
// unowned. The reaction slots are not carried over.
func (s *PollableTCPStream) Move() *PollableTCPStream {
	return wrapPollableTCPStream(s.Core.Move())
}

// UDPPeer is an IPv4 UDP datagram socket that can bind, connect to a
// default peer, poll and select.
type UDPPeer struct {
	*Core[IPv4Address]
	IPOptions[IPv4Address]
	Bindable[IPv4Address]
	Connectable[IPv4Address]
	Pollable[IPv4Address]
	Selectable[IPv4Address]
}

var (
	_ Binder[IPv4Address]    = &UDPPeer{}
	_ Connector[IPv4Address] = &UDPPeer{}
	_ Poller                 = &UDPPeer{}
	_ Selector               = &UDPPeer{}
	_ Channel                = &UDPPeer{}
)

// NewUDPPeer opens a new [*UDPPeer].
func NewUDPPeer(cfg *Config, logger SLogger) (*UDPPeer, error) {
	core, err := NewCore[IPv4Address](cfg, KindDatagram, ProtocolUDP, logger)
	if err != nil {
		return nil, err
	}
	return wrapUDPPeer(core), nil
}

func wrapUDPPeer(core *Core[IPv4Address]) *UDPPeer {
	return &UDPPeer{
		Core:        core,
		IPOptions:   WithIPOptions(core),
		Bindable:    WithBind(core),
		Connectable: WithConnect(core),
		Pollable:    WithPoll(core),
		Selectable:  WithSelect(core),
	}
}

// Move transfers the handle into a new [*UDPPeer] and leaves s unowned.
// The reaction slots are not carried over.
func (s *UDPPeer) Move() *UDPPeer {
	return wrapUDPPeer(s.Core.Move())
}
