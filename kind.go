// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import "fmt"

// Kind is the communication style of a socket.
//
// Values map one-to-one onto the platform SOCK_* constants.
type Kind int

const (
	// KindStream is a reliable, ordered byte stream (SOCK_STREAM).
	KindStream Kind = iota + 1

	// KindDatagram is an unreliable, connectionless message service (SOCK_DGRAM).
	KindDatagram

	// KindRaw is interface-level access (SOCK_RAW).
	KindRaw
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindStream:
		return "stream"
	case KindDatagram:
		return "datagram"
	case KindRaw:
		return "raw"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Protocol is the transport protocol of a socket.
//
// Values map one-to-one onto the platform IPPROTO_* constants. Add new
// values here and in the sys files as needed.
type Protocol int

const (
	// ProtocolIP is the Internet Protocol (IPPROTO_IP).
	ProtocolIP Protocol = iota + 1

	// ProtocolICMP is the Internet Control Message Protocol (IPPROTO_ICMP).
	ProtocolICMP

	// ProtocolTCP is the Transmission Control Protocol (IPPROTO_TCP).
	ProtocolTCP

	// ProtocolUDP is the User Datagram Protocol (IPPROTO_UDP).
	ProtocolUDP
)

// String returns the lowercase protocol name, as used in log events.
func (p Protocol) String() string {
	switch p {
	case ProtocolIP:
		return "ip"
	case ProtocolICMP:
		return "icmp"
	case ProtocolTCP:
		return "tcp"
	case ProtocolUDP:
		return "udp"
	default:
		return fmt.Sprintf("Protocol(%d)", int(p))
	}
}
