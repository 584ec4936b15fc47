// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"

	"github.com/bassosimone/runtimex"
)

// Family is the address family of a socket.
type Family int

const (
	// FamilyIPv4 is AF_INET.
	FamilyIPv4 Family = iota + 1

	// FamilyIPv6 is AF_INET6.
	FamilyIPv6
)

// String returns a short name for the family.
func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "ipv4"
	case FamilyIPv6:
		return "ipv6"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// Address describes an endpoint of a given [Family].
//
// The interface is sealed: the implementations are [IPv4Address]
// and the [IPv6Address] placeholder.
type Address interface {
	// Family returns the address family.
	Family() Family

	// String returns the endpoint in host:port notation.
	String() string

	// sockaddr returns the native address record.
	sockaddr() (nativeSockaddr, error)
}

// IPv4Address is an IPv4 endpoint.
//
// The address and the port are stored in network byte order, which is the
// layout of the native sockaddr_in record. The zero value is 0.0.0.0:0.
type IPv4Address struct {
	addr [4]byte
	port [2]byte
}

var _ Address = IPv4Address{}

// NewIPv4Address builds an [IPv4Address] from a dotted-decimal literal and a port.
//
// Only the four-octet dotted-decimal form is accepted.
func NewIPv4Address(text string, port uint16) (IPv4Address, error) {
	ip, err := netip.ParseAddr(text)
	if err != nil {
		return IPv4Address{}, fmt.Errorf("sock: invalid IPv4 literal %q: %w", text, err)
	}
	if !ip.Is4() {
		return IPv4Address{}, fmt.Errorf("sock: invalid IPv4 literal %q: not an IPv4 address", text)
	}
	return IPv4AddressFrom(netip.AddrPortFrom(ip, port)), nil
}

// MustIPv4Address is like [NewIPv4Address] but panics on error.
func MustIPv4Address(text string, port uint16) IPv4Address {
	return runtimex.PanicOnError1(NewIPv4Address(text, port))
}

// IPv4AddressFrom converts a [netip.AddrPort] holding an IPv4 (or
// IPv4-mapped IPv6) address into an [IPv4Address].
//
// This function panics if the address is not IPv4.
func IPv4AddressFrom(ap netip.AddrPort) IPv4Address {
	ip := ap.Addr().Unmap()
	runtimex.Assert(ip.Is4())
	var a IPv4Address
	a.addr = ip.As4()
	binary.BigEndian.PutUint16(a.port[:], ap.Port())
	return a
}

// Family implements [Address].
func (a IPv4Address) Family() Family {
	return FamilyIPv4
}

// Addr returns the IP address.
func (a IPv4Address) Addr() netip.Addr {
	return netip.AddrFrom4(a.addr)
}

// Port returns the port in host byte order.
func (a IPv4Address) Port() uint16 {
	return binary.BigEndian.Uint16(a.port[:])
}

// AddrBytes returns the 4-byte address in network byte order.
func (a IPv4Address) AddrBytes() [4]byte {
	return a.addr
}

// PortBytes returns the 2-byte port in network byte order.
func (a IPv4Address) PortBytes() [2]byte {
	return a.port
}

// AddrPort returns the endpoint as a [netip.AddrPort].
func (a IPv4Address) AddrPort() netip.AddrPort {
	return netip.AddrPortFrom(a.Addr(), a.Port())
}

// String implements [Address].
func (a IPv4Address) String() string {
	return a.AddrPort().String()
}

func (a IPv4Address) sockaddr() (nativeSockaddr, error) {
	return ipv4Sockaddr(a), nil
}

// ErrIPv6NotImplemented is the error wrapped by faults that need the
// wire form of an [IPv6Address].
var ErrIPv6NotImplemented = errors.New("ipv6 address not implemented")

// IPv6Address is the placeholder for IPv6 endpoints.
//
// Sockets of this family can be opened, but every call that needs an
// address record fails with a fault wrapping [ErrIPv6NotImplemented].
type IPv6Address struct{}

var _ Address = IPv6Address{}

// Family implements [Address].
func (IPv6Address) Family() Family {
	return FamilyIPv6
}

// String implements [Address].
func (IPv6Address) String() string {
	return "[::]:0"
}

func (IPv6Address) sockaddr() (nativeSockaddr, error) {
	return nil, ErrIPv6NotImplemented
}
