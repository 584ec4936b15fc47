//go:build unix

// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import (
	"net"
	"net/netip"
	"os"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// nativeSockaddr is the platform address record.
type nativeSockaddr = unix.Sockaddr

const (
	// callSetBlocking names the native call toggling blocking mode.
	callSetBlocking = "fcntl"

	// nativeMaxBacklog is SOMAXCONN.
	nativeMaxBacklog = unix.SOMAXCONN

	// errBadHandle is returned for operations on an unowned socket.
	errBadHandle = unix.EBADF

	// errMessageSize is returned when a sequence length exceeds the limit.
	errMessageSize = unix.EMSGSIZE

	// errNotStream is returned when adopting a descriptor that is not a stream socket.
	errNotStream = unix.EPROTOTYPE

	// errNotSocket is returned when adopting a connection without a descriptor.
	errNotSocket = unix.ENOTSOCK

	// errInvalid is returned for arguments the platform cannot represent.
	errInvalid = unix.EINVAL
)

var nativeFamilies = map[Family]int{
	FamilyIPv4: unix.AF_INET,
	FamilyIPv6: unix.AF_INET6,
}

var nativeKinds = map[Kind]int{
	KindStream:   unix.SOCK_STREAM,
	KindDatagram: unix.SOCK_DGRAM,
	KindRaw:      unix.SOCK_RAW,
}

var nativeProtocols = map[Protocol]int{
	ProtocolIP:   unix.IPPROTO_IP,
	ProtocolICMP: unix.IPPROTO_ICMP,
	ProtocolTCP:  unix.IPPROTO_TCP,
	ProtocolUDP:  unix.IPPROTO_UDP,
}

// sysStartup bootstraps the socket stack; Unix needs nothing.
func sysStartup() error {
	return nil
}

// sysTeardown releases the socket stack; Unix needs nothing.
func sysTeardown() error {
	return nil
}

func sysSocket(family Family, kind Kind, protocol Protocol) (Handle, error) {
	nf, okf := nativeFamilies[family]
	nk, okk := nativeKinds[kind]
	np, okp := nativeProtocols[protocol]
	if !okf || !okk || !okp {
		return 0, errInvalid
	}
	fd, err := unix.Socket(nf, nk, np)
	if err != nil {
		return 0, err
	}
	return ownedDescriptor(fd)
}

// ownedDescriptor marks fd close-on-exec and moves it away from zero,
// which is the unowned sentinel.
func ownedDescriptor(fd int) (Handle, error) {
	unix.CloseOnExec(fd)
	if fd != 0 {
		return Handle(fd), nil
	}
	nfd, err := unix.FcntlInt(uintptr(fd), unix.F_DUPFD_CLOEXEC, 1)
	unix.Close(fd)
	if err != nil {
		return 0, err
	}
	return Handle(nfd), nil
}

func sysClose(h Handle) error {
	return unix.Close(int(h))
}

func sysSetBlocking(h Handle, blocking bool) error {
	return unix.SetNonblock(int(h), !blocking)
}

func sysBind(h Handle, sa nativeSockaddr) error {
	return unix.Bind(int(h), sa)
}

func sysConnect(h Handle, sa nativeSockaddr) error {
	return unix.Connect(int(h), sa)
}

func sysListen(h Handle, backlog int) error {
	return unix.Listen(int(h), backlog)
}

func sysAccept(h Handle) (Handle, error) {
	fd, _, err := unix.Accept(int(h))
	if err != nil {
		return 0, err
	}
	return ownedDescriptor(fd)
}

func sysSend(h Handle, p []byte) (int, error) {
	return unix.Write(int(h), p)
}

func sysRecv(h Handle, p []byte) (int, error) {
	return unix.Read(int(h), p)
}

func sysGetsockopt(h Handle, level, name int) (int, error) {
	return unix.GetsockoptInt(int(h), level, name)
}

func sysSetsockopt(h Handle, level, name, value int) error {
	return unix.SetsockoptInt(int(h), level, name, value)
}

func sysLocalAddr(h Handle) (netip.AddrPort, error) {
	sa, err := unix.Getsockname(int(h))
	if err != nil {
		return netip.AddrPort{}, err
	}
	return fromSockaddr(sa), nil
}

func sysRemoteAddr(h Handle) (netip.AddrPort, error) {
	sa, err := unix.Getpeername(int(h))
	if err != nil {
		return netip.AddrPort{}, err
	}
	return fromSockaddr(sa), nil
}

// sysIsStream returns whether h is a SOCK_STREAM socket.
func sysIsStream(h Handle) (bool, error) {
	typ, err := unix.GetsockoptInt(int(h), unix.SOL_SOCKET, unix.SO_TYPE)
	if err != nil {
		return false, err
	}
	return typ == unix.SOCK_STREAM, nil
}

// sysDup duplicates a descriptor borrowed from the runtime network poller.
func sysDup(fd uintptr) (Handle, error) {
	nfd, err := unix.FcntlInt(fd, unix.F_DUPFD_CLOEXEC, 1)
	if err != nil {
		return 0, err
	}
	return Handle(nfd), nil
}

// sysNetConn moves h into a [net.Conn]. The handle is consumed either way.
func sysNetConn(h Handle) (net.Conn, error) {
	file := os.NewFile(uintptr(h), "sock-"+h.String())
	defer file.Close()
	return net.FileConn(file)
}

func ipv4Sockaddr(a IPv4Address) nativeSockaddr {
	return &unix.SockaddrInet4{Port: int(a.Port()), Addr: a.addr}
}

func fromSockaddr(sa unix.Sockaddr) netip.AddrPort {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(v.Addr), uint16(v.Port))
	case *unix.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(v.Addr), uint16(v.Port))
	default:
		return netip.AddrPort{}
	}
}

// sysPoll waits for read or write readiness of h.
//
// A poll interrupted by a signal is restarted with the remaining timeout.
func sysPoll(h Handle, timeoutMS int) (Readiness, int, error) {
	fds := []unix.PollFd{{Fd: int32(h), Events: unix.POLLIN | unix.POLLOUT}}
	remaining := restartableTimeout(timeoutMS)
	for {
		fds[0].Revents = 0
		n, err := unix.Poll(fds, remaining())
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, 0, err
		}
		revents := fds[0].Revents
		if revents&unix.POLLNVAL != 0 {
			return 0, 0, unix.EBADF
		}
		var ready Readiness
		if revents&unix.POLLERR != 0 {
			ready |= ErrorReady
		}
		if revents&unix.POLLHUP != 0 {
			ready |= HangupReady
		}
		if revents&unix.POLLIN != 0 {
			ready |= ReadReady
		}
		if revents&unix.POLLOUT != 0 {
			ready |= WriteReady
		}
		return ready, n, nil
	}
}

// fdSetSize is the number of descriptors an [unix.FdSet] can hold.
const fdSetSize = int(unsafe.Sizeof(unix.FdSet{})) * 8

// sysSelect waits for read, write or exceptional readiness of h.
//
// The timeout is split into whole seconds and remainder microseconds.
func sysSelect(h Handle, timeoutMS int) (Readiness, int, error) {
	fd := int(h)
	if fd < 0 || fd >= fdSetSize {
		return 0, 0, unix.EINVAL
	}
	remaining := restartableTimeout(timeoutMS)
	for {
		var rset, wset, eset unix.FdSet
		rset.Set(fd)
		wset.Set(fd)
		eset.Set(fd)
		var tv *unix.Timeval
		if ms := remaining(); ms >= 0 {
			v := unix.NsecToTimeval((time.Duration(ms) * time.Millisecond).Nanoseconds())
			tv = &v
		}
		n, err := unix.Select(fd+1, &rset, &wset, &eset, tv)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, 0, err
		}
		var ready Readiness
		if eset.IsSet(fd) {
			ready |= ErrorReady
		}
		if rset.IsSet(fd) {
			ready |= ReadReady
		}
		if wset.IsSet(fd) {
			ready |= WriteReady
		}
		return ready, n, nil
	}
}

// restartableTimeout returns a function yielding the milliseconds left
// of timeoutMS, measured from now. Negative timeouts stay negative.
func restartableTimeout(timeoutMS int) func() int {
	if timeoutMS <= 0 {
		return func() int { return timeoutMS }
	}
	deadline := time.Now().Add(time.Duration(timeoutMS) * time.Millisecond)
	first := true
	return func() int {
		if first {
			first = false
			return timeoutMS
		}
		left := time.Until(deadline)
		if left <= 0 {
			return 0
		}
		return int((left + time.Millisecond - 1) / time.Millisecond)
	}
}
