//go:build windows

// SPDX-License-Identifier: GPL-3.0-or-later

package sock

import (
	"net"
	"net/netip"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// nativeSockaddr is the platform address record.
type nativeSockaddr = windows.Sockaddr

const (
	// callSetBlocking names the native call toggling blocking mode.
	callSetBlocking = "ioctlsocket"

	// nativeMaxBacklog is SOMAXCONN.
	nativeMaxBacklog = windows.SOMAXCONN

	// errBadHandle is returned for operations on an unowned socket.
	errBadHandle = windows.WSAENOTSOCK

	// errMessageSize is returned when a sequence length exceeds the limit.
	errMessageSize = windows.WSAEMSGSIZE

	// errNotStream is returned when adopting a descriptor that is not a stream socket.
	errNotStream = windows.WSAEPROTOTYPE

	// errNotSocket is returned when adopting a connection without a descriptor.
	errNotSocket = windows.WSAENOTSOCK

	// errInvalid is returned for arguments the platform cannot represent.
	errInvalid = windows.WSAEINVAL
)

// Winsock constants missing from x/sys/windows.
const (
	wsaFIONBIO   = 0x8004667e
	wsaSOType    = 0x1008
	wsaFDSetSize = 64

	wsaPOLLERR    = 0x0001
	wsaPOLLHUP    = 0x0002
	wsaPOLLNVAL   = 0x0004
	wsaPOLLWRNORM = 0x0010
	wsaPOLLRDNORM = 0x0100
	wsaPOLLRDBAND = 0x0200

	wsaSocketError = -1
)

var (
	modws2_32 = windows.NewLazySystemDLL("ws2_32.dll")

	procAccept      = modws2_32.NewProc("accept")
	procIoctlsocket = modws2_32.NewProc("ioctlsocket")
	procRecv        = modws2_32.NewProc("recv")
	procSelect      = modws2_32.NewProc("select")
	procSend        = modws2_32.NewProc("send")
	procWSAPoll     = modws2_32.NewProc("WSAPoll")
)

var nativeFamilies = map[Family]int{
	FamilyIPv4: windows.AF_INET,
	FamilyIPv6: windows.AF_INET6,
}

var nativeKinds = map[Kind]int{
	KindStream:   windows.SOCK_STREAM,
	KindDatagram: windows.SOCK_DGRAM,
	KindRaw:      windows.SOCK_RAW,
}

var nativeProtocols = map[Protocol]int{
	ProtocolIP:   windows.IPPROTO_IP,
	ProtocolICMP: windows.IPPROTO_ICMP,
	ProtocolTCP:  windows.IPPROTO_TCP,
	ProtocolUDP:  windows.IPPROTO_UDP,
}

// sysStartup initializes Winsock 2.2.
func sysStartup() error {
	var data windows.WSAData
	if err := windows.WSAStartup(uint32(0x202), &data); err != nil {
		return err
	}
	if data.Version != 0x202 {
		windows.WSACleanup()
		return windows.WSAVERNOTSUPPORTED
	}
	return nil
}

// sysTeardown releases Winsock.
func sysTeardown() error {
	return windows.WSACleanup()
}

func sysSocket(family Family, kind Kind, protocol Protocol) (Handle, error) {
	nf, okf := nativeFamilies[family]
	nk, okk := nativeKinds[kind]
	np, okp := nativeProtocols[protocol]
	if !okf || !okk || !okp {
		return 0, errInvalid
	}
	s, err := windows.Socket(nf, nk, np)
	if err != nil {
		return 0, err
	}
	return Handle(s), nil
}

func sysClose(h Handle) error {
	return windows.Closesocket(windows.Handle(h))
}

func sysSetBlocking(h Handle, blocking bool) error {
	var mode uint32
	if !blocking {
		mode = 1
	}
	r1, _, e1 := procIoctlsocket.Call(uintptr(h), uintptr(wsaFIONBIO), uintptr(unsafe.Pointer(&mode)))
	if int32(r1) == wsaSocketError {
		return e1
	}
	return nil
}

func sysBind(h Handle, sa nativeSockaddr) error {
	return windows.Bind(windows.Handle(h), sa)
}

func sysConnect(h Handle, sa nativeSockaddr) error {
	return windows.Connect(windows.Handle(h), sa)
}

func sysListen(h Handle, backlog int) error {
	return windows.Listen(windows.Handle(h), backlog)
}

func sysAccept(h Handle) (Handle, error) {
	r1, _, e1 := procAccept.Call(uintptr(h), 0, 0)
	if windows.Handle(r1) == windows.InvalidHandle {
		return 0, e1
	}
	return Handle(r1), nil
}

func sysSend(h Handle, p []byte) (int, error) {
	r1, _, e1 := procSend.Call(uintptr(h), uintptr(unsafe.Pointer(unsafe.SliceData(p))), uintptr(len(p)), 0)
	if n := int32(r1); n == wsaSocketError {
		return -1, e1
	}
	return int(int32(r1)), nil
}

func sysRecv(h Handle, p []byte) (int, error) {
	r1, _, e1 := procRecv.Call(uintptr(h), uintptr(unsafe.Pointer(unsafe.SliceData(p))), uintptr(len(p)), 0)
	if n := int32(r1); n == wsaSocketError {
		return -1, e1
	}
	return int(int32(r1)), nil
}

func sysGetsockopt(h Handle, level, name int) (int, error) {
	return windows.GetsockoptInt(windows.Handle(h), level, name)
}

func sysSetsockopt(h Handle, level, name, value int) error {
	return windows.SetsockoptInt(windows.Handle(h), level, name, value)
}

func sysLocalAddr(h Handle) (netip.AddrPort, error) {
	sa, err := windows.Getsockname(windows.Handle(h))
	if err != nil {
		return netip.AddrPort{}, err
	}
	return fromSockaddr(sa), nil
}

func sysRemoteAddr(h Handle) (netip.AddrPort, error) {
	sa, err := windows.Getpeername(windows.Handle(h))
	if err != nil {
		return netip.AddrPort{}, err
	}
	return fromSockaddr(sa), nil
}

// sysIsStream returns whether h is a SOCK_STREAM socket.
func sysIsStream(h Handle) (bool, error) {
	typ, err := windows.GetsockoptInt(windows.Handle(h), windows.SOL_SOCKET, wsaSOType)
	if err != nil {
		return false, err
	}
	return typ == windows.SOCK_STREAM, nil
}

// sysDup is not available: Winsock duplicates sockets only across processes.
func sysDup(fd uintptr) (Handle, error) {
	return 0, windows.WSAEOPNOTSUPP
}

// sysNetConn closes h: the runtime cannot wrap a foreign socket on Windows.
func sysNetConn(h Handle) (net.Conn, error) {
	_ = sysClose(h)
	return nil, windows.WSAEOPNOTSUPP
}

func ipv4Sockaddr(a IPv4Address) nativeSockaddr {
	return &windows.SockaddrInet4{Port: int(a.Port()), Addr: a.addr}
}

func fromSockaddr(sa windows.Sockaddr) netip.AddrPort {
	switch v := sa.(type) {
	case *windows.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(v.Addr), uint16(v.Port))
	case *windows.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(v.Addr), uint16(v.Port))
	default:
		return netip.AddrPort{}
	}
}

// wsaPollFd is WSAPOLLFD.
type wsaPollFd struct {
	fd      windows.Handle
	events  int16
	revents int16
}

// sysPoll waits for read or write readiness of h using WSAPoll.
func sysPoll(h Handle, timeoutMS int) (Readiness, int, error) {
	fds := []wsaPollFd{{fd: windows.Handle(h), events: wsaPOLLRDNORM | wsaPOLLRDBAND | wsaPOLLWRNORM}}
	r1, _, e1 := procWSAPoll.Call(uintptr(unsafe.Pointer(&fds[0])), 1, uintptr(int32(timeoutMS)))
	n := int(int32(r1))
	if n == wsaSocketError {
		return 0, 0, e1
	}
	revents := fds[0].revents
	if revents&wsaPOLLNVAL != 0 {
		return 0, 0, errBadHandle
	}
	var ready Readiness
	if revents&wsaPOLLERR != 0 {
		ready |= ErrorReady
	}
	if revents&wsaPOLLHUP != 0 {
		ready |= HangupReady
	}
	if revents&(wsaPOLLRDNORM|wsaPOLLRDBAND) != 0 {
		ready |= ReadReady
	}
	if revents&wsaPOLLWRNORM != 0 {
		ready |= WriteReady
	}
	return ready, n, nil
}

// wsaFDSet is the Winsock fd_set.
type wsaFDSet struct {
	count uint32
	array [wsaFDSetSize]windows.Handle
}

func (s *wsaFDSet) isSet(h windows.Handle) bool {
	for i := uint32(0); i < s.count; i++ {
		if s.array[i] == h {
			return true
		}
	}
	return false
}

// sysSelect waits for read, write or exceptional readiness of h.
//
// The timeout is split into whole seconds and remainder microseconds.
func sysSelect(h Handle, timeoutMS int) (Readiness, int, error) {
	wh := windows.Handle(h)
	rset := wsaFDSet{count: 1}
	rset.array[0] = wh
	wset, eset := rset, rset
	var tvp *windows.Timeval
	if timeoutMS >= 0 {
		tv := windows.NsecToTimeval((time.Duration(timeoutMS) * time.Millisecond).Nanoseconds())
		tvp = &tv
	}
	r1, _, e1 := procSelect.Call(0,
		uintptr(unsafe.Pointer(&rset)), uintptr(unsafe.Pointer(&wset)),
		uintptr(unsafe.Pointer(&eset)), uintptr(unsafe.Pointer(tvp)))
	n := int(int32(r1))
	if n == wsaSocketError {
		return 0, 0, e1
	}
	var ready Readiness
	if eset.isSet(wh) {
		ready |= ErrorReady
	}
	if rset.isSet(wh) {
		ready |= ReadReady
	}
	if wset.isSet(wh) {
		ready |= WriteReady
	}
	return ready, n, nil
}
