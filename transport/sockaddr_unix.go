//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package transport

import (
	"errors"

	"golang.org/x/sys/unix"
)

// sockaddr converts the address into the native representation.
func (a Address) sockaddr() (unix.Sockaddr, error) {
	switch a.Family() {
	case FamilyInet:
		sa := &unix.SockaddrInet4{Port: int(a.port)}
		copy(sa.Addr[:], a.host[:4])
		return sa, nil
	case FamilyInet6:
		sa := &unix.SockaddrInet6{Port: int(a.port)}
		sa.Addr = a.host
		return sa, nil
	default:
		return nil, unix.EAFNOSUPPORT
	}
}

// addressFromSockaddr converts a native address. ok is false for anything
// other than IPv4/IPv6.
func addressFromSockaddr(sa unix.Sockaddr) (Address, bool) {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		a := Address{family: FamilyInet, port: uint16(sa.Port)}
		copy(a.host[:], sa.Addr[:])
		return a, true
	case *unix.SockaddrInet6:
		return Address{family: FamilyInet6, host: sa.Addr, port: uint16(sa.Port)}, true
	default:
		return Address{}, false
	}
}

// osFamily translates the socket family into the OS domain constant and
// socket type for the requested kind of socket.
func (f SocketFamily) osFamily(sotype int) (domain int, typ int, err error) {
	switch f {
	case SocketFamilyInet:
		return unix.AF_INET, sotype, nil
	case SocketFamilyInet6:
		return unix.AF_INET6, sotype, nil
	case SocketFamilyRaw:
		if sotype != unix.SOCK_DGRAM || rawDomain < 0 {
			return 0, 0, unix.EAFNOSUPPORT
		}
		return rawDomain, unix.SOCK_RAW, nil
	default:
		return 0, 0, errors.New("unknown socket family")
	}
}
