package transport

import (
	"fmt"
	"time"
)

// DefaultTimeout is the read/write timeout applied to new sockets when the
// creator does not configure one.
const DefaultTimeout = 10 * time.Second

// SocketFamily selects the protocol family a socket is opened for.
type SocketFamily uint8

const (
	// SocketFamilyInet opens an IPv4 socket.
	SocketFamilyInet SocketFamily = iota
	// SocketFamilyInet6 opens an IPv6 socket.
	SocketFamilyInet6
	// SocketFamilyRaw opens a link-layer raw socket (datagram sockets only).
	SocketFamilyRaw
)

// String returns a human-readable representation of the SocketFamily.
func (f SocketFamily) String() string {
	switch f {
	case SocketFamilyInet:
		return "Inet"
	case SocketFamilyInet6:
		return "Inet6"
	case SocketFamilyRaw:
		return "Raw"
	default:
		return fmt.Sprintf("SocketFamily(%d)", uint8(f))
	}
}

// AddressFamily returns the Address family served by the socket family.
// Raw sockets carry no IP endpoint and map to FamilyUnspecified.
func (f SocketFamily) AddressFamily() Family {
	switch f {
	case SocketFamilyInet:
		return FamilyInet
	case SocketFamilyInet6:
		return FamilyInet6
	default:
		return FamilyUnspecified
	}
}

// Direction selects the read side, the write side or both sides of a socket
// for timeouts and shutdown.
type Direction uint8

const (
	// DirectionRead selects the receive side.
	DirectionRead Direction = 1 << iota
	// DirectionWrite selects the send side.
	DirectionWrite
	// DirectionBoth selects both sides.
	DirectionBoth = DirectionRead | DirectionWrite
)

// String returns a human-readable representation of the Direction.
func (d Direction) String() string {
	switch d {
	case DirectionRead:
		return "Read"
	case DirectionWrite:
		return "Write"
	case DirectionBoth:
		return "Both"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}
