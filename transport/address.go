package transport

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
)

// Family represents the address family of an Address.
type Family uint8

const (
	// FamilyUnspecified is the family of an Address that holds no endpoint.
	FamilyUnspecified Family = iota
	// FamilyInet represents IPv4 endpoints.
	FamilyInet
	// FamilyInet6 represents IPv6 endpoints.
	FamilyInet6
)

// String returns a human-readable representation of the Family.
func (f Family) String() string {
	switch f {
	case FamilyUnspecified:
		return "Unspecified"
	case FamilyInet:
		return "Inet"
	case FamilyInet6:
		return "Inet6"
	default:
		return fmt.Sprintf("Family(%d)", uint8(f))
	}
}

// hostLen returns the number of host bytes used by the family, or 0.
func (f Family) hostLen() int {
	switch f {
	case FamilyInet:
		return net.IPv4len
	case FamilyInet6:
		return net.IPv6len
	default:
		return 0
	}
}

// Address is one network endpoint: an address family, a binary host and a
// port. It holds no pointers, so assignment produces an independent copy.
//
// The zero value has FamilyUnspecified; NewAddress returns the documented
// default (IPv4, 0.0.0.0, port 0).
//
// Reassigning the host (SetHostString, SetRawHost, SetLoopback, SetAny,
// SetBroadcastV4) keeps the port that was set before.
type Address struct {
	family Family
	host   [16]byte // network byte order; IPv4 uses the first 4 bytes
	port   uint16
}

// NewAddress returns the default address: IPv4, all-zero host, port 0.
func NewAddress() Address {
	return Address{family: FamilyInet}
}

// NewAddressFromString parses text as a host of the given family and applies
// port. If parsing fails the returned address is the IPv4 default carrying
// port, together with ErrInvalidData.
func NewAddressFromString(text string, port uint16, family Family) (Address, error) {
	a := NewAddress()
	err := a.SetHostString(text, family)
	// the port is applied after the host so that it survives either outcome
	_ = a.SetPort(port)
	return a, err
}

// NewAddressFromRaw builds an address from a 4-byte (IPv4) or 16-byte (IPv6)
// network-order host.
func NewAddressFromRaw(family Family, host []byte, port uint16) (Address, error) {
	a := NewAddress()
	if err := a.SetRawHost(family, host); err != nil {
		return Address{}, err
	}
	_ = a.SetPort(port)
	return a, nil
}

// Family returns the stored family tag. A tag outside the three valid values
// means the address memory was corrupted and is treated as fatal.
func (a Address) Family() Family {
	switch a.family {
	case FamilyUnspecified, FamilyInet, FamilyInet6:
		return a.family
	default:
		invariantViolation("Address.Family", "address carries invalid family tag %d", uint8(a.family))
		return FamilyUnspecified
	}
}

// Port returns the port, or 0 for an unspecified address.
func (a Address) Port() uint16 {
	switch a.Family() {
	case FamilyInet, FamilyInet6:
		return a.port
	default:
		return 0
	}
}

// SetPort sets the port. It fails with ErrOperationFailed on an unspecified address.
func (a *Address) SetPort(port uint16) error {
	switch a.Family() {
	case FamilyInet, FamilyInet6:
		a.port = port
		return nil
	default:
		return newSocketError("setport", "", ErrOperationFailed, errors.New("address family is unspecified"))
	}
}

// SetHostString parses a dotted-quad (FamilyInet) or colon-hex (FamilyInet6)
// host. On failure the address is left untouched and ErrInvalidData is
// returned. Text of the other family, zoned IPv6 text and FamilyUnspecified
// are all rejected.
func (a *Address) SetHostString(text string, family Family) error {
	ip, err := netip.ParseAddr(text)
	if err != nil {
		return newSocketError("parse", text, ErrInvalidData, err)
	}

	switch family {
	case FamilyInet:
		if !ip.Is4() {
			return newSocketError("parse", text, ErrInvalidData, errors.New("not an IPv4 address"))
		}
	case FamilyInet6:
		if !ip.Is6() || ip.Zone() != "" {
			return newSocketError("parse", text, ErrInvalidData, errors.New("not an IPv6 address"))
		}
	default:
		return newSocketError("parse", text, ErrInvalidData, fmt.Errorf("unsupported family %s", family))
	}

	a.assignHost(family, ip.AsSlice())
	return nil
}

// SetRawHost assigns a binary host: 4 bytes for FamilyInet, 16 for FamilyInet6.
func (a *Address) SetRawHost(family Family, host []byte) error {
	want := family.hostLen()
	if want == 0 {
		return newSocketError("sethost", "", ErrInvalidData, fmt.Errorf("unsupported family %s", family))
	}
	if len(host) != want {
		return newSocketError("sethost", "", ErrInvalidData,
			fmt.Errorf("host length %d does not match family %s", len(host), family))
	}
	a.assignHost(family, host)
	return nil
}

// assignHost overwrites family and host bytes, keeping the previous port.
func (a *Address) assignHost(family Family, host []byte) {
	prevPort := a.Port()
	a.family = family
	a.host = [16]byte{}
	copy(a.host[:], host)
	a.port = prevPort
}

// HostString renders the binary host as text. It fails with
// ErrOperationFailed for an unspecified address.
func (a Address) HostString() (string, error) {
	ip, ok := a.netipAddr()
	if !ok {
		return "", newSocketError("format", "", ErrOperationFailed, errors.New("address family is unspecified"))
	}
	return ip.String(), nil
}

// FormatHost writes the textual host into buf and returns the number of bytes
// written. It fails with ErrOperationFailed if the family is unsupported or
// buf cannot hold the text.
func (a Address) FormatHost(buf []byte) (int, error) {
	s, err := a.HostString()
	if err != nil {
		return 0, err
	}
	if len(buf) < len(s) {
		return 0, newSocketError("format", s, ErrOperationFailed,
			fmt.Errorf("buffer of %d bytes cannot hold %d", len(buf), len(s)))
	}
	return copy(buf, s), nil
}

// RawHost copies the 4- or 16-byte network-order host into buf and returns
// the number of bytes copied. A buffer shorter than the family requires
// yields ErrInsufficientMemory.
func (a Address) RawHost(buf []byte) (int, error) {
	n := a.Family().hostLen()
	if n == 0 {
		return 0, newSocketError("rawhost", "", ErrOperationFailed, errors.New("address family is unspecified"))
	}
	if len(buf) < n {
		return 0, newSocketError("rawhost", a.String(), ErrInsufficientMemory,
			fmt.Errorf("buffer of %d bytes, need %d", len(buf), n))
	}
	return copy(buf, a.host[:n]), nil
}

// SetLoopback assigns 127.0.0.1 or ::1. Other families are ignored.
func (a *Address) SetLoopback(family Family) {
	switch family {
	case FamilyInet:
		a.assignHost(FamilyInet, []byte{127, 0, 0, 1})
	case FamilyInet6:
		a.assignHost(FamilyInet6, net.IPv6loopback)
	}
}

// SetAny assigns the wildcard address 0.0.0.0 or ::. Other families are ignored.
func (a *Address) SetAny(family Family) {
	switch family {
	case FamilyInet:
		a.assignHost(FamilyInet, net.IPv4zero.To4())
	case FamilyInet6:
		a.assignHost(FamilyInet6, net.IPv6unspecified)
	}
}

// SetBroadcastV4 assigns the IPv4 limited broadcast address 255.255.255.255.
func (a *Address) SetBroadcastV4() {
	a.assignHost(FamilyInet, net.IPv4bcast.To4())
}

// IsLoopback reports whether the host is a loopback address.
func (a Address) IsLoopback() bool {
	ip, ok := a.netipAddr()
	return ok && ip.IsLoopback()
}

// IsAny reports whether the host is the wildcard address of its family.
func (a Address) IsAny() bool {
	ip, ok := a.netipAddr()
	return ok && ip.IsUnspecified()
}

// Equal reports whether both addresses have the same family, host and port.
func (a Address) Equal(other Address) bool {
	return a.Family() == other.Family() &&
		a.host == other.host &&
		a.Port() == other.Port()
}

// String returns "host:port" ("[host]:port" for IPv6).
func (a Address) String() string {
	ip, ok := a.netipAddr()
	if !ok {
		return "<unspecified>"
	}
	return netip.AddrPortFrom(ip, a.port).String()
}

// netipAddr converts the host to a netip.Addr. ok is false for unspecified addresses.
func (a Address) netipAddr() (netip.Addr, bool) {
	switch a.Family() {
	case FamilyInet:
		return netip.AddrFrom4([4]byte(a.host[:4])), true
	case FamilyInet6:
		return netip.AddrFrom16(a.host), true
	default:
		return netip.Addr{}, false
	}
}

// AddrPort converts the address to a netip.AddrPort. An unspecified address
// yields the invalid zero AddrPort.
func (a Address) AddrPort() netip.AddrPort {
	ip, ok := a.netipAddr()
	if !ok {
		return netip.AddrPort{}
	}
	return netip.AddrPortFrom(ip, a.port)
}

// AddressFromAddrPort converts a netip.AddrPort. IPv4 becomes FamilyInet,
// everything else valid becomes FamilyInet6 (zones are dropped). An invalid
// AddrPort yields an unspecified address.
func AddressFromAddrPort(ap netip.AddrPort) Address {
	ip := ap.Addr()
	var a Address
	switch {
	case !ip.IsValid():
		return a
	case ip.Is4():
		a.family = FamilyInet
	default:
		a.family = FamilyInet6
	}
	copy(a.host[:], ip.AsSlice())
	a.port = ap.Port()
	return a
}

// ToUDPAddr converts the address to a *net.UDPAddr, or nil when unspecified.
func (a Address) ToUDPAddr() *net.UDPAddr {
	ap := a.AddrPort()
	if !ap.IsValid() {
		return nil
	}
	return net.UDPAddrFromAddrPort(ap)
}

// ToTCPAddr converts the address to a *net.TCPAddr, or nil when unspecified.
func (a Address) ToTCPAddr() *net.TCPAddr {
	ap := a.AddrPort()
	if !ap.IsValid() {
		return nil
	}
	return net.TCPAddrFromAddrPort(ap)
}

// AddressFromNetAddr converts a net.Addr carrying an IP endpoint.
func AddressFromNetAddr(addr net.Addr) (Address, error) {
	if addr == nil {
		return Address{}, newSocketError("convert", "", ErrInvalidData, errors.New("address is nil"))
	}

	ip, port, err := extractIPAndPort(addr)
	if err != nil {
		return Address{}, newSocketError("convert", addr.String(), ErrInvalidData, err)
	}
	if ip == nil {
		return Address{}, newSocketError("convert", addr.String(), ErrInvalidData, errors.New("no IP address found"))
	}

	family, data := determineIPVersion(ip)
	a := Address{family: family, port: uint16(port)}
	copy(a.host[:], data)
	return a, nil
}

// extractIPAndPort extracts IP address and port from a net.Addr.
func extractIPAndPort(addr net.Addr) (net.IP, int, error) {
	switch a := addr.(type) {
	case *net.TCPAddr:
		return a.IP, a.Port, nil
	case *net.UDPAddr:
		return a.IP, a.Port, nil
	case *net.IPAddr:
		return a.IP, 0, nil
	default:
		return parseIPFromString(addr.String())
	}
}

// parseIPFromString parses IP and port from a string address.
func parseIPFromString(addrStr string) (net.IP, int, error) {
	host, portStr, err := net.SplitHostPort(addrStr)
	if err != nil {
		host = addrStr
		portStr = "0"
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return nil, 0, fmt.Errorf("invalid IP address: %s", host)
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid port: %s", portStr)
	}

	return ip, int(port), nil
}

// determineIPVersion determines if an IP is IPv4 or IPv6 and returns the appropriate family and data.
func determineIPVersion(ip net.IP) (Family, []byte) {
	if ipv4 := ip.To4(); ipv4 != nil {
		return FamilyInet, []byte(ipv4)
	}
	return FamilyInet6, []byte(ip.To16())
}

// ToBytes serializes the address.
// Format: For IPv4: 4 bytes IP + 2 bytes port (big-endian)
//
//	For IPv6: 16 bytes IP + 2 bytes port (big-endian)
//
// Returns an error for an unspecified address.
func (a Address) ToBytes() ([]byte, error) {
	n := a.Family().hostLen()
	if n == 0 {
		return nil, newSocketError("serialize", "", ErrOperationFailed, errors.New("address family is unspecified"))
	}
	result := make([]byte, n+2)
	copy(result, a.host[:n])
	result[n] = byte(a.port >> 8)
	result[n+1] = byte(a.port & 0xFF)
	return result, nil
}

// AddressFromBytes parses the ToBytes format: 6 bytes for IPv4, 18 for IPv6.
func AddressFromBytes(data []byte) (Address, error) {
	var family Family
	switch len(data) {
	case net.IPv4len + 2:
		family = FamilyInet
	case net.IPv6len + 2:
		family = FamilyInet6
	default:
		return Address{}, newSocketError("deserialize", "", ErrInvalidData,
			fmt.Errorf("invalid serialized address length: %d", len(data)))
	}

	n := family.hostLen()
	a := Address{family: family}
	copy(a.host[:], data[:n])
	a.port = uint16(data[n])<<8 | uint16(data[n+1])
	return a, nil
}
