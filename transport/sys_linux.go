//go:build linux

package transport

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// rawDomain is the domain used for SocketFamilyRaw datagram sockets.
const rawDomain = unix.AF_PACKET

// sendFlags suppresses SIGPIPE on writes to a reset stream.
const sendFlags = unix.MSG_NOSIGNAL

// dissolvePair removes the fixed peer of a datagram socket by connecting it
// to an AF_UNSPEC address. x/sys/unix has no Sockaddr for AF_UNSPEC, so the
// raw syscall is issued directly.
func dissolvePair(fd int) error {
	var sa unix.RawSockaddr
	sa.Family = unix.AF_UNSPEC
	_, _, errno := unix.Syscall(unix.SYS_CONNECT, uintptr(fd), uintptr(unsafe.Pointer(&sa)), unsafe.Sizeof(sa))
	if errno != 0 {
		return errno
	}
	return nil
}
