//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package transport

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// rawDomain is negative: link-layer raw sockets are Linux-only.
const rawDomain = -1

// sendFlags is empty; the Go runtime already turns SIGPIPE on sockets into EPIPE.
const sendFlags = 0

// dissolvePair removes the fixed peer of a datagram socket by connecting it
// to an AF_UNSPEC address. The BSD stacks dissolve the association and may
// still report EAFNOSUPPORT, which is not a failure here.
func dissolvePair(fd int) error {
	var sa unix.RawSockaddr
	sa.Len = uint8(unsafe.Sizeof(sa))
	sa.Family = unix.AF_UNSPEC
	_, _, errno := unix.Syscall(unix.SYS_CONNECT, uintptr(fd), uintptr(unsafe.Pointer(&sa)), unsafe.Sizeof(sa))
	if errno != 0 && errno != unix.EAFNOSUPPORT {
		return errno
	}
	return nil
}
