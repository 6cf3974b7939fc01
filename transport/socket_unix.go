//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package transport

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// socket holds the state shared by stream and datagram sockets: the OS
// descriptor, the family it was opened for and the timeouts in effect.
// A descriptor of -1 marks a closed socket.
type socket struct {
	fd             int
	family         SocketFamily
	readTimeout    time.Duration
	writeTimeout   time.Duration
	defaultTimeout time.Duration
}

// openFD creates a close-on-exec descriptor for the family and socket type.
func openFD(family SocketFamily, sotype int) (int, error) {
	domain, typ, err := family.osFamily(sotype)
	if err != nil {
		if errors.Is(err, unix.EAFNOSUPPORT) {
			return -1, newSocketError("socket", "", ErrOperationNotSupported, err)
		}
		return -1, newSocketError("socket", "", ErrOperationFailed, err)
	}

	fd, err := unix.Socket(domain, typ, 0)
	if err != nil {
		kind := ErrOperationFailed
		if errors.Is(err, unix.EAFNOSUPPORT) || errors.Is(err, unix.EPROTONOSUPPORT) {
			kind = ErrOperationNotSupported
		}
		return -1, newSocketError("socket", "", kind, err)
	}
	unix.CloseOnExec(fd)
	return fd, nil
}

func (s *socket) checkOpen(op string) error {
	if s.fd < 0 {
		return newSocketError(op, "", ErrOperationFailed, ErrSocketClosed)
	}
	return nil
}

func (s *socket) setBoolOption(op string, level, opt int, enable bool) error {
	if err := s.checkOpen(op); err != nil {
		return err
	}
	value := 0
	if enable {
		value = 1
	}
	if err := unix.SetsockoptInt(s.fd, level, opt, value); err != nil {
		return newSocketError(op, "", ErrOperationFailed, err)
	}
	return nil
}

// setTimeout installs d as SO_RCVTIMEO and/or SO_SNDTIMEO. A zero duration
// means block indefinitely. Negative durations are treated as zero.
func (s *socket) setTimeout(d time.Duration, dir Direction) error {
	if err := s.checkOpen("settimeout"); err != nil {
		return err
	}
	if dir == 0 || dir&^DirectionBoth != 0 {
		return newSocketError("settimeout", "", ErrInvalidData, errors.New("invalid direction "+dir.String()))
	}
	if d < 0 {
		d = 0
	}

	tv := unix.NsecToTimeval(d.Nanoseconds())
	if dir&DirectionRead != 0 {
		if err := unix.SetsockoptTimeval(s.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
			return newSocketError("settimeout", "", ErrOperationFailed, err)
		}
		s.readTimeout = d
	}
	if dir&DirectionWrite != 0 {
		if err := unix.SetsockoptTimeval(s.fd, unix.SOL_SOCKET, unix.SO_SNDTIMEO, &tv); err != nil {
			return newSocketError("settimeout", "", ErrOperationFailed, err)
		}
		s.writeTimeout = d
	}
	return nil
}

func (s *socket) bind(addr Address) error {
	log := NewLogger("socket.bind").WithFields(logrus.Fields{
		"fd":      s.fd,
		"address": addr.String(),
	})

	if err := s.checkOpen("bind"); err != nil {
		return err
	}
	if addr.Family() != s.family.AddressFamily() {
		return newSocketError("bind", addr.String(), ErrOperationFailed,
			errors.New("address family "+addr.Family().String()+" does not match socket family "+s.family.String()))
	}

	sa, err := addr.sockaddr()
	if err != nil {
		return newSocketError("bind", addr.String(), ErrOperationFailed, err)
	}
	if err := unix.Bind(s.fd, sa); err != nil {
		log.WithError(err, "bind").Debug("Bind rejected")
		return newSocketError("bind", addr.String(), ErrOperationFailed, err)
	}

	log.Debug("Socket bound")
	return nil
}

func (s *socket) localAddress() (Address, error) {
	if err := s.checkOpen("getsockname"); err != nil {
		return Address{}, err
	}
	sa, err := unix.Getsockname(s.fd)
	if err != nil {
		return Address{}, newSocketError("getsockname", "", ErrOperationFailed, err)
	}
	addr, ok := addressFromSockaddr(sa)
	if !ok {
		if s.family == SocketFamilyRaw {
			return Address{}, newSocketError("getsockname", "", ErrOperationNotSupported, unix.EAFNOSUPPORT)
		}
		invariantViolation("socket.localAddress", "OS returned a non-IP local address for fd %d", s.fd)
	}
	return addr, nil
}

// wait polls the descriptor for events for at most d. Error and hang-up
// conditions count as ready so the following call can report them.
func (s *socket) wait(op string, events int16, d time.Duration) error {
	if err := s.checkOpen(op); err != nil {
		return err
	}
	if d < 0 {
		d = 0
	}

	deadline := time.Now().Add(d)
	fds := []unix.PollFd{{Fd: int32(s.fd), Events: events}}
	for {
		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		// round up so that a sub-millisecond remainder still waits
		ms := int((remaining + time.Millisecond - 1) / time.Millisecond)

		fds[0].Revents = 0
		n, err := unix.Poll(fds, ms)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			relax()
			return newSocketError(op, "", ErrOperationFailed, err)
		case n == 0:
			return newSocketError(op, "", ErrOperationTimeout, nil)
		case fds[0].Revents&unix.POLLNVAL != 0:
			relax()
			return newSocketError(op, "", ErrOperationFailed, unix.EBADF)
		default:
			return nil
		}
	}
}

func (s *socket) waitReadable(op string, d time.Duration) error {
	return s.wait(op, unix.POLLIN, d)
}

func (s *socket) waitWritable(op string, d time.Duration) error {
	return s.wait(op, unix.POLLOUT, d)
}

// connect issues connect(2). An interrupted connect keeps progressing in the
// kernel, so completion is awaited with poll and read back from SO_ERROR.
func (s *socket) connect(op string, sa unix.Sockaddr) error {
	err := unix.Connect(s.fd, sa)
	if !errors.Is(err, unix.EINTR) && !errors.Is(err, unix.EALREADY) {
		return err
	}

	if err := s.waitWritable(op, s.writeTimeout); err != nil {
		if errors.Is(err, ErrOperationTimeout) {
			return unix.ETIMEDOUT
		}
		return err
	}
	soerr, err := unix.GetsockoptInt(s.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if soerr != 0 {
		return unix.Errno(soerr)
	}
	return nil
}

// connectError maps a connect(2) failure onto the result sentinels.
func connectError(op string, addr Address, err error) error {
	switch {
	case err == nil, errors.Is(err, unix.EISCONN):
		return nil
	case errors.Is(err, unix.EAFNOSUPPORT):
		return newSocketError(op, addr.String(), ErrOperationNotSupported, err)
	case errors.Is(err, unix.ETIMEDOUT), errors.Is(err, unix.EINPROGRESS), errors.Is(err, unix.EAGAIN):
		// a blocking connect that outlives SO_SNDTIMEO reports EINPROGRESS on Linux
		return newSocketError(op, addr.String(), ErrOperationTimeout, err)
	default:
		var se *SocketError
		if errors.As(err, &se) {
			return se
		}
		return newSocketError(op, addr.String(), ErrOperationFailed, err)
	}
}

// recvError maps a receive failure onto the result sentinels.
func recvError(op string, err error) error {
	if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
		return newSocketError(op, "", ErrOperationTimeout, err)
	}
	return newSocketError(op, "", ErrOperationFailed, err)
}

func (s *socket) close(kind string) error {
	if s.fd < 0 {
		return newSocketError("close", "", ErrOperationFailed, ErrSocketClosed)
	}
	fd := s.fd
	s.fd = -1

	log := NewLogger(kind + ".Close").WithFD(fd)
	if err := unix.Close(fd); err != nil {
		log.WithError(err, "close").Debug("Close reported an error")
		return newSocketError("close", "", ErrOperationFailed, err)
	}
	log.Debug("Socket closed")
	return nil
}

// applyDefaults sets each boolean option and both timeouts. The first
// failure is returned; the caller owns closing the descriptor.
func (s *socket) applyDefaults(options [][2]int) error {
	for _, opt := range options {
		if err := unix.SetsockoptInt(s.fd, opt[0], opt[1], 1); err != nil {
			return err
		}
	}
	return s.setTimeout(s.defaultTimeout, DirectionBoth)
}
