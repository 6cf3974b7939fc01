//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package transport

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// StreamSocket is a connection-oriented (TCP) socket.
//
// A StreamSocket is owned by a single goroutine; it performs no internal
// locking. Blocking calls honour the read/write timeouts set with SetTimeout.
type StreamSocket struct {
	socket
}

// OpenStreamSocket opens a TCP socket for family with SO_REUSEADDR and
// TCP_NODELAY enabled and both timeouts set to defaultTimeout.
// SocketFamilyRaw is rejected with ErrOperationNotSupported.
func OpenStreamSocket(family SocketFamily, defaultTimeout time.Duration) (*StreamSocket, error) {
	log := NewLogger("OpenStreamSocket").WithFields(logrus.Fields{
		"family":  family.String(),
		"timeout": defaultTimeout,
	})

	if family == SocketFamilyRaw {
		return nil, newSocketError("socket", "", ErrOperationNotSupported, errors.New("raw family has no stream variant"))
	}

	fd, err := openFD(family, unix.SOCK_STREAM)
	if err != nil {
		log.WithError(err, "socket").Debug("Failed to open stream socket")
		return nil, err
	}

	s, err := newStreamSocketFromFD(fd, family, defaultTimeout)
	if err != nil {
		log.WithError(err, "configure").Debug("Failed to apply stream socket defaults")
		return nil, err
	}

	log.WithFD(fd).Debug("Stream socket opened")
	return s, nil
}

// newStreamSocketFromFD wraps fd and applies the construction defaults. On
// failure fd is closed.
func newStreamSocketFromFD(fd int, family SocketFamily, defaultTimeout time.Duration) (*StreamSocket, error) {
	s := &StreamSocket{socket{
		fd:             fd,
		family:         family,
		defaultTimeout: defaultTimeout,
	}}

	err := s.applyDefaults([][2]int{
		{unix.SOL_SOCKET, unix.SO_REUSEADDR},
		{unix.IPPROTO_TCP, unix.TCP_NODELAY},
	})
	if err != nil {
		_ = unix.Close(fd)
		var se *SocketError
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, newSocketError("setsockopt", "", ErrOperationFailed, err)
	}
	return s, nil
}

// Family returns the family the socket was opened for.
func (s *StreamSocket) Family() SocketFamily {
	return s.family
}

// Bind assigns addr as the local endpoint.
func (s *StreamSocket) Bind(addr Address) error {
	return s.bind(addr)
}

// Listen marks a bound socket as accepting connections.
func (s *StreamSocket) Listen(backlog int) error {
	if err := s.checkOpen("listen"); err != nil {
		return err
	}
	log := NewLogger("StreamSocket.Listen").WithFields(logrus.Fields{
		"fd":      s.fd,
		"backlog": backlog,
	})

	if err := unix.Listen(s.fd, backlog); err != nil {
		log.WithError(err, "listen").Debug("Listen rejected")
		return newSocketError("listen", "", ErrOperationFailed, err)
	}
	log.Debug("Socket listening")
	return nil
}

// Accept takes one pending connection. The returned socket carries the
// construction defaults with this socket's default timeout, and the Address
// is the remote endpoint. Every failure returns a nil socket and
// ErrOperationFailed.
func (s *StreamSocket) Accept() (*StreamSocket, Address, error) {
	if err := s.checkOpen("accept"); err != nil {
		return nil, Address{}, err
	}
	log := NewLogger("StreamSocket.Accept").WithFD(s.fd)

	var (
		nfd int
		sa  unix.Sockaddr
		err error
	)
	for {
		nfd, sa, err = unix.Accept(s.fd)
		if !errors.Is(err, unix.EINTR) {
			break
		}
	}
	if err != nil {
		log.WithError(err, "accept").Debug("Accept failed")
		return nil, Address{}, newSocketError("accept", "", ErrOperationFailed, err)
	}
	unix.CloseOnExec(nfd)

	peer, ok := addressFromSockaddr(sa)
	if !ok {
		_ = unix.Close(nfd)
		invariantViolation("StreamSocket.Accept", "OS returned a non-IP peer address for fd %d", nfd)
	}

	child, err := newStreamSocketFromFD(nfd, s.family, s.defaultTimeout)
	if err != nil {
		log.WithError(err, "configure").Debug("Failed to configure accepted socket")
		return nil, Address{}, newSocketError("accept", peer.String(), ErrOperationFailed, err)
	}

	log.WithFields(logrus.Fields{
		"child_fd": nfd,
		"peer":     peer.String(),
	}).Debug("Connection accepted")
	return child, peer, nil
}

// Connect establishes a connection to remote, blocking for at most the
// write timeout. An unsupported family yields ErrOperationNotSupported and
// an elapsed wait ErrOperationTimeout.
func (s *StreamSocket) Connect(remote Address) error {
	if err := s.checkOpen("connect"); err != nil {
		return err
	}
	log := NewLogger("StreamSocket.Connect").WithFields(logrus.Fields{
		"fd":     s.fd,
		"remote": remote.String(),
	})

	if remote.Family() != s.family.AddressFamily() {
		return newSocketError("connect", remote.String(), ErrOperationNotSupported, unix.EAFNOSUPPORT)
	}
	sa, err := remote.sockaddr()
	if err != nil {
		return newSocketError("connect", remote.String(), ErrOperationNotSupported, err)
	}

	if err := connectError("connect", remote, s.connect("connect", sa)); err != nil {
		log.WithError(err, "connect").Debug("Connect failed")
		return err
	}
	log.Debug("Connected")
	return nil
}

// Send hands buf to the kernel in a single call. Anything short of full
// acceptance is reported: a partial write or a would-block condition as
// ErrOperationTimeout, everything else as ErrOperationFailed.
func (s *StreamSocket) Send(buf []byte) error {
	if err := s.checkOpen("send"); err != nil {
		return err
	}

	var (
		n   int
		err error
	)
	for {
		n, err = unix.SendmsgN(s.fd, buf, nil, nil, sendFlags)
		if !errors.Is(err, unix.EINTR) {
			break
		}
	}
	switch {
	case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EWOULDBLOCK):
		return newSocketError("send", "", ErrOperationTimeout, err)
	case err != nil:
		return newSocketError("send", "", ErrOperationFailed, err)
	case n != len(buf):
		return newSocketError("send", "", ErrOperationTimeout, unix.EAGAIN)
	}
	return nil
}

// Receive reads at most len(buf) bytes. A zero count with a nil error means
// the peer shut down its sending side.
func (s *StreamSocket) Receive(buf []byte) (int, error) {
	if err := s.checkOpen("recv"); err != nil {
		return 0, err
	}

	for {
		n, err := unix.Read(s.fd, buf)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return 0, recvError("recv", err)
		}
		return n, nil
	}
}

// WaitForIncomingConnection waits until Accept would not block.
func (s *StreamSocket) WaitForIncomingConnection(timeout time.Duration) error {
	return s.waitReadable("waitaccept", timeout)
}

// WaitForData waits until Receive would not block.
func (s *StreamSocket) WaitForData(timeout time.Duration) error {
	return s.waitReadable("waitread", timeout)
}

// WaitForSent waits until the socket can accept more outgoing data.
func (s *StreamSocket) WaitForSent(timeout time.Duration) error {
	return s.waitWritable("waitwrite", timeout)
}

// Shutdown disables further receives, sends, or both.
func (s *StreamSocket) Shutdown(dir Direction) error {
	if err := s.checkOpen("shutdown"); err != nil {
		return err
	}

	var how int
	switch dir {
	case DirectionRead:
		how = unix.SHUT_RD
	case DirectionWrite:
		how = unix.SHUT_WR
	case DirectionBoth:
		how = unix.SHUT_RDWR
	default:
		return newSocketError("shutdown", "", ErrInvalidData, errors.New("invalid direction "+dir.String()))
	}

	if err := unix.Shutdown(s.fd, how); err != nil {
		return newSocketError("shutdown", "", ErrOperationFailed, err)
	}
	return nil
}

// EnableKeepAlive toggles SO_KEEPALIVE.
func (s *StreamSocket) EnableKeepAlive(enable bool) error {
	return s.setBoolOption("keepalive", unix.SOL_SOCKET, unix.SO_KEEPALIVE, enable)
}

// EnableNoDelay toggles TCP_NODELAY.
func (s *StreamSocket) EnableNoDelay(enable bool) error {
	return s.setBoolOption("nodelay", unix.IPPROTO_TCP, unix.TCP_NODELAY, enable)
}

// SetTimeout sets the timeout for the selected directions.
func (s *StreamSocket) SetTimeout(timeout time.Duration, dir Direction) error {
	return s.setTimeout(timeout, dir)
}

// ReadTimeout returns the receive timeout in effect.
func (s *StreamSocket) ReadTimeout() time.Duration {
	return s.readTimeout
}

// WriteTimeout returns the send timeout in effect.
func (s *StreamSocket) WriteTimeout() time.Duration {
	return s.writeTimeout
}

// LocalAddress returns the bound local endpoint.
func (s *StreamSocket) LocalAddress() (Address, error) {
	return s.localAddress()
}

// PeerAddress returns the remote endpoint of a connected socket.
func (s *StreamSocket) PeerAddress() (Address, error) {
	if err := s.checkOpen("getpeername"); err != nil {
		return Address{}, err
	}
	sa, err := unix.Getpeername(s.fd)
	if err != nil {
		return Address{}, newSocketError("getpeername", "", ErrOperationFailed, err)
	}
	addr, ok := addressFromSockaddr(sa)
	if !ok {
		invariantViolation("StreamSocket.PeerAddress", "OS returned a non-IP peer address for fd %d", s.fd)
	}
	return addr, nil
}

// Close releases the descriptor. Closing twice fails with ErrOperationFailed.
func (s *StreamSocket) Close() error {
	return s.close("StreamSocket")
}
