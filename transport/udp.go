//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package transport

import (
	"errors"
	"time"

	"github.com/opd-ai/netsock/limits"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// DatagramSocket is a connectionless (UDP, or link-layer raw on Linux)
// socket. It can optionally be paired with a fixed peer, after which Send
// and Receive exchange datagrams with that peer only.
//
// A DatagramSocket is owned by a single goroutine; it performs no internal
// locking.
type DatagramSocket struct {
	socket
	pair    Address
	hasPair bool
}

// OpenDatagramSocket opens a datagram socket for family with SO_REUSEADDR
// and SO_BROADCAST enabled and both timeouts set to defaultTimeout.
func OpenDatagramSocket(family SocketFamily, defaultTimeout time.Duration) (*DatagramSocket, error) {
	log := NewLogger("OpenDatagramSocket").WithFields(logrus.Fields{
		"family":  family.String(),
		"timeout": defaultTimeout,
	})

	fd, err := openFD(family, unix.SOCK_DGRAM)
	if err != nil {
		log.WithError(err, "socket").Debug("Failed to open datagram socket")
		return nil, err
	}

	s := &DatagramSocket{socket: socket{
		fd:             fd,
		family:         family,
		defaultTimeout: defaultTimeout,
	}}
	err = s.applyDefaults([][2]int{
		{unix.SOL_SOCKET, unix.SO_REUSEADDR},
		{unix.SOL_SOCKET, unix.SO_BROADCAST},
	})
	if err != nil {
		_ = unix.Close(fd)
		log.WithError(err, "configure").Debug("Failed to apply datagram socket defaults")
		var se *SocketError
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, newSocketError("setsockopt", "", ErrOperationFailed, err)
	}

	log.WithFD(fd).Debug("Datagram socket opened")
	return s, nil
}

// Family returns the family the socket was opened for.
func (s *DatagramSocket) Family() SocketFamily {
	return s.family
}

// Bind assigns addr as the local endpoint.
func (s *DatagramSocket) Bind(addr Address) error {
	return s.bind(addr)
}

// LocalAddress returns the bound local endpoint. Raw sockets have no IP
// endpoint and report ErrOperationNotSupported.
func (s *DatagramSocket) LocalAddress() (Address, error) {
	return s.localAddress()
}

// SetTimeout sets the timeout for the selected directions.
func (s *DatagramSocket) SetTimeout(timeout time.Duration, dir Direction) error {
	return s.setTimeout(timeout, dir)
}

// ReadTimeout returns the receive timeout in effect.
func (s *DatagramSocket) ReadTimeout() time.Duration {
	return s.readTimeout
}

// WriteTimeout returns the send timeout in effect.
func (s *DatagramSocket) WriteTimeout() time.Duration {
	return s.writeTimeout
}

// WaitForData waits until a datagram is ready to be received.
func (s *DatagramSocket) WaitForData(timeout time.Duration) error {
	return s.waitReadable("waitread", timeout)
}

// WaitForSent waits until the socket can accept another datagram.
func (s *DatagramSocket) WaitForSent(timeout time.Duration) error {
	return s.waitWritable("waitwrite", timeout)
}

// SendTo sends buf as one datagram to target.
func (s *DatagramSocket) SendTo(target Address, buf []byte) error {
	if err := s.checkOpen("sendto"); err != nil {
		return err
	}
	if err := limits.ValidateDatagramPayload(buf, target.Family() == FamilyInet6); err != nil {
		return newSocketError("sendto", target.String(), ErrInvalidData, err)
	}
	sa, err := target.sockaddr()
	if err != nil {
		return newSocketError("sendto", target.String(), ErrOperationFailed, err)
	}
	return s.sendmsg("sendto", target.String(), buf, sa)
}

// Send sends buf as one datagram to the paired peer.
func (s *DatagramSocket) Send(buf []byte) error {
	if err := s.checkOpen("send"); err != nil {
		return err
	}
	return s.sendmsg("send", "", buf, nil)
}

func (s *DatagramSocket) sendmsg(op, addr string, buf []byte, sa unix.Sockaddr) error {
	var (
		n   int
		err error
	)
	for {
		n, err = unix.SendmsgN(s.fd, buf, nil, sa, sendFlags)
		if !errors.Is(err, unix.EINTR) {
			break
		}
	}
	switch {
	case errors.Is(err, unix.EMSGSIZE):
		return newSocketError(op, addr, ErrInvalidData, err)
	case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EWOULDBLOCK):
		return newSocketError(op, addr, ErrOperationTimeout, err)
	case err != nil:
		return newSocketError(op, addr, ErrOperationFailed, err)
	case n != len(buf):
		return newSocketError(op, addr, ErrOperationFailed, errors.New("datagram truncated on send"))
	}
	return nil
}

// ReceiveFrom reads one datagram into buf and reports its source. A
// zero-length datagram yields a zero count and a nil error. Datagrams on raw
// sockets carry no IP source and report the zero Address.
func (s *DatagramSocket) ReceiveFrom(buf []byte) (int, Address, error) {
	if err := s.checkOpen("recvfrom"); err != nil {
		return 0, Address{}, err
	}

	for {
		n, sa, err := unix.Recvfrom(s.fd, buf, 0)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return 0, Address{}, recvError("recvfrom", err)
		}
		src, _ := addressFromSockaddr(sa)
		return n, src, nil
	}
}

// Receive reads one datagram from the paired peer.
func (s *DatagramSocket) Receive(buf []byte) (int, error) {
	if err := s.checkOpen("recv"); err != nil {
		return 0, err
	}
	if !s.hasPair {
		return 0, newSocketError("recv", "", ErrOperationFailed, unix.ENOTCONN)
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

// SetPairAddress fixes the peer used by Send and Receive, and filters
// incoming datagrams to that peer. A nil addr dissolves the pairing.
func (s *DatagramSocket) SetPairAddress(addr *Address) error {
	if err := s.checkOpen("connect"); err != nil {
		return err
	}
	log := NewLogger("DatagramSocket.SetPairAddress").WithFD(s.fd)

	if addr == nil {
		if err := dissolvePair(s.fd); err != nil {
			log.WithError(err, "disconnect").Debug("Failed to clear pair address")
			return newSocketError("connect", "", ErrOperationFailed, err)
		}
		s.pair, s.hasPair = Address{}, false
		log.Debug("Pair address cleared")
		return nil
	}

	target := *addr
	log = log.WithField("pair", target.String())
	sa, err := target.sockaddr()
	if err != nil {
		return newSocketError("connect", target.String(), ErrOperationNotSupported, err)
	}
	if err := connectError("connect", target, s.connect("connect", sa)); err != nil {
		log.WithError(err, "connect").Debug("Failed to set pair address")
		return err
	}
	s.pair, s.hasPair = target, true
	log.Debug("Pair address set")
	return nil
}

// PairAddress returns the paired peer, if any.
func (s *DatagramSocket) PairAddress() (Address, bool) {
	return s.pair, s.hasPair
}

// ClearPendingInput discards every datagram already queued on the socket.
// It never blocks.
func (s *DatagramSocket) ClearPendingInput() error {
	if err := s.checkOpen("drain"); err != nil {
		return err
	}

	var scratch [1]byte
	discarded := 0
	for {
		if err := s.waitReadable("drain", 0); err != nil {
			if errors.Is(err, ErrOperationTimeout) {
				break
			}
			return err
		}
		// errors queued on the socket are consumed by the read as well
		_, _, err := unix.Recvfrom(s.fd, scratch[:], unix.MSG_DONTWAIT)
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			break
		}
		discarded++
	}

	if discarded > 0 {
		NewLogger("DatagramSocket.ClearPendingInput").WithFields(logrus.Fields{
			"fd":        s.fd,
			"discarded": discarded,
		}).Debug("Discarded pending input")
	}
	return nil
}

// Close releases the descriptor. Closing twice fails with ErrOperationFailed.
func (s *DatagramSocket) Close() error {
	return s.close("DatagramSocket")
}
