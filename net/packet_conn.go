//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package net

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/opd-ai/netsock/transport"
)

// PacketConn implements net.PacketConn over a bound transport.DatagramSocket.
type PacketConn struct {
	socket    *transport.DatagramSocket
	localAddr net.Addr

	// write-locked only by Close
	mu     sync.RWMutex
	closed bool

	deadlines deadlineState
}

// NewPacketConn wraps a bound datagram socket. The PacketConn takes
// ownership of it.
func NewPacketConn(socket *transport.DatagramSocket) (*PacketConn, error) {
	local, err := socket.LocalAddress()
	if err != nil {
		return nil, newNetError("packetconn", "", err)
	}
	return &PacketConn{
		socket:    socket,
		localAddr: local.ToUDPAddr(),
	}, nil
}

// ReadFrom reads a packet from the connection.
// This implements net.PacketConn.ReadFrom().
func (c *PacketConn) ReadFrom(p []byte) (n int, addr net.Addr, err error) {
	for {
		c.mu.RLock()
		if c.closed {
			c.mu.RUnlock()
			return 0, nil, newNetError("read", "", ErrConnectionClosed)
		}

		wait, err := c.deadlines.readWait()
		if err != nil {
			c.mu.RUnlock()
			return 0, nil, newNetError("read", "", err)
		}

		err = c.socket.WaitForData(wait)
		if err == nil {
			n, src, err := c.socket.ReceiveFrom(p)
			c.mu.RUnlock()
			if err != nil {
				return 0, nil, newNetError("read", "", err)
			}
			if udp := src.ToUDPAddr(); udp != nil {
				return n, udp, nil
			}
			return n, nil, nil
		}
		c.mu.RUnlock()

		if !errors.Is(err, transport.ErrOperationTimeout) {
			return 0, nil, newNetError("read", "", err)
		}
	}
}

// WriteTo writes a packet with payload p to addr.
// This implements net.PacketConn.WriteTo().
func (c *PacketConn) WriteTo(p []byte, addr net.Addr) (n int, err error) {
	target, err := transport.AddressFromNetAddr(addr)
	if err != nil {
		return 0, newNetError("write", "", err)
	}

	for {
		c.mu.RLock()
		if c.closed {
			c.mu.RUnlock()
			return 0, newNetError("write", target.String(), ErrConnectionClosed)
		}

		wait, err := c.deadlines.writeWait()
		if err != nil {
			c.mu.RUnlock()
			return 0, newNetError("write", target.String(), err)
		}

		err = c.socket.WaitForSent(wait)
		if err == nil {
			err = c.socket.SendTo(target, p)
			c.mu.RUnlock()
			if err != nil {
				return 0, newNetError("write", target.String(), err)
			}
			return len(p), nil
		}
		c.mu.RUnlock()

		if !errors.Is(err, transport.ErrOperationTimeout) {
			return 0, newNetError("write", target.String(), err)
		}
	}
}

// Close closes the connection. Closing twice is a no-op.
// This implements net.PacketConn.Close().
func (c *PacketConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.socket.Close(); err != nil {
		return newNetError("close", "", err)
	}
	return nil
}

// LocalAddr returns the local network address.
// This implements net.PacketConn.LocalAddr().
func (c *PacketConn) LocalAddr() net.Addr {
	return c.localAddr
}

// SetDeadline sets both read and write deadlines.
// This implements net.PacketConn.SetDeadline().
func (c *PacketConn) SetDeadline(t time.Time) error {
	c.deadlines.set(true, true, t)
	return nil
}

// SetReadDeadline sets the read deadline.
// This implements net.PacketConn.SetReadDeadline().
func (c *PacketConn) SetReadDeadline(t time.Time) error {
	c.deadlines.set(true, false, t)
	return nil
}

// SetWriteDeadline sets the write deadline.
// This implements net.PacketConn.SetWriteDeadline().
func (c *PacketConn) SetWriteDeadline(t time.Time) error {
	c.deadlines.set(false, true, t)
	return nil
}

// SetTimeProvider sets the time provider for deadline checks.
// This is primarily useful for testing to inject deterministic time.
func (c *PacketConn) SetTimeProvider(tp TimeProvider) {
	c.deadlines.setTimeProvider(tp)
}
