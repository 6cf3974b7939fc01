//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package net

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/opd-ai/netsock/transport"
)

// maxWriteChunk is the largest slice handed to a single send call.
const maxWriteChunk = 64 * 1024

// Conn implements net.Conn over a connected transport.StreamSocket.
// Read, Write and Close may be called from different goroutines.
type Conn struct {
	socket     *transport.StreamSocket
	localAddr  net.Addr
	remoteAddr net.Addr

	// write-locked only by Close, so I/O never races with the descriptor release
	mu     sync.RWMutex
	closed bool

	deadlines deadlineState
}

// NewConn wraps a connected stream socket. The Conn takes ownership of it.
func NewConn(socket *transport.StreamSocket) (*Conn, error) {
	local, err := socket.LocalAddress()
	if err != nil {
		return nil, newNetError("conn", "", err)
	}
	remote, err := socket.PeerAddress()
	if err != nil {
		return nil, newNetError("conn", local.String(), err)
	}

	return &Conn{
		socket:     socket,
		localAddr:  local.ToTCPAddr(),
		remoteAddr: remote.ToTCPAddr(),
	}, nil
}

// Read implements net.Conn.Read(). It returns io.EOF once the peer has
// shut down its sending side.
func (c *Conn) Read(b []byte) (int, error) {
	for {
		c.mu.RLock()
		if c.closed {
			c.mu.RUnlock()
			return 0, newNetError("read", c.remoteAddr.String(), ErrConnectionClosed)
		}
		if len(b) == 0 {
			c.mu.RUnlock()
			return 0, nil
		}

		wait, err := c.deadlines.readWait()
		if err != nil {
			c.mu.RUnlock()
			return 0, newNetError("read", c.remoteAddr.String(), err)
		}

		err = c.socket.WaitForData(wait)
		if err == nil {
			n, err := c.socket.Receive(b)
			c.mu.RUnlock()
			switch {
			case err != nil:
				return 0, newNetError("read", c.remoteAddr.String(), err)
			case n == 0:
				return 0, io.EOF
			}
			return n, nil
		}
		c.mu.RUnlock()

		if !errors.Is(err, transport.ErrOperationTimeout) {
			return 0, newNetError("read", c.remoteAddr.String(), err)
		}
	}
}

// Write implements net.Conn.Write(). Data is sent in chunks of at most
// maxWriteChunk bytes; a failure after the first chunk wraps ErrPartialWrite.
func (c *Conn) Write(b []byte) (int, error) {
	written := 0
	for written < len(b) {
		end := min(written+maxWriteChunk, len(b))
		if err := c.writeChunk(b[written:end]); err != nil {
			if written > 0 {
				err = fmt.Errorf("%w after %d bytes: %w", ErrPartialWrite, written, err)
			}
			return written, newNetError("write", c.remoteAddr.String(), err)
		}
		written = end
	}
	return written, nil
}

func (c *Conn) writeChunk(chunk []byte) error {
	for {
		c.mu.RLock()
		if c.closed {
			c.mu.RUnlock()
			return ErrConnectionClosed
		}

		wait, err := c.deadlines.writeWait()
		if err != nil {
			c.mu.RUnlock()
			return err
		}

		err = c.socket.WaitForSent(wait)
		if err == nil {
			err = c.socket.Send(chunk)
			c.mu.RUnlock()
			return err
		}
		c.mu.RUnlock()

		if !errors.Is(err, transport.ErrOperationTimeout) {
			return err
		}
	}
}

// CloseWrite shuts down the sending side, so the peer reads io.EOF.
func (c *Conn) CloseWrite() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return newNetError("shutdown", c.remoteAddr.String(), ErrConnectionClosed)
	}
	if err := c.socket.Shutdown(transport.DirectionWrite); err != nil {
		return newNetError("shutdown", c.remoteAddr.String(), err)
	}
	return nil
}

// Close implements net.Conn.Close(). Closing twice is a no-op.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.socket.Close(); err != nil {
		return newNetError("close", c.remoteAddr.String(), err)
	}
	return nil
}

// LocalAddr returns the local network address.
func (c *Conn) LocalAddr() net.Addr {
	return c.localAddr
}

// RemoteAddr returns the remote network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.remoteAddr
}

// SetDeadline sets both read and write deadlines.
func (c *Conn) SetDeadline(t time.Time) error {
	c.deadlines.set(true, true, t)
	return nil
}

// SetReadDeadline sets the read deadline.
func (c *Conn) SetReadDeadline(t time.Time) error {
	c.deadlines.set(true, false, t)
	return nil
}

// SetWriteDeadline sets the write deadline.
func (c *Conn) SetWriteDeadline(t time.Time) error {
	c.deadlines.set(false, true, t)
	return nil
}

// SetTimeProvider sets the time provider for deadline checks.
// This is primarily useful for testing to inject deterministic time.
func (c *Conn) SetTimeProvider(tp TimeProvider) {
	c.deadlines.setTimeProvider(tp)
}
