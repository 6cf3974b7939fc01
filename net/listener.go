//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package net

import (
	"errors"
	"net"
	"sync"

	"github.com/opd-ai/netsock/transport"
	"github.com/sirupsen/logrus"
)

// Listener implements net.Listener over a listening transport.StreamSocket.
type Listener struct {
	socket    *transport.StreamSocket
	localAddr net.Addr

	mu     sync.Mutex
	closed bool
}

// NewListener wraps a listening stream socket. The Listener takes ownership
// of it.
func NewListener(socket *transport.StreamSocket) (*Listener, error) {
	local, err := socket.LocalAddress()
	if err != nil {
		return nil, newNetError("listen", "", err)
	}
	return &Listener{
		socket:    socket,
		localAddr: local.ToTCPAddr(),
	}, nil
}

// Accept implements net.Listener.Accept().
// It waits for and returns the next connection to the listener.
func (l *Listener) Accept() (net.Conn, error) {
	for {
		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return nil, ErrListenerClosed
		}

		err := l.socket.WaitForIncomingConnection(pollInterval)
		if err == nil {
			child, peer, err := l.socket.Accept()
			l.mu.Unlock()
			if err != nil {
				return nil, newNetError("accept", l.localAddr.String(), err)
			}

			conn, err := NewConn(child)
			if err != nil {
				_ = child.Close()
				return nil, err
			}
			logrus.WithFields(logrus.Fields{
				"function": "Accept",
				"local":    l.localAddr.String(),
				"peer":     peer.String(),
			}).Debug("Accepted connection")
			return conn, nil
		}
		l.mu.Unlock()

		if !errors.Is(err, transport.ErrOperationTimeout) {
			return nil, newNetError("accept", l.localAddr.String(), err)
		}
	}
}

// Close implements net.Listener.Close().
// It closes the listener and stops accepting new connections.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	if err := l.socket.Close(); err != nil {
		return newNetError("close", l.localAddr.String(), err)
	}
	return nil
}

// Addr implements net.Listener.Addr().
// It returns the listener's local address.
func (l *Listener) Addr() net.Addr {
	return l.localAddr
}
