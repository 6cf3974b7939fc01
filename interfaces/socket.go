//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package interfaces

import (
	"errors"
	"fmt"
	"time"

	"github.com/opd-ai/netsock/transport"
)

// ISocket is the capability set shared by stream and datagram sockets.
type ISocket interface {
	// Bind assigns the local endpoint
	Bind(addr transport.Address) error

	// LocalAddress returns the bound local endpoint
	LocalAddress() (transport.Address, error)

	// SetTimeout sets the read and/or write timeout
	SetTimeout(timeout time.Duration, dir transport.Direction) error

	// WaitForData waits until a receive would not block
	WaitForData(timeout time.Duration) error

	// WaitForSent waits until a send would not block
	WaitForSent(timeout time.Duration) error

	// Close releases the socket
	Close() error
}

// IStreamSocket extends ISocket with connection-oriented operations.
type IStreamSocket interface {
	ISocket

	Listen(backlog int) error
	Accept() (*transport.StreamSocket, transport.Address, error)
	Connect(remote transport.Address) error
	Send(buf []byte) error
	Receive(buf []byte) (int, error)
	WaitForIncomingConnection(timeout time.Duration) error
	Shutdown(dir transport.Direction) error
	EnableKeepAlive(enable bool) error
	EnableNoDelay(enable bool) error
	PeerAddress() (transport.Address, error)
}

// IDatagramSocket extends ISocket with connectionless operations.
type IDatagramSocket interface {
	ISocket

	SendTo(target transport.Address, buf []byte) error
	ReceiveFrom(buf []byte) (int, transport.Address, error)
	Send(buf []byte) error
	Receive(buf []byte) (int, error)
	SetPairAddress(addr *transport.Address) error
	PairAddress() (transport.Address, bool)
	ClearPendingInput() error
}

var (
	// ErrInvalidTimeout indicates a non-positive default timeout
	ErrInvalidTimeout = errors.New("default timeout must be positive")

	// ErrInvalidBacklog indicates a non-positive listen backlog
	ErrInvalidBacklog = errors.New("listen backlog must be positive")
)

// SocketConfig holds the defaults applied to sockets created by the factory
type SocketConfig struct {
	// DefaultTimeout is installed as both read and write timeout on every new socket
	DefaultTimeout time.Duration

	// ListenBacklog is the backlog used when a caller does not choose one
	ListenBacklog int

	// EnableKeepAlive turns on SO_KEEPALIVE for new stream sockets
	EnableKeepAlive bool
}

// Validate checks the configuration for values no socket can use.
func (c *SocketConfig) Validate() error {
	if c.DefaultTimeout <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidTimeout, c.DefaultTimeout)
	}
	if c.ListenBacklog <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidBacklog, c.ListenBacklog)
	}
	return nil
}
