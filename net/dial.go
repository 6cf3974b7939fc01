//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package net

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/opd-ai/netsock/factory"
	"github.com/opd-ai/netsock/transport"
	"github.com/sirupsen/logrus"
)

var (
	factoryMu      sync.RWMutex
	defaultFactory *factory.SocketFactory
)

// SetDefaultFactory sets the factory used by Dial, Listen and ListenPacket.
// A nil factory restores lazy creation with NewSocketFactory.
func SetDefaultFactory(f *factory.SocketFactory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	defaultFactory = f
}

func getFactory() *factory.SocketFactory {
	factoryMu.RLock()
	f := defaultFactory
	factoryMu.RUnlock()
	if f != nil {
		return f
	}

	factoryMu.Lock()
	defer factoryMu.Unlock()
	if defaultFactory == nil {
		defaultFactory = factory.NewSocketFactory()
	}
	return defaultFactory
}

// familyForNetwork maps a Go network name ("tcp", "tcp4", "udp6", ...) for
// proto onto the resolver family filter.
func familyForNetwork(network, proto string) (transport.Family, bool) {
	switch network {
	case proto:
		return transport.FamilyUnspecified, true
	case proto + "4":
		return transport.FamilyInet, true
	case proto + "6":
		return transport.FamilyInet6, true
	default:
		return transport.FamilyUnspecified, false
	}
}

func socketFamily(addr transport.Address) transport.SocketFamily {
	if addr.Family() == transport.FamilyInet6 {
		return transport.SocketFamilyInet6
	}
	return transport.SocketFamilyInet
}

// resolve splits address into host and port and resolves both.
func resolve(ctx context.Context, op, address string, family transport.Family) ([]transport.Address, error) {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return nil, newNetError(op, address, err)
	}
	addrs := transport.ResolveHostNameContext(ctx, host, port, true, family)
	if len(addrs) == 0 {
		return nil, newNetError(op, address, ErrNoAddress)
	}
	return addrs, nil
}

// Dial connects to address on the named network ("tcp", "tcp4" or "tcp6").
func Dial(network, address string) (net.Conn, error) {
	return DialContext(context.Background(), network, address)
}

// DialTimeout acts like Dial but takes a timeout covering resolution and
// connection establishment.
func DialTimeout(network, address string, timeout time.Duration) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return DialContext(ctx, network, address)
}

// DialContext connects to address, trying each resolved address in turn
// until one succeeds or ctx expires. The context deadline bounds each
// connect through the socket write timeout.
func DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	family, ok := familyForNetwork(network, "tcp")
	if !ok {
		return nil, newNetError("dial", address, net.UnknownNetworkError(network))
	}

	addrs, err := resolve(ctx, "dial", address, family)
	if err != nil {
		return nil, err
	}

	f := getFactory()
	var lastErr error
	for _, addr := range addrs {
		if err := ctx.Err(); err != nil {
			return nil, newNetError("dial", address, err)
		}

		conn, err := dialOne(ctx, f, addr)
		if err == nil {
			return conn, nil
		}
		logrus.WithFields(logrus.Fields{
			"function": "DialContext",
			"address":  addr.String(),
			"error":    err.Error(),
		}).Debug("Dial attempt failed")
		lastErr = err
	}
	return nil, newNetError("dial", address, lastErr)
}

func dialOne(ctx context.Context, f *factory.SocketFactory, addr transport.Address) (*Conn, error) {
	s, err := f.CreateStreamSocket(socketFamily(addr))
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			_ = s.Close()
			return nil, context.DeadlineExceeded
		}
		if remaining < s.WriteTimeout() {
			defaultTimeout := s.WriteTimeout()
			if err := s.SetTimeout(remaining, transport.DirectionWrite); err != nil {
				_ = s.Close()
				return nil, err
			}
			defer func() { _ = s.SetTimeout(defaultTimeout, transport.DirectionWrite) }()
		}
	}

	if err := s.Connect(addr); err != nil {
		_ = s.Close()
		return nil, err
	}

	conn, err := NewConn(s)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return conn, nil
}

// Listen announces on the local network address ("tcp", "tcp4" or "tcp6").
// An empty host listens on the wildcard address.
func Listen(network, address string) (net.Listener, error) {
	family, ok := familyForNetwork(network, "tcp")
	if !ok {
		return nil, newNetError("listen", address, net.UnknownNetworkError(network))
	}

	addrs, err := resolve(context.Background(), "listen", address, family)
	if err != nil {
		return nil, err
	}

	s, err := getFactory().CreateListener(addrs[0])
	if err != nil {
		return nil, newNetError("listen", address, err)
	}
	l, err := NewListener(s)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return l, nil
}

// ListenPacket binds a datagram socket to the local network address
// ("udp", "udp4" or "udp6").
func ListenPacket(network, address string) (net.PacketConn, error) {
	family, ok := familyForNetwork(network, "udp")
	if !ok {
		return nil, newNetError("listen", address, net.UnknownNetworkError(network))
	}

	addrs, err := resolve(context.Background(), "listen", address, family)
	if err != nil {
		return nil, err
	}

	s, err := getFactory().CreateDatagramSocket(socketFamily(addrs[0]))
	if err != nil {
		return nil, newNetError("listen", address, err)
	}
	if err := s.Bind(addrs[0]); err != nil {
		_ = s.Close()
		return nil, newNetError("listen", address, err)
	}
	c, err := NewPacketConn(s)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return c, nil
}
