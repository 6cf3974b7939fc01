//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package net

import (
	"errors"
	"io"
	"net"
	"os"
	"testing"
	"time"

	"github.com/opd-ai/netsock/factory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	SetDefaultFactory(factory.NewSocketFactoryForTesting())
	code := m.Run()
	SetDefaultFactory(nil)
	os.Exit(code)
}

func TestFamilyForNetwork(t *testing.T) {
	tests := []struct {
		network string
		proto   string
		ok      bool
	}{
		{"tcp", "tcp", true},
		{"tcp4", "tcp", true},
		{"tcp6", "tcp", true},
		{"udp", "tcp", false},
		{"", "tcp", false},
		{"4", "tcp", false},
		{"udp6", "udp", true},
		{"unix", "udp", false},
	}

	for _, tt := range tests {
		t.Run(tt.network+"/"+tt.proto, func(t *testing.T) {
			_, ok := familyForNetwork(tt.network, tt.proto)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestListenDialRoundTrip(t *testing.T) {
	ln, err := Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	acceptErr := make(chan error, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			acceptErr <- err
			return
		}
		accepted <- c
	}()

	client, err := DialTimeout("tcp", ln.Addr().String(), 2*time.Second)
	require.NoError(t, err)
	defer client.Close()

	var server net.Conn
	select {
	case server = <-accepted:
	case err := <-acceptErr:
		t.Fatalf("Accept failed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("Accept did not return")
	}
	defer server.Close()

	assert.Equal(t, ln.Addr().String(), client.RemoteAddr().String())
	assert.Equal(t, client.LocalAddr().String(), server.RemoteAddr().String())

	n, err := client.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	require.NoError(t, client.(*Conn).CloseWrite())

	data, err := io.ReadAll(server)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestConnReadDeadline(t *testing.T) {
	ln, err := Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		c, err := ln.Accept()
		if err == nil {
			time.Sleep(500 * time.Millisecond)
			c.Close()
		}
	}()

	client, err := Dial("tcp4", ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.SetReadDeadline(time.Now().Add(100*time.Millisecond)))

	start := time.Now()
	_, err = client.Read(make([]byte, 16))
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrDeadlineExceeded))
	var netErr net.Error
	require.True(t, errors.As(err, &netErr))
	assert.True(t, netErr.Timeout())
	assert.Less(t, elapsed, 400*time.Millisecond)
}

func TestConnPastDeadlineWithMockClock(t *testing.T) {
	ln, err := Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		if c, err := ln.Accept(); err == nil {
			defer c.Close()
			_, _ = io.Copy(io.Discard, c)
		}
	}()

	client, err := Dial("tcp4", ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	clock := &MockTimeProvider{currentTime: time.Unix(1000, 0)}
	conn := client.(*Conn)
	conn.SetTimeProvider(clock)
	require.NoError(t, conn.SetWriteDeadline(clock.Now().Add(time.Second)))

	_, err = conn.Write([]byte("before"))
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	_, err = conn.Write([]byte("after"))
	assert.True(t, errors.Is(err, os.ErrDeadlineExceeded))
}

func TestConnCloseIdempotent(t *testing.T) {
	ln, err := Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		if c, err := ln.Accept(); err == nil {
			c.Close()
		}
	}()

	client, err := Dial("tcp4", ln.Addr().String())
	require.NoError(t, err)

	assert.NoError(t, client.Close())
	assert.NoError(t, client.Close())

	_, err = client.Read(make([]byte, 1))
	assert.True(t, errors.Is(err, ErrConnectionClosed))
	_, err = client.Write([]byte("x"))
	assert.True(t, errors.Is(err, ErrConnectionClosed))
}

func TestListenerAcceptAfterClose(t *testing.T) {
	ln, err := Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := ln.Accept()
		done <- err
	}()

	time.Sleep(2 * pollInterval)
	require.NoError(t, ln.Close())
	assert.NoError(t, ln.Close())

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, ErrListenerClosed))
	case <-time.After(2 * time.Second):
		t.Fatal("Accept did not return after Close")
	}
}

func TestDialRefused(t *testing.T) {
	ln, err := Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = Dial("tcp4", addr)
	require.Error(t, err)
	var netErr *NetError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, "dial", netErr.Op)
}

func TestUnknownNetwork(t *testing.T) {
	_, err := Dial("sctp", "127.0.0.1:1")
	var unknown net.UnknownNetworkError
	assert.True(t, errors.As(err, &unknown))

	_, err = Listen("udp", "127.0.0.1:0")
	assert.True(t, errors.As(err, &unknown))

	_, err = ListenPacket("tcp", "127.0.0.1:0")
	assert.True(t, errors.As(err, &unknown))
}

func TestBadAddress(t *testing.T) {
	_, err := Dial("tcp", "missing-port")
	assert.Error(t, err)

	_, err = Listen("tcp4", "[::1]:0")
	assert.True(t, errors.Is(err, ErrNoAddress))
}

func TestPacketConnRoundTrip(t *testing.T) {
	a, err := ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer a.Close()

	b, err := ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer b.Close()

	n, err := a.WriteTo([]byte("ping"), b.LocalAddr())
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	require.NoError(t, b.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 16)
	n, src, err := b.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))
	assert.Equal(t, a.LocalAddr().String(), src.String())
}

func TestPacketConnReadDeadline(t *testing.T) {
	c, err := ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SetReadDeadline(time.Now().Add(50*time.Millisecond)))
	_, _, err = c.ReadFrom(make([]byte, 16))

	var netErr net.Error
	require.True(t, errors.As(err, &netErr))
	assert.True(t, netErr.Timeout())
}

func TestPacketConnClosed(t *testing.T) {
	c, err := ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)

	target := c.LocalAddr()
	require.NoError(t, c.Close())
	assert.NoError(t, c.Close())

	_, err = c.WriteTo([]byte("x"), target)
	assert.True(t, errors.Is(err, ErrConnectionClosed))
	_, _, err = c.ReadFrom(make([]byte, 1))
	assert.True(t, errors.Is(err, ErrConnectionClosed))
}
