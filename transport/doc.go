// Package transport provides a platform abstraction for network sockets:
// a uniform endpoint type, a connection-oriented and a connectionless socket,
// and a single mapping from OS errors to result codes.
//
// # Architecture
//
// Callers build Address values directly or through ResolveHostName, open a
// socket (usually through the factory package) and drive it through its
// state machine. Every blocking call runs on the calling goroutine and is
// bounded by the socket's read or write timeout; there is no event loop and
// no internal goroutine.
//
// # Addresses
//
// Address is a fixed-size value: a Family tag, a 16-byte host in network
// order and a port. Assignment copies it. The zero value is unspecified;
// NewAddress returns 0.0.0.0:0.
//
//	addr, err := transport.NewAddressFromString("192.0.2.7", 9000, transport.FamilyInet)
//	if err != nil {
//	    // errors.Is(err, transport.ErrInvalidData)
//	}
//	addr.SetLoopback(transport.FamilyInet6) // port 9000 is kept
//
// Name resolution returns every match for the requested family, or an empty
// slice on any failure:
//
//	addrs := transport.ResolveHostName("example.net", "https", true, transport.FamilyUnspecified)
//
// # Stream Sockets
//
// StreamSocket follows Created -> Bound -> Listening -> Accept, or
// Created -> Connected, then Shutdown and Close:
//
//	listener, _ := transport.OpenStreamSocket(transport.SocketFamilyInet, transport.DefaultTimeout)
//	_ = listener.Bind(addr)
//	_ = listener.Listen(16)
//	if err := listener.WaitForIncomingConnection(time.Second); err == nil {
//	    conn, peer, err := listener.Accept()
//	    ...
//	}
//
// Send hands the whole buffer to the kernel in one call and reports a short
// write as ErrOperationTimeout instead of retrying. Receive returns (0, nil)
// when the peer has shut down its sending side.
//
// # Datagram Sockets
//
// DatagramSocket sends and receives addressed datagrams. SetPairAddress fixes
// a peer for Send and Receive; passing nil dissolves the pairing.
// ClearPendingInput discards everything queued without blocking.
// SocketFamilyRaw opens a link-layer (AF_PACKET) socket on Linux only.
//
// # Errors
//
// Every error carries one of the sentinels ErrOperationFailed,
// ErrOperationTimeout, ErrOperationNotSupported, ErrInvalidData or
// ErrInsufficientMemory, and where one exists the OS errno as well:
//
//	err := conn.Connect(remote)
//	switch transport.ResultOf(err) {
//	case transport.ResultOperationTimeout:
//	    // retry later
//	case transport.ResultOperationFailed:
//	    if errors.Is(err, unix.ECONNREFUSED) { ... }
//	}
//
// Using a socket after Close fails with ErrOperationFailed wrapping
// ErrSocketClosed. A corrupted Address family tag, or a non-IP address
// returned by the OS for an IP socket, panics.
//
// # Thread Safety
//
// Sockets perform no locking and belong to one goroutine at a time. Address
// values are immutable once shared by value. The package-level resolver is
// safe for concurrent use.
package transport
