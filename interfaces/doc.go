// Package interfaces defines the socket capability interfaces and the
// configuration shared by the factory and its callers.
//
// # Core Interfaces
//
// [ISocket] is the set of operations both socket variants support: binding,
// local address lookup, timeouts, readiness waits and closing.
//
// [IStreamSocket] adds listen/accept/connect, byte-stream send and receive,
// shutdown and the TCP options. *transport.StreamSocket implements it.
//
// [IDatagramSocket] adds addressed send/receive, the optional fixed peer and
// draining of queued input. *transport.DatagramSocket implements it.
//
// Code that only needs to wait and close can accept an ISocket:
//
//	func drainUntilIdle(s interfaces.ISocket, idle time.Duration) error {
//	    for {
//	        if err := s.WaitForData(idle); err != nil {
//	            return err
//	        }
//	        ...
//	    }
//	}
//
// # Configuration
//
// [SocketConfig] holds the defaults the factory applies to new sockets:
//
//	config := &interfaces.SocketConfig{
//	    DefaultTimeout:  5 * time.Second,
//	    ListenBacklog:   64,
//	    EnableKeepAlive: true,
//	}
//	if err := config.Validate(); err != nil {
//	    log.Fatalf("invalid config: %v", err)
//	}
//
// # Thread Safety
//
// Sockets are single-owner: implementations perform no internal locking and
// must not be used from several goroutines at once.
package interfaces
