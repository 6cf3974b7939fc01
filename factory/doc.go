// Package factory creates stream and datagram sockets carrying a shared
// default configuration.
//
// The factory keeps the socket defaults (timeout, listen backlog,
// keep-alive) in one place so that callers never pass OS constants or
// per-socket timeouts around.
//
// # Configuration
//
// The factory supports configuration via environment variables:
//   - NETSOCK_DEFAULT_TIMEOUT: integer milliseconds, 1 to 600000
//   - NETSOCK_LISTEN_BACKLOG: integer, 1 to 65535
//   - NETSOCK_ENABLE_KEEPALIVE: "true" or "false"
//
// Malformed or out-of-range values are logged at warning level and ignored.
//
// # Usage
//
//	f := factory.NewSocketFactory()
//
//	listener, err := f.CreateListener(addr)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	udp, err := f.CreateDatagramSocket(transport.SocketFamilyInet)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Testing Support
//
// NewSocketFactoryForTesting ignores the environment and uses short
// timeouts; ConfigOption values adjust individual fields:
//
//	f := factory.NewSocketFactoryForTesting(factory.WithDefaultTimeout(200 * time.Millisecond))
package factory
