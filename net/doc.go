// Package net adapts the netsock sockets to the Go standard library
// networking interfaces.
//
// This package implements net.Conn, net.Listener and net.PacketConn on top of
// transport.StreamSocket and transport.DatagramSocket, so code written against
// the standard interfaces (io.Copy, bufio, http.Serve, ...) can run over the
// platform socket layer.
//
// The package provides:
//   - Conn: net.Conn over a connected stream socket
//   - Listener: net.Listener over a listening stream socket
//   - PacketConn: net.PacketConn over a bound datagram socket
//   - Dial/Listen/ListenPacket functions that resolve "host:port" strings and
//     create sockets through the factory package
//
// Example usage:
//
//	listener, err := netsocknet.Listen("tcp", "127.0.0.1:0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer listener.Close()
//
//	go func() {
//	    conn, err := netsocknet.Dial("tcp", listener.Addr().String())
//	    if err != nil {
//	        return
//	    }
//	    defer conn.Close()
//	    conn.Write([]byte("hello"))
//	}()
//
//	conn, err := listener.Accept()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	io.Copy(os.Stdout, conn)
//
// Deadlines are enforced with bounded readiness waits on the socket, so
// Close from another goroutine takes effect within a short poll interval
// rather than interrupting a blocked system call.
package net
