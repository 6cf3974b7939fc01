package net

import (
	"errors"
	"fmt"
	"os"

	"github.com/opd-ai/netsock/transport"
)

// Common errors for the net adapters
var (
	// ErrConnectionClosed indicates the connection has been closed
	ErrConnectionClosed = errors.New("connection closed")

	// ErrListenerClosed indicates the listener has been closed
	ErrListenerClosed = errors.New("listener closed")

	// ErrNoAddress indicates name resolution produced no usable address
	ErrNoAddress = errors.New("no suitable address found")

	// ErrPartialWrite indicates only part of the data was written before an error occurred
	ErrPartialWrite = errors.New("partial write")
)

// NetError represents an error with additional context. It satisfies
// net.Error so callers can test for timeouts the usual way.
type NetError struct {
	Op   string // operation that caused the error
	Addr string // address if relevant
	Err  error  // underlying error
}

func (e *NetError) Error() string {
	if e.Addr != "" {
		return fmt.Sprintf("netsock %s %s: %v", e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("netsock %s: %v", e.Op, e.Err)
}

func (e *NetError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the error is a deadline or socket timeout.
func (e *NetError) Timeout() bool {
	return errors.Is(e.Err, os.ErrDeadlineExceeded) ||
		transport.ResultOf(e.Err) == transport.ResultOperationTimeout
}

// Temporary is kept for net.Error; it mirrors Timeout.
func (e *NetError) Temporary() bool {
	return e.Timeout()
}

// newNetError creates a new NetError
func newNetError(op, addr string, err error) *NetError {
	return &NetError{
		Op:   op,
		Addr: addr,
		Err:  err,
	}
}
