package transport

import (
	"errors"
	"fmt"
	"runtime"
)

// Result is the outcome code reported to the layers above the socket
// abstraction. Every error returned by this package maps onto exactly one
// Result through ResultOf.
type Result int

const (
	// ResultOK indicates the operation completed.
	ResultOK Result = iota
	// ResultOperationFailed is the catch-all for OS-level failures.
	ResultOperationFailed
	// ResultOperationTimeout indicates a would-block condition or an elapsed wait.
	ResultOperationTimeout
	// ResultOperationNotSupported indicates an address family the OS cannot serve.
	ResultOperationNotSupported
	// ResultInvalidData indicates malformed input such as an unparsable host
	// or an oversized datagram.
	ResultInvalidData
	// ResultInsufficientMemory indicates a caller buffer that is too small.
	ResultInsufficientMemory
)

// String returns a human-readable representation of the Result.
func (r Result) String() string {
	switch r {
	case ResultOK:
		return "OK"
	case ResultOperationFailed:
		return "OperationFailed"
	case ResultOperationTimeout:
		return "OperationTimeout"
	case ResultOperationNotSupported:
		return "OperationNotSupported"
	case ResultInvalidData:
		return "InvalidData"
	case ResultInsufficientMemory:
		return "InsufficientMemory"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// Err returns the sentinel error for the Result, or nil for ResultOK.
func (r Result) Err() error {
	switch r {
	case ResultOK:
		return nil
	case ResultOperationTimeout:
		return ErrOperationTimeout
	case ResultOperationNotSupported:
		return ErrOperationNotSupported
	case ResultInvalidData:
		return ErrInvalidData
	case ResultInsufficientMemory:
		return ErrInsufficientMemory
	default:
		return ErrOperationFailed
	}
}

// Sentinel errors, one per non-OK Result.
var (
	// ErrOperationFailed is returned for OS-level errors not otherwise distinguished.
	ErrOperationFailed = errors.New("operation failed")

	// ErrOperationTimeout is returned when a blocking call or readiness wait
	// ran out of time, or the OS reported a would-block condition.
	ErrOperationTimeout = errors.New("operation timed out")

	// ErrOperationNotSupported is returned when the address family is not
	// supported by the socket or the platform.
	ErrOperationNotSupported = errors.New("operation not supported")

	// ErrInvalidData is returned for malformed textual addresses and oversized payloads.
	ErrInvalidData = errors.New("invalid data")

	// ErrInsufficientMemory is returned when a caller-provided buffer is too small.
	ErrInsufficientMemory = errors.New("insufficient memory")
)

// ErrSocketClosed is wrapped inside ErrOperationFailed when a socket is used
// after Close.
var ErrSocketClosed = errors.New("socket closed")

// ResultOf maps an error returned by this package back to its Result code.
// Errors that carry none of the sentinels map to ResultOperationFailed.
func ResultOf(err error) Result {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, ErrOperationTimeout):
		return ResultOperationTimeout
	case errors.Is(err, ErrOperationNotSupported):
		return ResultOperationNotSupported
	case errors.Is(err, ErrInvalidData):
		return ResultInvalidData
	case errors.Is(err, ErrInsufficientMemory):
		return ResultInsufficientMemory
	default:
		return ResultOperationFailed
	}
}

// SocketError represents a socket failure with additional context.
type SocketError struct {
	Op   string // operation that caused the error
	Addr string // address if relevant
	Kind error  // one of the Err* sentinels
	Err  error  // underlying OS error, may be nil
}

func (e *SocketError) Error() string {
	msg := e.Kind.Error()
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Addr != "" {
		return fmt.Sprintf("socket %s %s: %s", e.Op, e.Addr, msg)
	}
	return fmt.Sprintf("socket %s: %s", e.Op, msg)
}

// Unwrap exposes both the result sentinel and the OS error to errors.Is/As.
func (e *SocketError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// newSocketError creates a new SocketError
func newSocketError(op, addr string, kind, err error) *SocketError {
	return &SocketError{
		Op:   op,
		Addr: addr,
		Kind: kind,
		Err:  err,
	}
}

// invariantViolation logs and panics. Used only for states that mean the
// process memory or the OS contract is broken.
func invariantViolation(function, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	NewLogger(function).WithCaller().Error("invariant violation: " + msg)
	panic("netsock/transport: " + msg)
}

// relax yields the processor after a failed readiness wait so that callers
// polling in a loop do not spin hot on a persistent error.
func relax() {
	runtime.Gosched()
}
