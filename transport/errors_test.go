package transport

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult_String(t *testing.T) {
	tests := []struct {
		result   Result
		expected string
	}{
		{ResultOK, "OK"},
		{ResultOperationFailed, "OperationFailed"},
		{ResultOperationTimeout, "OperationTimeout"},
		{ResultOperationNotSupported, "OperationNotSupported"},
		{ResultInvalidData, "InvalidData"},
		{ResultInsufficientMemory, "InsufficientMemory"},
		{Result(42), "Result(42)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.String())
		})
	}
}

func TestResultOf_RoundTrip(t *testing.T) {
	for _, r := range []Result{
		ResultOK,
		ResultOperationFailed,
		ResultOperationTimeout,
		ResultOperationNotSupported,
		ResultInvalidData,
		ResultInsufficientMemory,
	} {
		assert.Equal(t, r, ResultOf(r.Err()), r.String())
	}
}

func TestResultOf_WrappedErrors(t *testing.T) {
	assert.Equal(t, ResultOperationFailed, ResultOf(errors.New("something else")))
	assert.Equal(t, ResultOperationTimeout, ResultOf(fmt.Errorf("context: %w", ErrOperationTimeout)))

	err := newSocketError("connect", "127.0.0.1:1", ErrOperationNotSupported, syscall.EAFNOSUPPORT)
	assert.Equal(t, ResultOperationNotSupported, ResultOf(err))
	assert.Equal(t, ResultOperationNotSupported, ResultOf(fmt.Errorf("outer: %w", err)))
}

func TestSocketError(t *testing.T) {
	err := newSocketError("recv", "", ErrOperationFailed, syscall.ECONNRESET)

	assert.True(t, errors.Is(err, ErrOperationFailed))
	assert.True(t, errors.Is(err, syscall.ECONNRESET))
	assert.False(t, errors.Is(err, ErrOperationTimeout))

	var errno syscall.Errno
	assert.True(t, errors.As(err, &errno))
	assert.Equal(t, syscall.ECONNRESET, errno)

	assert.Contains(t, err.Error(), "socket recv")
	assert.Contains(t, err.Error(), ErrOperationFailed.Error())

	withAddr := newSocketError("bind", "10.0.0.1:80", ErrOperationFailed, nil)
	assert.Equal(t, "socket bind 10.0.0.1:80: operation failed", withAddr.Error())
	assert.Len(t, withAddr.Unwrap(), 1)
}
