package transport

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerHelperFields(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()
	level := logrus.GetLevel()
	logrus.SetLevel(logrus.DebugLevel)
	defer logrus.SetLevel(level)

	err := fmt.Errorf("bind: %w", syscall.EADDRINUSE)
	NewLogger("socket.bind").
		WithFD(7).
		WithField("address", "127.0.0.1:9000").
		WithError(err, "bind").
		Debug("Bind rejected")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Equal(t, "Bind rejected", entry.Message)
	assert.Equal(t, "socket.bind", entry.Data["function"])
	assert.Equal(t, "transport", entry.Data["package"])
	assert.Equal(t, 7, entry.Data["fd"])
	assert.Equal(t, "bind", entry.Data["operation"])
	assert.Equal(t, uintptr(syscall.EADDRINUSE), entry.Data["errno"])
}

func TestLoggerHelperNoErrno(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	NewLogger("f").WithError(errors.New("plain"), "op").Error("failed")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.NotContains(t, entry.Data, "errno")
}

func TestInvariantViolationLogsBeforePanic(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	assert.Panics(t, func() {
		invariantViolation("Address.check", "bad tag %d", 9)
	})

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Contains(t, entry.Message, "bad tag 9")
	assert.Contains(t, entry.Data, "caller")
}
