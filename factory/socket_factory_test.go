package factory

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/opd-ai/netsock/interfaces"
	"github.com/opd-ai/netsock/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvDefaultTimeout, EnvListenBacklog, EnvEnableKeepAlive} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

// TestNewSocketFactory verifies default factory creation
func TestNewSocketFactory(t *testing.T) {
	clearEnv(t)

	factory := NewSocketFactory()
	require.NotNil(t, factory)

	config := factory.GetCurrentConfig()
	require.NotNil(t, config)
	assert.Equal(t, transport.DefaultTimeout, config.DefaultTimeout)
	assert.Equal(t, 128, config.ListenBacklog)
	assert.False(t, config.EnableKeepAlive)
}

// TestEnvironmentVariableParsing verifies environment variable handling
func TestEnvironmentVariableParsing(t *testing.T) {
	tests := []struct {
		name        string
		envKey      string
		envValue    string
		checkFunc   func(*interfaces.SocketConfig) bool
		description string
	}{
		{
			name:        "valid_timeout",
			envKey:      EnvDefaultTimeout,
			envValue:    "2500",
			checkFunc:   func(c *interfaces.SocketConfig) bool { return c.DefaultTimeout == 2500*time.Millisecond },
			description: "DefaultTimeout should be 2.5s",
		},
		{
			name:        "timeout_at_minimum",
			envKey:      EnvDefaultTimeout,
			envValue:    "1",
			checkFunc:   func(c *interfaces.SocketConfig) bool { return c.DefaultTimeout == time.Millisecond },
			description: "DefaultTimeout should accept value at minimum boundary",
		},
		{
			name:        "timeout_at_maximum",
			envKey:      EnvDefaultTimeout,
			envValue:    "600000",
			checkFunc:   func(c *interfaces.SocketConfig) bool { return c.DefaultTimeout == 10*time.Minute },
			description: "DefaultTimeout should accept value at maximum boundary",
		},
		{
			name:        "timeout_zero",
			envKey:      EnvDefaultTimeout,
			envValue:    "0",
			checkFunc:   func(c *interfaces.SocketConfig) bool { return c.DefaultTimeout == transport.DefaultTimeout },
			description: "DefaultTimeout should fall back to default when below minimum",
		},
		{
			name:        "timeout_above_maximum",
			envKey:      EnvDefaultTimeout,
			envValue:    "700000",
			checkFunc:   func(c *interfaces.SocketConfig) bool { return c.DefaultTimeout == transport.DefaultTimeout },
			description: "DefaultTimeout should fall back to default when above maximum",
		},
		{
			name:        "invalid_timeout_value",
			envKey:      EnvDefaultTimeout,
			envValue:    "not_a_number",
			checkFunc:   func(c *interfaces.SocketConfig) bool { return c.DefaultTimeout == transport.DefaultTimeout },
			description: "DefaultTimeout should fall back to default on invalid value",
		},
		{
			name:        "valid_backlog",
			envKey:      EnvListenBacklog,
			envValue:    "512",
			checkFunc:   func(c *interfaces.SocketConfig) bool { return c.ListenBacklog == 512 },
			description: "ListenBacklog should be 512",
		},
		{
			name:        "backlog_negative",
			envKey:      EnvListenBacklog,
			envValue:    "-5",
			checkFunc:   func(c *interfaces.SocketConfig) bool { return c.ListenBacklog == 128 },
			description: "ListenBacklog should fall back to default when negative",
		},
		{
			name:        "backlog_above_maximum",
			envKey:      EnvListenBacklog,
			envValue:    "70000",
			checkFunc:   func(c *interfaces.SocketConfig) bool { return c.ListenBacklog == 128 },
			description: "ListenBacklog should fall back to default when above maximum",
		},
		{
			name:        "valid_keepalive_true",
			envKey:      EnvEnableKeepAlive,
			envValue:    "true",
			checkFunc:   func(c *interfaces.SocketConfig) bool { return c.EnableKeepAlive },
			description: "EnableKeepAlive should be true",
		},
		{
			name:        "invalid_keepalive_value",
			envKey:      EnvEnableKeepAlive,
			envValue:    "invalid_bool",
			checkFunc:   func(c *interfaces.SocketConfig) bool { return !c.EnableKeepAlive },
			description: "EnableKeepAlive should fall back to default (false) on invalid value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.envKey, tt.envValue)

			factory := NewSocketFactory()
			config := factory.GetCurrentConfig()

			assert.True(t, tt.checkFunc(config), tt.description)
		})
	}
}

// TestNewSocketFactoryWithConfig verifies explicit configuration and the
// fallback for invalid input
func TestNewSocketFactoryWithConfig(t *testing.T) {
	clearEnv(t)

	custom := &interfaces.SocketConfig{
		DefaultTimeout:  3 * time.Second,
		ListenBacklog:   8,
		EnableKeepAlive: true,
	}
	factory := NewSocketFactoryWithConfig(custom)
	assert.Equal(t, *custom, *factory.GetCurrentConfig())

	// the factory keeps its own copy
	custom.ListenBacklog = 99
	assert.Equal(t, 8, factory.GetCurrentConfig().ListenBacklog)

	invalid := NewSocketFactoryWithConfig(&interfaces.SocketConfig{DefaultTimeout: -1, ListenBacklog: 1})
	assert.Equal(t, transport.DefaultTimeout, invalid.GetCurrentConfig().DefaultTimeout)
}

// TestGetCurrentConfigReturnsCopy verifies config is a copy, not reference
func TestGetCurrentConfigReturnsCopy(t *testing.T) {
	factory := NewSocketFactoryForTesting()

	config := factory.GetCurrentConfig()
	config.ListenBacklog = 1

	assert.Equal(t, 16, factory.GetCurrentConfig().ListenBacklog)
}

// TestUpdateDefaultConfig verifies validation and replacement of the default
func TestUpdateDefaultConfig(t *testing.T) {
	factory := NewSocketFactoryForTesting()

	assert.Error(t, factory.UpdateDefaultConfig(nil))

	err := factory.UpdateDefaultConfig(&interfaces.SocketConfig{DefaultTimeout: 0, ListenBacklog: 4})
	assert.True(t, errors.Is(err, interfaces.ErrInvalidTimeout))
	assert.Equal(t, time.Second, factory.GetCurrentConfig().DefaultTimeout)

	require.NoError(t, factory.UpdateDefaultConfig(&interfaces.SocketConfig{
		DefaultTimeout: 250 * time.Millisecond,
		ListenBacklog:  4,
	}))
	assert.Equal(t, 250*time.Millisecond, factory.GetCurrentConfig().DefaultTimeout)
	assert.Equal(t, 4, factory.GetCurrentConfig().ListenBacklog)
}

// TestConfigOptions verifies that functional options override test defaults
func TestConfigOptions(t *testing.T) {
	factory := NewSocketFactoryForTesting(
		WithDefaultTimeout(300*time.Millisecond),
		WithListenBacklog(2),
		WithKeepAlive(true),
	)

	config := factory.GetCurrentConfig()
	assert.Equal(t, 300*time.Millisecond, config.DefaultTimeout)
	assert.Equal(t, 2, config.ListenBacklog)
	assert.True(t, config.EnableKeepAlive)
}

// TestCreateSocketsCarryDefaultTimeout verifies that created sockets receive
// the factory timeout on both directions
func TestCreateSocketsCarryDefaultTimeout(t *testing.T) {
	factory := NewSocketFactoryForTesting(WithDefaultTimeout(750*time.Millisecond), WithKeepAlive(true))

	stream, err := factory.CreateStreamSocket(transport.SocketFamilyInet)
	require.NoError(t, err)
	defer stream.Close()
	assert.Equal(t, 750*time.Millisecond, stream.ReadTimeout())
	assert.Equal(t, 750*time.Millisecond, stream.WriteTimeout())

	dgram, err := factory.CreateDatagramSocket(transport.SocketFamilyInet)
	require.NoError(t, err)
	defer dgram.Close()
	assert.Equal(t, 750*time.Millisecond, dgram.ReadTimeout())
	assert.Equal(t, 750*time.Millisecond, dgram.WriteTimeout())
}

// TestCreateStreamSocketRejectsRaw verifies the raw family has no stream variant
func TestCreateStreamSocketRejectsRaw(t *testing.T) {
	factory := NewSocketFactoryForTesting()

	s, err := factory.CreateStreamSocket(transport.SocketFamilyRaw)
	assert.Nil(t, s)
	assert.Equal(t, transport.ResultOperationNotSupported, transport.ResultOf(err))
}

// TestCreateListener verifies bind and listen through the factory
func TestCreateListener(t *testing.T) {
	factory := NewSocketFactoryForTesting()

	addr := transport.NewAddress()
	addr.SetLoopback(transport.FamilyInet)

	listener, err := factory.CreateListener(addr)
	require.NoError(t, err)
	defer listener.Close()

	local, err := listener.LocalAddress()
	require.NoError(t, err)
	assert.True(t, local.IsLoopback())
	assert.NotZero(t, local.Port())

	_, err = factory.CreateListener(transport.Address{})
	assert.Equal(t, transport.ResultOperationNotSupported, transport.ResultOf(err))
}
