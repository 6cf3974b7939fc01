//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package factory

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/opd-ai/netsock/interfaces"
	"github.com/opd-ai/netsock/transport"
	"github.com/sirupsen/logrus"
)

// Validation constants for configuration bounds checking.
const (
	// MinDefaultTimeout is the minimum allowed default timeout in milliseconds.
	MinDefaultTimeout = 1
	// MaxDefaultTimeout is the maximum allowed default timeout in milliseconds (10 minutes).
	MaxDefaultTimeout = 600000
	// MinListenBacklog is the minimum allowed listen backlog.
	MinListenBacklog = 1
	// MaxListenBacklog is the maximum allowed listen backlog.
	MaxListenBacklog = 65535
)

// Environment variables read by NewSocketFactory.
const (
	EnvDefaultTimeout  = "NETSOCK_DEFAULT_TIMEOUT"
	EnvListenBacklog   = "NETSOCK_LISTEN_BACKLOG"
	EnvEnableKeepAlive = "NETSOCK_ENABLE_KEEPALIVE"
)

// SocketFactory creates sockets carrying its default configuration.
// The factory is safe for concurrent use; the sockets it returns are not.
type SocketFactory struct {
	mu            sync.RWMutex
	defaultConfig *interfaces.SocketConfig
}

// ConfigOption is a functional option for customizing a test configuration.
type ConfigOption func(*interfaces.SocketConfig)

// NewSocketFactory creates a new factory with default configuration and
// NETSOCK_* environment overrides applied.
func NewSocketFactory() *SocketFactory {
	defaultConfig := createDefaultConfig()
	applyEnvironmentOverrides(defaultConfig)
	logConfigurationInfo(defaultConfig)

	return &SocketFactory{
		defaultConfig: defaultConfig,
	}
}

// NewSocketFactoryWithConfig creates a factory using a copy of config. A nil
// or invalid config falls back to the defaults.
func NewSocketFactoryWithConfig(config *interfaces.SocketConfig) *SocketFactory {
	if config == nil {
		return NewSocketFactory()
	}
	if err := config.Validate(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "NewSocketFactoryWithConfig",
			"error":    err.Error(),
		}).Warn("Invalid socket configuration, using defaults")
		return NewSocketFactory()
	}

	cfg := *config
	logConfigurationInfo(&cfg)
	return &SocketFactory{defaultConfig: &cfg}
}

// createDefaultConfig initializes the default socket configuration.
//
// Default Value Rationale:
//   - DefaultTimeout: 10s - long enough for a slow peer, short enough that a dead one is noticed
//   - ListenBacklog: 128 - the traditional SOMAXCONN value
//   - EnableKeepAlive: false - keep-alive probes are opt-in
func createDefaultConfig() *interfaces.SocketConfig {
	return &interfaces.SocketConfig{
		DefaultTimeout:  transport.DefaultTimeout,
		ListenBacklog:   128,
		EnableKeepAlive: false,
	}
}

// applyEnvironmentOverrides updates configuration from NETSOCK_* environment variables.
func applyEnvironmentOverrides(config *interfaces.SocketConfig) {
	parseTimeoutSetting(config)
	parseBacklogSetting(config)
	parseKeepAliveSetting(config)
}

// parseTimeoutSetting updates DefaultTimeout from NETSOCK_DEFAULT_TIMEOUT (milliseconds).
// Values outside [MinDefaultTimeout, MaxDefaultTimeout] are logged and ignored.
func parseTimeoutSetting(config *interfaces.SocketConfig) {
	if timeoutStr := os.Getenv(EnvDefaultTimeout); timeoutStr != "" {
		timeout, err := strconv.Atoi(timeoutStr)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function":    "parseTimeoutSetting",
				"env_var":     EnvDefaultTimeout,
				"value":       timeoutStr,
				"error":       err.Error(),
				"using_value": config.DefaultTimeout,
			}).Warn("Failed to parse NETSOCK_DEFAULT_TIMEOUT environment variable, using default")
			return
		}
		if timeout < MinDefaultTimeout || timeout > MaxDefaultTimeout {
			logrus.WithFields(logrus.Fields{
				"function":    "parseTimeoutSetting",
				"env_var":     EnvDefaultTimeout,
				"value":       timeout,
				"min":         MinDefaultTimeout,
				"max":         MaxDefaultTimeout,
				"using_value": config.DefaultTimeout,
			}).Warn("NETSOCK_DEFAULT_TIMEOUT value out of bounds, using default")
			return
		}
		config.DefaultTimeout = time.Duration(timeout) * time.Millisecond
	}
}

// parseBacklogSetting updates ListenBacklog from NETSOCK_LISTEN_BACKLOG.
func parseBacklogSetting(config *interfaces.SocketConfig) {
	if backlogStr := os.Getenv(EnvListenBacklog); backlogStr != "" {
		backlog, err := strconv.Atoi(backlogStr)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function":    "parseBacklogSetting",
				"env_var":     EnvListenBacklog,
				"value":       backlogStr,
				"error":       err.Error(),
				"using_value": config.ListenBacklog,
			}).Warn("Failed to parse NETSOCK_LISTEN_BACKLOG environment variable, using default")
			return
		}
		if backlog < MinListenBacklog || backlog > MaxListenBacklog {
			logrus.WithFields(logrus.Fields{
				"function":    "parseBacklogSetting",
				"env_var":     EnvListenBacklog,
				"value":       backlog,
				"min":         MinListenBacklog,
				"max":         MaxListenBacklog,
				"using_value": config.ListenBacklog,
			}).Warn("NETSOCK_LISTEN_BACKLOG value out of bounds, using default")
			return
		}
		config.ListenBacklog = backlog
	}
}

// parseKeepAliveSetting updates EnableKeepAlive from NETSOCK_ENABLE_KEEPALIVE.
func parseKeepAliveSetting(config *interfaces.SocketConfig) {
	if keepAliveStr := os.Getenv(EnvEnableKeepAlive); keepAliveStr != "" {
		keepAlive, err := strconv.ParseBool(keepAliveStr)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function":    "parseKeepAliveSetting",
				"env_var":     EnvEnableKeepAlive,
				"value":       keepAliveStr,
				"error":       err.Error(),
				"using_value": config.EnableKeepAlive,
			}).Warn("Failed to parse NETSOCK_ENABLE_KEEPALIVE environment variable, using default")
			return
		}
		config.EnableKeepAlive = keepAlive
	}
}

// logConfigurationInfo logs the final configuration settings for debugging purposes.
func logConfigurationInfo(config *interfaces.SocketConfig) {
	logrus.WithFields(logrus.Fields{
		"function":          "NewSocketFactory",
		"default_timeout":   config.DefaultTimeout,
		"listen_backlog":    config.ListenBacklog,
		"enable_keep_alive": config.EnableKeepAlive,
	}).Info("Created socket factory with configuration")
}

func (f *SocketFactory) snapshot() interfaces.SocketConfig {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return *f.defaultConfig
}

// CreateStreamSocket opens a stream socket for family. SocketFamilyRaw is
// rejected with transport.ErrOperationNotSupported.
func (f *SocketFactory) CreateStreamSocket(family transport.SocketFamily) (*transport.StreamSocket, error) {
	config := f.snapshot()

	s, err := transport.OpenStreamSocket(family, config.DefaultTimeout)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "CreateStreamSocket",
			"family":   family.String(),
			"error":    err.Error(),
		}).Debug("Failed to create stream socket")
		return nil, err
	}

	if config.EnableKeepAlive {
		if err := s.EnableKeepAlive(true); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	return s, nil
}

// CreateDatagramSocket opens a datagram socket for family. SocketFamilyRaw
// opens a link-layer raw socket where the platform supports one.
func (f *SocketFactory) CreateDatagramSocket(family transport.SocketFamily) (*transport.DatagramSocket, error) {
	config := f.snapshot()

	s, err := transport.OpenDatagramSocket(family, config.DefaultTimeout)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "CreateDatagramSocket",
			"family":   family.String(),
			"error":    err.Error(),
		}).Debug("Failed to create datagram socket")
		return nil, err
	}
	return s, nil
}

// CreateListener opens a stream socket bound to addr and listening with the
// configured backlog.
func (f *SocketFactory) CreateListener(addr transport.Address) (*transport.StreamSocket, error) {
	var family transport.SocketFamily
	switch addr.Family() {
	case transport.FamilyInet:
		family = transport.SocketFamilyInet
	case transport.FamilyInet6:
		family = transport.SocketFamilyInet6
	default:
		return nil, fmt.Errorf("create listener for %s: %w", addr, transport.ErrOperationNotSupported)
	}

	s, err := f.CreateStreamSocket(family)
	if err != nil {
		return nil, err
	}
	if err := s.Bind(addr); err != nil {
		_ = s.Close()
		return nil, err
	}
	if err := s.Listen(f.snapshot().ListenBacklog); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// WithDefaultTimeout sets a custom default timeout for the test configuration.
func WithDefaultTimeout(timeout time.Duration) ConfigOption {
	return func(c *interfaces.SocketConfig) {
		c.DefaultTimeout = timeout
	}
}

// WithListenBacklog sets a custom listen backlog for the test configuration.
func WithListenBacklog(backlog int) ConfigOption {
	return func(c *interfaces.SocketConfig) {
		c.ListenBacklog = backlog
	}
}

// WithKeepAlive enables or disables keep-alive for the test configuration.
func WithKeepAlive(enabled bool) ConfigOption {
	return func(c *interfaces.SocketConfig) {
		c.EnableKeepAlive = enabled
	}
}

// NewSocketFactoryForTesting creates a factory with test-optimized defaults
// and no environment overrides: DefaultTimeout=1s, ListenBacklog=16.
func NewSocketFactoryForTesting(opts ...ConfigOption) *SocketFactory {
	testConfig := &interfaces.SocketConfig{
		DefaultTimeout:  time.Second, // Shorter timeout for testing
		ListenBacklog:   16,
		EnableKeepAlive: false,
	}

	for _, opt := range opts {
		opt(testConfig)
	}

	logrus.WithFields(logrus.Fields{
		"function":          "NewSocketFactoryForTesting",
		"default_timeout":   testConfig.DefaultTimeout,
		"listen_backlog":    testConfig.ListenBacklog,
		"enable_keep_alive": testConfig.EnableKeepAlive,
	}).Info("Creating socket factory for testing")

	return &SocketFactory{defaultConfig: testConfig}
}

// GetCurrentConfig returns a copy of the current default configuration
func (f *SocketFactory) GetCurrentConfig() *interfaces.SocketConfig {
	config := f.snapshot()
	return &config
}

// UpdateDefaultConfig validates config and makes a copy of it the default
// for sockets created afterwards. Existing sockets are unaffected.
func (f *SocketFactory) UpdateDefaultConfig(config *interfaces.SocketConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":    "UpdateDefaultConfig",
		"old_timeout": f.defaultConfig.DefaultTimeout,
		"new_timeout": config.DefaultTimeout,
		"old_backlog": f.defaultConfig.ListenBacklog,
		"new_backlog": config.ListenBacklog,
	}).Info("Updating factory configuration")

	cfg := *config
	f.defaultConfig = &cfg
	return nil
}
