package factory

import (
	"errors"
	"os"
	"strconv"
	"sync"

	"github.com/opd-ai/meshchat/interfaces"
	"github.com/opd-ai/meshchat/packer"
	"github.com/opd-ai/meshchat/real"
	"github.com/opd-ai/meshchat/testing"
	"github.com/sirupsen/logrus"
)

// Validation bounds for environment overrides.
const (
	// MinRetryAttempts is the minimum allowed retry attempts.
	MinRetryAttempts = 1
	// MaxRetryAttempts is the maximum allowed retry attempts.
	MaxRetryAttempts = 100
	// MinRetryBackoffMs is the minimum allowed backoff in milliseconds.
	MinRetryBackoffMs = 0
	// MaxRetryBackoffMs is the maximum allowed backoff in milliseconds.
	MaxRetryBackoffMs = 60000
)

// Environment variables read by NewDeliveryFactory.
const (
	EnvUseSimulation  = "MESHCHAT_USE_SIMULATION"
	EnvRetryAttempts  = "MESHCHAT_RETRY_ATTEMPTS"
	EnvRetryBackoffMs = "MESHCHAT_RETRY_BACKOFF_MS"
)

// ErrTransportRequired is returned when transport-backed delivery is requested without a transport.
var ErrTransportRequired = errors.New("transport is required for transport-backed delivery")

// DeliveryFactory creates package delivery implementations based on configuration.
// It is safe for concurrent use.
type DeliveryFactory struct {
	mu            sync.RWMutex
	defaultConfig *interfaces.DeliveryConfig
}

// TestConfigOption is a functional option for customizing test simulation configuration.
type TestConfigOption func(*interfaces.DeliveryConfig)

// NewDeliveryFactory creates a factory with defaults and MESHCHAT_* overrides applied.
func NewDeliveryFactory() *DeliveryFactory {
	config := &interfaces.DeliveryConfig{
		UseSimulation:  false,
		RetryAttempts:  3,
		RetryBackoffMs: 50,
	}
	parseSimulationSetting(config)
	parseIntSetting(EnvRetryAttempts, &config.RetryAttempts, MinRetryAttempts, MaxRetryAttempts)
	parseIntSetting(EnvRetryBackoffMs, &config.RetryBackoffMs, MinRetryBackoffMs, MaxRetryBackoffMs)

	logrus.WithFields(logrus.Fields{
		"function":       "NewDeliveryFactory",
		"use_simulation": config.UseSimulation,
		"retry_attempts": config.RetryAttempts,
		"retry_backoff":  config.RetryBackoffMs,
	}).Info("Created package delivery factory with configuration")

	return &DeliveryFactory{defaultConfig: config}
}

func parseSimulationSetting(config *interfaces.DeliveryConfig) {
	raw := os.Getenv(EnvUseSimulation)
	if raw == "" {
		return
	}
	useSim, err := strconv.ParseBool(raw)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "parseSimulationSetting",
			"env_var":     EnvUseSimulation,
			"value":       raw,
			"error":       err.Error(),
			"using_value": config.UseSimulation,
		}).Warn("Failed to parse environment variable, using default")
		return
	}
	config.UseSimulation = useSim
}

// parseIntSetting overrides *target from env when the value parses and lies in [lo, hi].
func parseIntSetting(env string, target *int, lo, hi int) {
	raw := os.Getenv(env)
	if raw == "" {
		return
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "parseIntSetting",
			"env_var":     env,
			"value":       raw,
			"error":       err.Error(),
			"using_value": *target,
		}).Warn("Failed to parse environment variable, using default")
		return
	}
	if v < lo || v > hi {
		logrus.WithFields(logrus.Fields{
			"function":    "parseIntSetting",
			"env_var":     env,
			"value":       v,
			"min":         lo,
			"max":         hi,
			"using_value": *target,
		}).Warn("Environment variable out of bounds, using default")
		return
	}
	*target = v
}

// CreateDelivery creates a delivery using the factory's current configuration.
func (f *DeliveryFactory) CreateDelivery(p *packer.Packer, transport interfaces.ITransport) (interfaces.IPackageDelivery, error) {
	return f.CreateDeliveryWithConfig(p, transport, f.GetCurrentConfig())
}

// CreateDeliveryWithConfig creates a delivery with a custom configuration.
// A nil config uses the factory default.
func (f *DeliveryFactory) CreateDeliveryWithConfig(p *packer.Packer, transport interfaces.ITransport, config *interfaces.DeliveryConfig) (interfaces.IPackageDelivery, error) {
	if config == nil {
		config = f.GetCurrentConfig()
	}

	if config.UseSimulation {
		logrus.WithFields(logrus.Fields{
			"function": "CreateDeliveryWithConfig",
			"type":     "simulation",
		}).Info("Creating simulated package delivery")
		return testing.NewSimulatedDelivery(p, config), nil
	}

	if transport == nil {
		return nil, ErrTransportRequired
	}

	logrus.WithFields(logrus.Fields{
		"function": "CreateDeliveryWithConfig",
		"type":     "transport",
	}).Info("Creating transport-backed package delivery")
	return real.NewPackageDelivery(p, transport, config), nil
}

// WithRetryAttempts sets custom retry attempts for the test configuration.
func WithRetryAttempts(retries int) TestConfigOption {
	return func(c *interfaces.DeliveryConfig) {
		c.RetryAttempts = retries
	}
}

// CreateSimulationForTesting creates a simulation with a single attempt and no backoff.
func (f *DeliveryFactory) CreateSimulationForTesting(p *packer.Packer, opts ...TestConfigOption) *testing.SimulatedDelivery {
	config := &interfaces.DeliveryConfig{
		UseSimulation: true,
		RetryAttempts: 1,
	}
	for _, opt := range opts {
		opt(config)
	}
	return testing.NewSimulatedDelivery(p, config)
}

// SwitchToSimulation switches the configuration to use simulation
func (f *DeliveryFactory) SwitchToSimulation() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defaultConfig.UseSimulation = true
	logrus.WithField("function", "SwitchToSimulation").Info("Factory switched to simulation mode")
}

// SwitchToReal switches the configuration to use the host transport
func (f *DeliveryFactory) SwitchToReal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defaultConfig.UseSimulation = false
	logrus.WithField("function", "SwitchToReal").Info("Factory switched to transport mode")
}

// GetCurrentConfig returns a copy of the current default configuration
func (f *DeliveryFactory) GetCurrentConfig() *interfaces.DeliveryConfig {
	f.mu.RLock()
	defer f.mu.RUnlock()
	cfg := *f.defaultConfig
	return &cfg
}

// IsUsingSimulation returns true if the factory is configured for simulation
func (f *DeliveryFactory) IsUsingSimulation() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.defaultConfig.UseSimulation
}

// UpdateConfig replaces the factory's default configuration.
func (f *DeliveryFactory) UpdateConfig(config *interfaces.DeliveryConfig) error {
	if config == nil {
		return errors.New("config cannot be nil")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg := *config
	f.defaultConfig = &cfg
	return nil
}
