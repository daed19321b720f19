package meshchat

import (
	"fmt"
	"os"
	"strconv"

	"github.com/opd-ai/meshchat/interfaces"
	"github.com/opd-ai/meshchat/limits"
	"github.com/opd-ai/meshchat/packer"
	"github.com/opd-ai/meshchat/room"
	"github.com/sirupsen/logrus"
)

// Environment variables read by OptionsFromEnv.
const (
	EnvPoolMaxSize    = "MESHCHAT_POOL_MAX_SIZE"
	EnvPoolBufferSize = "MESHCHAT_POOL_BUFFER_SIZE"
	EnvRateLimit      = "MESHCHAT_RATE_LIMIT"
	EnvRateBurst      = "MESHCHAT_RATE_BURST"
)

// Options contains configuration for an Engine.
type Options struct {
	// PoolMaxSize bounds the number of idle buffers kept for reuse.
	PoolMaxSize int
	// PoolBufferSize is the capacity of buffers handed out when no size is requested.
	PoolBufferSize int

	// RateLimit is the sustained number of commands per second accepted from
	// one connection. Zero disables rate limiting.
	RateLimit float64
	// RateBurst is the number of commands a connection may send at once.
	RateBurst int

	// MeshPolicy is applied to voice rooms opened through the engine.
	MeshPolicy room.MeshPolicy

	// Codec overrides the package payload codec. Nil selects JSON.
	Codec packer.Codec

	// Delivery sends outbound packages. When nil the engine builds one with the
	// delivery factory on top of Transport.
	Delivery  interfaces.IPackageDelivery
	Transport interfaces.ITransport
}

// NewOptions creates a new default options.
func NewOptions() *Options {
	return &Options{
		PoolMaxSize:    limits.DefaultMaxPoolSize,
		PoolBufferSize: limits.DefaultBufferSize,
		RateLimit:      0, // Disabled by default
		RateBurst:      1,
		MeshPolicy:     room.MeshStrict,
	}
}

// OptionsFromEnv returns NewOptions with MESHCHAT_* overrides applied. Values
// that do not parse are logged and ignored.
func OptionsFromEnv() *Options {
	opts := NewOptions()
	envInt(EnvPoolMaxSize, &opts.PoolMaxSize)
	envInt(EnvPoolBufferSize, &opts.PoolBufferSize)
	envInt(EnvRateBurst, &opts.RateBurst)

	if raw := os.Getenv(EnvRateLimit); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			logrus.WithFields(logrus.Fields{
				"function":    "OptionsFromEnv",
				"env_var":     EnvRateLimit,
				"value":       raw,
				"using_value": opts.RateLimit,
			}).Warn("Invalid environment variable, using default")
		} else {
			opts.RateLimit = v
		}
	}
	return opts
}

func envInt(env string, target *int) {
	raw := os.Getenv(env)
	if raw == "" {
		return
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "OptionsFromEnv",
			"env_var":     env,
			"value":       raw,
			"error":       err.Error(),
			"using_value": *target,
		}).Warn("Failed to parse environment variable, using default")
		return
	}
	*target = v
}

// Validate checks the options against the package limits.
func (o *Options) Validate() error {
	if err := limits.ValidatePoolSize(o.PoolMaxSize); err != nil {
		return fmt.Errorf("pool max size: %w", err)
	}
	if err := limits.ValidateBufferSize(o.PoolBufferSize); err != nil {
		return fmt.Errorf("pool buffer size: %w", err)
	}
	if o.RateLimit < 0 {
		return fmt.Errorf("rate limit %v: %w", o.RateLimit, limits.ErrOutOfRange)
	}
	if o.RateLimit > 0 && o.RateBurst < 1 {
		return fmt.Errorf("rate burst %d: %w", o.RateBurst, limits.ErrOutOfRange)
	}
	return nil
}
