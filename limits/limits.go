// Package limits provides centralized size limits for the meshchat networking core.
// This ensures consistent validation across the pool, packer and engine.
package limits

import (
	"errors"
	"fmt"
)

const (
	// HeaderSize is the size of the package envelope header: a big-endian int64 package id.
	HeaderSize = 8

	// DefaultBufferSize is the capacity used when a caller asks the pool for a buffer
	// without naming a size.
	DefaultBufferSize = 2048

	// MaxPackageSize is the absolute maximum for a packed package, header included.
	// This prevents memory exhaustion from hostile peers (1MB limit).
	MaxPackageSize = 1024 * 1024

	// DefaultMaxPoolSize is the number of idle buffers a pool retains by default.
	DefaultMaxPoolSize = 100

	// MinPoolSize is the smallest accepted pool retention bound.
	MinPoolSize = 1

	// MaxPoolSizeLimit bounds pool retention so an idle pool cannot pin unbounded memory.
	MaxPoolSizeLimit = 65536

	// MinBufferSize is the smallest accepted default buffer capacity.
	MinBufferSize = HeaderSize
)

var (
	// ErrPackageEmpty indicates an empty package was provided
	ErrPackageEmpty = errors.New("empty package")

	// ErrPackageTooLarge indicates package exceeds maximum size
	ErrPackageTooLarge = errors.New("package too large")

	// ErrOutOfRange indicates a configuration value outside its accepted bounds
	ErrOutOfRange = errors.New("value out of range")
)

// ValidatePackageSize validates packed package bytes against MaxPackageSize.
// Returns an error with context including the actual and maximum sizes.
func ValidatePackageSize(data []byte) error {
	if len(data) == 0 {
		return ErrPackageEmpty
	}
	if len(data) > MaxPackageSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrPackageTooLarge, len(data), MaxPackageSize)
	}
	return nil
}

// ValidatePoolSize validates a pool retention bound.
func ValidatePoolSize(n int) error {
	if n < MinPoolSize || n > MaxPoolSizeLimit {
		return fmt.Errorf("%w: pool size %d not in [%d, %d]", ErrOutOfRange, n, MinPoolSize, MaxPoolSizeLimit)
	}
	return nil
}

// ValidateBufferSize validates a default buffer capacity.
func ValidateBufferSize(n int) error {
	if n < MinBufferSize || n > MaxPackageSize {
		return fmt.Errorf("%w: buffer size %d not in [%d, %d]", ErrOutOfRange, n, MinBufferSize, MaxPackageSize)
	}
	return nil
}
