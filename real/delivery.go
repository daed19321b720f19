package real

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/meshchat/interfaces"
	"github.com/opd-ai/meshchat/packer"
	"github.com/sirupsen/logrus"
)

// ErrNoTransport indicates delivery was attempted without a transport.
var ErrNoTransport = errors.New("no transport configured")

// Sleeper provides an abstraction over time.Sleep for deterministic testing.
type Sleeper interface {
	// Sleep pauses execution for the specified duration.
	Sleep(d time.Duration)
}

// DefaultSleeper implements Sleeper using the standard library time.Sleep.
type DefaultSleeper struct{}

// Sleep pauses execution for the specified duration using time.Sleep.
func (DefaultSleeper) Sleep(d time.Duration) {
	time.Sleep(d)
}

// PackageDelivery packs packages into pooled buffers and writes them through
// the host transport, retrying failed sends with linear backoff.
type PackageDelivery struct {
	packer    *packer.Packer
	transport interfaces.ITransport
	config    *interfaces.DeliveryConfig
	mu        sync.RWMutex
	sleeper   Sleeper

	delivered atomic.Uint64
	failed    atomic.Uint64
}

// NewPackageDelivery creates a delivery that writes through transport.
func NewPackageDelivery(p *packer.Packer, transport interfaces.ITransport, config *interfaces.DeliveryConfig) *PackageDelivery {
	if config == nil {
		config = &interfaces.DeliveryConfig{RetryAttempts: 1}
	}
	if config.RetryAttempts < 1 {
		config.RetryAttempts = 1
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewPackageDelivery",
		"retries":  config.RetryAttempts,
		"backoff":  config.RetryBackoffMs,
	}).Info("Creating package delivery over host transport")

	return &PackageDelivery{
		packer:    p,
		transport: transport,
		config:    config,
		sleeper:   DefaultSleeper{},
	}
}

// SetSleeper sets a custom Sleeper implementation (primarily for testing).
func (r *PackageDelivery) SetSleeper(s Sleeper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sleeper = s
}

// SendPackage implements IPackageDelivery.SendPackage
func (r *PackageDelivery) SendPackage(connectionID string, pkg packer.Package) error {
	unit, err := r.packer.Pack(pkg)
	if err != nil {
		r.failed.Add(1)
		return fmt.Errorf("failed to pack package for %s: %w", connectionID, err)
	}
	defer unit.Dispose()

	return r.attemptDeliveryWithRetries(connectionID, pkg.ID(), unit.RawData())
}

// attemptDeliveryWithRetries tries to deliver packed bytes, backing off between attempts.
func (r *PackageDelivery) attemptDeliveryWithRetries(connectionID string, packageID int64, data []byte) error {
	r.mu.RLock()
	transport := r.transport
	r.mu.RUnlock()

	if transport == nil {
		r.failed.Add(1)
		return ErrNoTransport
	}

	var lastErr error
	for attempt := 0; attempt < r.config.RetryAttempts; attempt++ {
		err := transport.Send(connectionID, data)
		if err == nil {
			r.delivered.Add(1)
			logDeliverySuccess(connectionID, packageID, len(data), attempt+1)
			return nil
		}
		lastErr = err
		logDeliveryRetry(connectionID, attempt+1, err)
		r.waitBeforeRetry(attempt)
	}

	return r.handleDeliveryFailure(connectionID, lastErr)
}

// logDeliverySuccess logs successful package delivery.
func logDeliverySuccess(connectionID string, packageID int64, size, attempt int) {
	logrus.WithFields(logrus.Fields{
		"function":      "PackageDelivery.SendPackage",
		"connection_id": connectionID,
		"package_id":    packageID,
		"size":          size,
		"attempt":       attempt,
	}).Debug("Package delivered via host transport")
}

// logDeliveryRetry logs a failed delivery attempt.
func logDeliveryRetry(connectionID string, attempt int, err error) {
	logrus.WithFields(logrus.Fields{
		"function":      "PackageDelivery.SendPackage",
		"connection_id": connectionID,
		"attempt":       attempt,
		"error":         err.Error(),
	}).Warn("Package delivery attempt failed, retrying")
}

// waitBeforeRetry backs off between attempts; no wait after the last one.
func (r *PackageDelivery) waitBeforeRetry(attempt int) {
	if attempt < r.config.RetryAttempts-1 {
		r.mu.RLock()
		sleeper := r.sleeper
		r.mu.RUnlock()
		sleeper.Sleep(time.Duration(r.config.RetryBackoffMs*(attempt+1)) * time.Millisecond)
	}
}

// handleDeliveryFailure logs and returns an error after all retry attempts fail.
func (r *PackageDelivery) handleDeliveryFailure(connectionID string, lastErr error) error {
	r.failed.Add(1)
	logrus.WithFields(logrus.Fields{
		"function":      "PackageDelivery.SendPackage",
		"connection_id": connectionID,
		"attempts":      r.config.RetryAttempts,
		"error":         lastErr.Error(),
	}).Error("All delivery attempts failed")

	return fmt.Errorf("failed to deliver package after %d attempts: %w", r.config.RetryAttempts, lastErr)
}

// BroadcastPackage implements IPackageDelivery.BroadcastPackage. The package is
// packed once and the same bytes are written to every target.
func (r *PackageDelivery) BroadcastPackage(connectionIDs []string, pkg packer.Package, exclude ...string) error {
	unit, err := r.packer.Pack(pkg)
	if err != nil {
		return fmt.Errorf("failed to pack broadcast package: %w", err)
	}
	defer unit.Dispose()

	excludeMap := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		excludeMap[id] = true
	}

	var failedDeliveries []string
	for _, connectionID := range connectionIDs {
		if excludeMap[connectionID] {
			continue
		}
		if err := r.attemptDeliveryWithRetries(connectionID, pkg.ID(), unit.RawData()); err != nil {
			failedDeliveries = append(failedDeliveries, connectionID)
		}
	}

	logrus.WithFields(logrus.Fields{
		"function":     "PackageDelivery.BroadcastPackage",
		"package_id":   pkg.ID(),
		"targets":      len(connectionIDs),
		"failed_count": len(failedDeliveries),
	}).Debug("Broadcast package delivery completed")

	if len(failedDeliveries) > 0 {
		return fmt.Errorf("broadcast failed for %d connections: %v", len(failedDeliveries), failedDeliveries)
	}
	return nil
}

// SetTransport replaces the transport, closing the old one first. If closing
// fails the old transport is kept and the error is returned.
func (r *PackageDelivery) SetTransport(transport interfaces.ITransport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.transport != nil {
		if err := r.transport.Close(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "PackageDelivery.SetTransport",
				"error":    err.Error(),
			}).Error("Failed to close old transport")
			return fmt.Errorf("failed to close existing transport: %w", err)
		}
	}
	r.transport = transport
	return nil
}

// IsSimulation implements IPackageDelivery.IsSimulation
func (r *PackageDelivery) IsSimulation() bool {
	return false
}

// Stats returns delivery counters.
func (r *PackageDelivery) Stats() interfaces.DeliveryStats {
	return interfaces.DeliveryStats{
		IsSimulation: false,
		Delivered:    r.delivered.Load(),
		Failed:       r.failed.Load(),
	}
}
