package testing

import (
	"fmt"
	"sync"
	"time"

	"github.com/opd-ai/meshchat/interfaces"
	"github.com/opd-ai/meshchat/packer"
	"github.com/sirupsen/logrus"
)

// SimulatedDelivery implements in-memory package delivery for testing
type SimulatedDelivery struct {
	packer      *packer.Packer
	deliveryLog []DeliveryRecord
	connections map[string]bool
	config      *interfaces.DeliveryConfig
	mu          sync.RWMutex
}

// DeliveryRecord represents a package delivery event for testing verification
type DeliveryRecord struct {
	ConnectionID string
	PackageID    int64
	Size         int
	Data         []byte
	Timestamp    int64
	Success      bool
	Error        error
}

// NewSimulatedDelivery creates a new simulation implementation for testing
func NewSimulatedDelivery(p *packer.Packer, config *interfaces.DeliveryConfig) *SimulatedDelivery {
	if config == nil {
		config = &interfaces.DeliveryConfig{UseSimulation: true, RetryAttempts: 1}
	}
	logrus.WithFields(logrus.Fields{
		"function": "NewSimulatedDelivery",
		"retries":  config.RetryAttempts,
	}).Info("Creating simulated package delivery for testing")

	return &SimulatedDelivery{
		packer:      p,
		deliveryLog: make([]DeliveryRecord, 0),
		connections: make(map[string]bool),
		config:      config,
	}
}

// AddConnection registers a connection id as reachable.
func (s *SimulatedDelivery) AddConnection(connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections[connectionID] = true
}

// RemoveConnection makes a connection id unreachable.
func (s *SimulatedDelivery) RemoveConnection(connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.connections, connectionID)
}

// SendPackage implements IPackageDelivery.SendPackage with simulation
func (s *SimulatedDelivery) SendPackage(connectionID string, pkg packer.Package) error {
	unit, err := s.packer.Pack(pkg)
	if err != nil {
		return fmt.Errorf("failed to pack package for %s: %w", connectionID, err)
	}
	raw := unit.Detach().RawData()
	unit.Dispose()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record(connectionID, pkg.ID(), raw)
}

// record appends a delivery record holding its own copy of raw. Caller must hold s.mu.
func (s *SimulatedDelivery) record(connectionID string, packageID int64, raw []byte) error {
	data := make([]byte, len(raw))
	copy(data, raw)
	rec := DeliveryRecord{
		ConnectionID: connectionID,
		PackageID:    packageID,
		Size:         len(data),
		Data:         data,
		Timestamp:    time.Now().UnixNano(),
		Success:      true,
	}

	if !s.connections[connectionID] {
		rec.Success = false
		rec.Error = fmt.Errorf("connection %s not found in simulation", connectionID)
		s.deliveryLog = append(s.deliveryLog, rec)

		logrus.WithFields(logrus.Fields{
			"function":      "SimulatedDelivery.SendPackage",
			"connection_id": connectionID,
			"error":         rec.Error.Error(),
		}).Debug("Connection not found in simulation")
		return rec.Error
	}

	s.deliveryLog = append(s.deliveryLog, rec)
	logrus.WithFields(logrus.Fields{
		"function":      "SimulatedDelivery.SendPackage",
		"connection_id": connectionID,
		"package_id":    packageID,
		"size":          len(raw),
	}).Debug("Simulated package delivery")
	return nil
}

// BroadcastPackage implements IPackageDelivery.BroadcastPackage with simulation
func (s *SimulatedDelivery) BroadcastPackage(connectionIDs []string, pkg packer.Package, exclude ...string) error {
	unit, err := s.packer.Pack(pkg)
	if err != nil {
		return fmt.Errorf("failed to pack broadcast package: %w", err)
	}
	raw := unit.Detach().RawData()
	unit.Dispose()

	excludeMap := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		excludeMap[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	failed := 0
	for _, connectionID := range connectionIDs {
		if excludeMap[connectionID] {
			continue
		}
		if err := s.record(connectionID, pkg.ID(), raw); err != nil {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("broadcast failed for %d connections", failed)
	}
	return nil
}

// IsSimulation implements IPackageDelivery.IsSimulation
func (s *SimulatedDelivery) IsSimulation() bool {
	return true
}

// Records returns a copy of the delivery log.
func (s *SimulatedDelivery) Records() []DeliveryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]DeliveryRecord, len(s.deliveryLog))
	copy(out, s.deliveryLog)
	return out
}

// RecordsFor returns the successful deliveries to one connection.
func (s *SimulatedDelivery) RecordsFor(connectionID string) []DeliveryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []DeliveryRecord
	for _, rec := range s.deliveryLog {
		if rec.ConnectionID == connectionID && rec.Success {
			out = append(out, rec)
		}
	}
	return out
}

// ClearLog clears the delivery log for fresh testing
func (s *SimulatedDelivery) ClearLog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveryLog = s.deliveryLog[:0]
}

// Stats returns delivery counters derived from the log.
func (s *SimulatedDelivery) Stats() interfaces.DeliveryStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := interfaces.DeliveryStats{IsSimulation: true}
	for _, rec := range s.deliveryLog {
		if rec.Success {
			stats.Delivered++
		} else {
			stats.Failed++
		}
	}
	return stats
}
