package interfaces

import "github.com/opd-ai/meshchat/packer"

// IPackageDelivery defines the interface for sending packages to connections.
// This abstraction allows switching between simulation and real network implementations.
type IPackageDelivery interface {
	// SendPackage packs pkg and delivers it to the given connection
	SendPackage(connectionID string, pkg packer.Package) error

	// BroadcastPackage delivers pkg to every listed connection, skipping excluded ones
	BroadcastPackage(connectionIDs []string, pkg packer.Package, exclude ...string) error

	// IsSimulation returns true if this is a simulation implementation
	IsSimulation() bool
}

// ITransport is the byte-level transport owned by the host application.
// Framing, encryption and connection lifecycle live behind it.
type ITransport interface {
	// Send writes packed bytes to a connection
	Send(connectionID string, data []byte) error

	// Close shuts down the transport
	Close() error

	// IsConnected returns true if the transport can currently send
	IsConnected() bool
}

// DeliveryConfig holds configuration for package delivery implementations
type DeliveryConfig struct {
	// UseSimulation determines whether to use simulation or real network
	UseSimulation bool

	// RetryAttempts sets the number of attempts for a failed delivery
	RetryAttempts int

	// RetryBackoffMs is the base delay between attempts in milliseconds
	RetryBackoffMs int
}

// DeliveryStats is a snapshot of delivery counters.
type DeliveryStats struct {
	IsSimulation bool
	Delivered    uint64
	Failed       uint64
}
