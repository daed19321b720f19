// Package factory creates package delivery implementations for meshchat.
//
// The factory chooses between the transport-backed delivery in package real
// and the in-memory simulation in package testing, so command handlers never
// depend on a concrete implementation.
//
// # Configuration
//
// Defaults are three attempts with a 50ms base backoff, using the host
// transport. These environment variables override them:
//   - MESHCHAT_USE_SIMULATION: "true" or "false"
//   - MESHCHAT_RETRY_ATTEMPTS: integer in [1, 100]
//   - MESHCHAT_RETRY_BACKOFF_MS: integer in [0, 60000]
//
// Values that fail to parse or fall outside their bounds are logged and
// ignored.
//
//	f := factory.NewDeliveryFactory()
//	delivery, err := f.CreateDelivery(p, transport)
package factory
