// Package real provides transport-backed package delivery for meshchat.
//
// [PackageDelivery] implements interfaces.IPackageDelivery on top of a host
// supplied interfaces.ITransport. Each package is packed into a pooled buffer,
// written to the transport and the buffer is returned to the pool once the
// write finishes, whether it succeeded or not.
//
// Failed writes are retried up to DeliveryConfig.RetryAttempts times with a
// linear backoff of RetryBackoffMs multiplied by the attempt number:
//
//	delivery := real.NewPackageDelivery(p, transport, &interfaces.DeliveryConfig{
//	    RetryAttempts:  3,
//	    RetryBackoffMs: 50,
//	})
//	err := delivery.SendPackage(connID, &server.PingResponse{})
//
// Broadcasts pack once and write the same bytes to every target, skipping the
// excluded connection ids. A broadcast returns an error naming the connections
// that could not be reached after all retries.
//
// The Sleeper used for backoff can be replaced with SetSleeper so tests do not
// wait on the wall clock.
package real
