// Package testing provides in-memory package delivery for deterministic tests
// of meshchat command handlers.
//
// [SimulatedDelivery] implements interfaces.IPackageDelivery without a network.
// Packages are packed exactly as the transport-backed delivery would pack them,
// then recorded together with their wire bytes so a test can decode and assert
// on what a handler sent:
//
//	sim := testing.NewSimulatedDelivery(p, nil)
//	sim.AddConnection(connID)
//	// ... dispatch a command ...
//	recs := sim.RecordsFor(connID)
//	unit, err := p.UnpackBytes(recs[0].Data)
//
// Sends to connections that were never added, or were removed, fail and are
// logged with Success set to false.
package testing
