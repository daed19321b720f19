// Package interfaces defines the abstractions between the meshchat core and the
// host application's network transport.
//
// [IPackageDelivery] sends typed packages to connections. It packs each package
// with a packer.Packer, hands the bytes to the transport and returns the pooled
// buffer afterwards:
//
//	delivery, err := factory.NewDeliveryFactory().CreateDelivery(p, transport)
//	if err != nil {
//	    return err
//	}
//	err = delivery.SendPackage(connectionID, &server.PingResponse{})
//
// [ITransport] is implemented by the host application. The core never opens
// sockets itself; it only asks the transport to send bytes to a connection id.
//
// Two implementations exist: real.PackageDelivery, which writes through an
// ITransport with retries, and testing.SimulatedDelivery, which records
// deliveries in memory for deterministic tests.
package interfaces
