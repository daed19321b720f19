package server

import (
	"fmt"

	"github.com/opd-ai/meshchat/command"
	"github.com/opd-ai/meshchat/interfaces"
	"github.com/sirupsen/logrus"
)

// RegisterCommands registers the built-in server commands on d.
//
// A ping request is answered with a PingResponse sent through delivery to the
// requesting connection. An unregister removes the connection's user from m
// and drops any per-connection dispatcher state.
func RegisterCommands(d *command.Dispatcher, m *Model, delivery interfaces.IPackageDelivery) error {
	if m == nil || delivery == nil {
		return fmt.Errorf("register server commands: model and delivery are required")
	}

	ping := command.NewServerCommand(PingRequestID, func(args *command.ServerArgs) error {
		return delivery.SendPackage(args.ConnectionID, &PingResponse{Alive: true})
	})

	unregister := command.NewServerCommand(UnregisterID, func(args *command.ServerArgs) error {
		if !m.RemoveUser(args.ConnectionID) {
			logrus.WithFields(logrus.Fields{
				"function":      "UnregisterCommand",
				"connection_id": args.ConnectionID,
			}).Debug("Unregister for unknown connection")
		}
		d.Forget(args.ConnectionID)
		return nil
	})

	for _, cmd := range []command.Command{ping, unregister} {
		if err := d.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}

// RegisterClientCommands registers the built-in client commands on d. onPong
// is called with the peer connection id for every PingResponse received.
func RegisterClientCommands(d *command.Dispatcher, onPong func(peerConnectionID string)) error {
	pong := command.NewClientCommand(PingResponseID, func(args *command.ClientArgs) error {
		if onPong != nil {
			onPong(args.PeerConnectionID)
		}
		return nil
	})
	return d.Register(pong)
}
