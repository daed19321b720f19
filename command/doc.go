// Package command routes unpacked packages to typed command handlers.
//
// A Command is either a server command, run with *ServerArgs carrying the
// originating connection id, or a client command, run with *ClientArgs carrying
// the peer connection id. NewServerCommand and NewClientCommand wrap a typed
// function and reject arguments of the other variant with ArgsTypeMismatchError.
//
// Example:
//
//	d := command.NewDispatcher()
//	d.MustRegister(command.NewServerCommand(PingRequestID, func(args *command.ServerArgs) error {
//	    return sender.SendMessage(args.ConnectionID, PingResponseID, &PingResponse{})
//	}))
//	d.Seal()
//
//	err := d.Dispatch(unit.Package().ID(), command.NewServerArgs(connID, unit))
//
// # Ownership
//
// Dispatch owns the args it is given. It disposes them, and with them the
// unpacked package and its pooled buffer, exactly once after the handler
// returns, on every path including unknown ids, mismatches and panics.
// Handlers that need the package afterwards must Detach a copy.
//
// # Registry
//
// Registration is a startup concern. A second command for an id fails with
// DuplicateCommandError. Seal freezes the registry, after which lookups take no
// locks and further registration fails with ErrRegistrySealed.
package command
