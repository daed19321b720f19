// Package server holds the server-side connection registry and the built-in
// commands every meshchat server answers.
//
// [Model] maps connection ids to nicks and names to open rooms. Connection ids
// are random UUIDs handed out by Connect. When a user leaves, RemoveUser takes
// them out of every room and closes rooms nobody is left in.
//
// RegisterCommands wires the ping and unregister commands into a dispatcher.
// Replies leave through an interfaces.IPackageDelivery so the package can be
// tested against the in-memory simulation.
package server
