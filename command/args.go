package command

import (
	"fmt"

	"github.com/opd-ai/meshchat/packer"
)

// ID identifies a command. By convention server commands and client commands
// use disjoint ranges; the dispatcher does not enforce them.
type ID = int64

// Conventional command id ranges.
const (
	ServerRangeStart ID = 10000
	ServerRangeEnd   ID = 19999
	ClientRangeStart ID = 20000
	ClientRangeEnd   ID = 29999
)

// IsServerID reports whether id lies in the conventional server range.
func IsServerID(id ID) bool {
	return id >= ServerRangeStart && id <= ServerRangeEnd
}

// IsClientID reports whether id lies in the conventional client range.
func IsClientID(id ID) bool {
	return id >= ClientRangeStart && id <= ClientRangeEnd
}

// Kind is the capability variant of a command and of its arguments.
type Kind uint8

const (
	// KindServer commands run on the server for a client connection.
	KindServer Kind = iota
	// KindClient commands run on a client for a peer connection.
	KindClient
)

func (k Kind) String() string {
	switch k {
	case KindServer:
		return "server"
	case KindClient:
		return "client"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Args is the context a command runs with.
type Args interface {
	Kind() Kind
	// Source is the connection the package arrived on.
	Source() string
	Unpacked() *packer.Unpacked[packer.Package]
	Dispose()
}

// BaseArgs carries the unpacked package shared by both argument variants.
type BaseArgs struct {
	unpacked *packer.Unpacked[packer.Package]
}

// Unpacked returns the unpacked package.
func (a *BaseArgs) Unpacked() *packer.Unpacked[packer.Package] {
	if a == nil {
		return nil
	}
	return a.unpacked
}

// Package returns the decoded package, or nil when there is none.
func (a *BaseArgs) Package() packer.Package {
	if a == nil || a.unpacked == nil {
		return nil
	}
	return a.unpacked.Package()
}

// Dispose releases the unpacked package. Safe to call more than once.
func (a *BaseArgs) Dispose() {
	if a != nil && a.unpacked != nil {
		a.unpacked.Dispose()
	}
}

// ServerArgs are passed to server commands.
type ServerArgs struct {
	BaseArgs
	ConnectionID string
}

// NewServerArgs wraps an unpacked package received on connectionID.
func NewServerArgs(connectionID string, unpacked *packer.Unpacked[packer.Package]) *ServerArgs {
	return &ServerArgs{BaseArgs: BaseArgs{unpacked: unpacked}, ConnectionID: connectionID}
}

// Kind returns KindServer.
func (*ServerArgs) Kind() Kind { return KindServer }

// Source returns the connection id.
func (a *ServerArgs) Source() string { return a.ConnectionID }

// ClientArgs are passed to client commands.
type ClientArgs struct {
	BaseArgs
	PeerConnectionID string
}

// NewClientArgs wraps an unpacked package received from peerConnectionID.
func NewClientArgs(peerConnectionID string, unpacked *packer.Unpacked[packer.Package]) *ClientArgs {
	return &ClientArgs{BaseArgs: BaseArgs{unpacked: unpacked}, PeerConnectionID: peerConnectionID}
}

// Kind returns KindClient.
func (*ClientArgs) Kind() Kind { return KindClient }

// Source returns the peer connection id.
func (a *ClientArgs) Source() string { return a.PeerConnectionID }

// isNilArgs reports a nil interface or a nil pointer of a known variant.
func isNilArgs(args Args) bool {
	switch a := args.(type) {
	case nil:
		return true
	case *ServerArgs:
		return a == nil
	case *ClientArgs:
		return a == nil
	}
	return false
}

func describeArgs(args Args) string {
	if isNilArgs(args) {
		return "nil"
	}
	return args.Kind().String()
}
