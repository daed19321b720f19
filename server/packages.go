package server

import (
	"github.com/opd-ai/meshchat/command"
	"github.com/opd-ai/meshchat/packer"
)

// Built-in command ids. Server ids sit in 10000-19999, client ids in 20000-29999.
const (
	PingRequestID  command.ID = command.ServerRangeStart + 1
	UnregisterID   command.ID = command.ServerRangeStart + 2
	PingResponseID command.ID = command.ClientRangeStart + 1
)

// PingRequest asks the server for a PingResponse.
type PingRequest struct{}

func (*PingRequest) ID() int64 { return PingRequestID }

// PingResponse answers a PingRequest.
type PingResponse struct {
	Alive bool `json:"alive"`
}

func (*PingResponse) ID() int64 { return PingResponseID }

// Unregister tells the server the sending connection is leaving.
type Unregister struct{}

func (*Unregister) ID() int64 { return UnregisterID }

// RegisterPackages makes the built-in packages decodable by p.
func RegisterPackages(p *packer.Packer) error {
	factories := map[int64]packer.Factory{
		PingRequestID:  func() packer.Package { return &PingRequest{} },
		PingResponseID: func() packer.Package { return &PingResponse{} },
		UnregisterID:   func() packer.Package { return &Unregister{} },
	}
	for id, factory := range factories {
		if err := p.Register(id, factory); err != nil {
			return err
		}
	}
	return nil
}
