package meshchat

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/opd-ai/meshchat/command"
	"github.com/opd-ai/meshchat/factory"
	"github.com/opd-ai/meshchat/interfaces"
	"github.com/opd-ai/meshchat/packer"
	"github.com/opd-ai/meshchat/pool"
	"github.com/opd-ai/meshchat/room"
	"github.com/opd-ai/meshchat/server"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ErrStarted is returned when registering after Start.
var ErrStarted = errors.New("engine already started")

// Engine ties the buffer pool, packer, dispatcher and server model together
// and turns inbound bytes into command invocations.
type Engine struct {
	options    *Options
	pool       *pool.Pool
	packer     *packer.Packer
	dispatcher *command.Dispatcher
	model      *server.Model
	delivery   interfaces.IPackageDelivery
	started    atomic.Bool
}

// New creates an Engine with the built-in packages and server commands
// registered. A nil options value selects NewOptions.
func New(options *Options) (*Engine, error) {
	if options == nil {
		options = NewOptions()
	}
	if err := options.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	bufferPool := pool.NewWithDefault(options.PoolMaxSize, options.PoolBufferSize)

	var packerOpts []packer.Option
	if options.Codec != nil {
		packerOpts = append(packerOpts, packer.WithCodec(options.Codec))
	}
	p := packer.New(bufferPool, packerOpts...)

	var dispatcherOpts []command.Option
	if options.RateLimit > 0 {
		dispatcherOpts = append(dispatcherOpts, command.WithRateLimit(rate.Limit(options.RateLimit), options.RateBurst))
	}
	d := command.NewDispatcher(dispatcherOpts...)

	delivery := options.Delivery
	if delivery == nil {
		var err error
		delivery, err = factory.NewDeliveryFactory().CreateDelivery(p, options.Transport)
		if err != nil {
			return nil, fmt.Errorf("create delivery: %w", err)
		}
	}

	e := &Engine{
		options:    options,
		pool:       bufferPool,
		packer:     p,
		dispatcher: d,
		model:      server.NewModel(),
		delivery:   delivery,
	}

	if err := server.RegisterPackages(p); err != nil {
		return nil, err
	}
	if err := server.RegisterCommands(d, e.model, delivery); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":       "New",
		"pool_max_size":  options.PoolMaxSize,
		"buffer_size":    options.PoolBufferSize,
		"rate_limit":     options.RateLimit,
		"simulation":     delivery.IsSimulation(),
		"mesh_policy":    options.MeshPolicy.String(),
		"commands_count": d.Len(),
	}).Info("Engine created")

	return e, nil
}

// Pool returns the engine's buffer pool. Transports should read inbound
// frames into buffers taken from it.
func (e *Engine) Pool() *pool.Pool { return e.pool }

// Packer returns the engine's packer.
func (e *Engine) Packer() *packer.Packer { return e.packer }

// Dispatcher returns the engine's command dispatcher.
func (e *Engine) Dispatcher() *command.Dispatcher { return e.dispatcher }

// Model returns the server-side connection and room registry.
func (e *Engine) Model() *server.Model { return e.model }

// Delivery returns the outbound package delivery.
func (e *Engine) Delivery() interfaces.IPackageDelivery { return e.delivery }

// RegisterPackage makes a package type decodable.
func (e *Engine) RegisterPackage(id int64, factory packer.Factory) error {
	if e.started.Load() {
		return ErrStarted
	}
	return e.packer.Register(id, factory)
}

// RegisterCommand adds a command handler.
func (e *Engine) RegisterCommand(cmd command.Command) error {
	if e.started.Load() {
		return ErrStarted
	}
	return e.dispatcher.Register(cmd)
}

// Start seals the dispatcher. Data may be handled before Start, but no
// registration is accepted after it.
func (e *Engine) Start() {
	if e.started.Swap(true) {
		return
	}
	e.dispatcher.Seal()
	logrus.WithFields(logrus.Fields{
		"function": "Engine.Start",
		"commands": e.dispatcher.IDs(),
	}).Info("Engine started")
}

// Started reports whether Start has been called.
func (e *Engine) Started() bool {
	return e.started.Load()
}

// OpenVoiceRoom opens a voice room using the engine's mesh policy.
func (e *Engine) OpenVoiceRoom(connID, name string, initial ...string) (*room.VoiceRoom, error) {
	return e.model.OpenVoiceRoom(connID, name, initial, room.WithMeshPolicy(e.options.MeshPolicy))
}

// Send packs pkg and delivers it to connID.
func (e *Engine) Send(connID string, pkg packer.Package) error {
	return e.delivery.SendPackage(connID, pkg)
}

// Disconnect drops everything the engine keeps for connID.
func (e *Engine) Disconnect(connID string) {
	e.model.RemoveUser(connID)
	e.dispatcher.Forget(connID)
}

// HandleServerData decodes a frame received from connID and dispatches it as
// a server command. The engine owns buf from here on: it is released to the
// pool on decode failure and after the command has run otherwise.
func (e *Engine) HandleServerData(connID string, buf *pool.Buffer) error {
	unit, err := e.unpack(connID, buf)
	if err != nil {
		return err
	}
	return e.dispatcher.Dispatch(unit.Package().ID(), command.NewServerArgs(connID, unit))
}

// HandleClientData decodes a frame received from peerID and dispatches it as
// a client command. Buffer ownership is the same as for HandleServerData.
func (e *Engine) HandleClientData(peerID string, buf *pool.Buffer) error {
	unit, err := e.unpack(peerID, buf)
	if err != nil {
		return err
	}
	return e.dispatcher.Dispatch(unit.Package().ID(), command.NewClientArgs(peerID, unit))
}

func (e *Engine) unpack(source string, buf *pool.Buffer) (*packer.Unpacked[packer.Package], error) {
	unit, err := e.packer.Unpack(buf)
	if err != nil {
		e.pool.Put(buf)
		logrus.WithFields(logrus.Fields{
			"function": "Engine.Handle",
			"source":   source,
			"error":    err.Error(),
		}).Debug("Dropping undecodable frame")
		return nil, err
	}
	return unit, nil
}
