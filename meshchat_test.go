package meshchat

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/opd-ai/meshchat/command"
	"github.com/opd-ai/meshchat/limits"
	"github.com/opd-ai/meshchat/packer"
	"github.com/opd-ai/meshchat/pool"
	"github.com/opd-ai/meshchat/room"
	"github.com/opd-ai/meshchat/server"
	simulation "github.com/opd-ai/meshchat/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shoutID int64 = 10100

type shout struct {
	Text string `json:"text"`
}

func (*shout) ID() int64 { return shoutID }

func newTestEngine(t *testing.T, mutate func(*Options)) (*Engine, *simulation.SimulatedDelivery) {
	t.Helper()
	opts := NewOptions()
	opts.PoolMaxSize = 8
	if mutate != nil {
		mutate(opts)
	}
	var sim *simulation.SimulatedDelivery
	if opts.Delivery == nil {
		p := packer.New(pool.New(8))
		require.NoError(t, server.RegisterPackages(p))
		sim = simulation.NewSimulatedDelivery(p, nil)
		opts.Delivery = sim
	}
	e, err := New(opts)
	require.NoError(t, err)
	return e, sim
}

// frame packs pkg into a buffer taken from the engine's pool, the way a
// transport would hand a received frame over.
func frame(t *testing.T, e *Engine, pkg packer.Package) *pool.Buffer {
	t.Helper()
	unit, err := e.Packer().Pack(pkg)
	require.NoError(t, err)
	data := unit.Detach().RawData()
	unit.Dispose()

	buf := e.Pool().Get(len(data))
	_, err = buf.Write(data)
	require.NoError(t, err)
	return buf
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	opts := NewOptions()
	opts.PoolMaxSize = 0
	_, err := New(opts)
	assert.ErrorIs(t, err, limits.ErrOutOfRange)

	opts = NewOptions()
	opts.PoolBufferSize = 1
	_, err = New(opts)
	assert.ErrorIs(t, err, limits.ErrOutOfRange)

	opts = NewOptions()
	opts.RateLimit = 5
	opts.RateBurst = 0
	_, err = New(opts)
	assert.ErrorIs(t, err, limits.ErrOutOfRange)
}

func TestNewWithoutTransportNeedsDelivery(t *testing.T) {
	t.Setenv("MESHCHAT_USE_SIMULATION", "false")
	_, err := New(NewOptions())
	assert.Error(t, err)

	t.Setenv("MESHCHAT_USE_SIMULATION", "true")
	e, err := New(NewOptions())
	require.NoError(t, err)
	assert.True(t, e.Delivery().IsSimulation())
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv(EnvPoolMaxSize, "32")
	t.Setenv(EnvPoolBufferSize, "4096")
	t.Setenv(EnvRateLimit, "2.5")
	t.Setenv(EnvRateBurst, "nope")

	opts := OptionsFromEnv()
	assert.Equal(t, 32, opts.PoolMaxSize)
	assert.Equal(t, 4096, opts.PoolBufferSize)
	assert.Equal(t, 2.5, opts.RateLimit)
	assert.Equal(t, 1, opts.RateBurst)

	t.Setenv(EnvRateLimit, "-1")
	assert.Equal(t, float64(0), OptionsFromEnv().RateLimit)
}

func TestHandleServerDataPing(t *testing.T) {
	e, sim := newTestEngine(t, nil)
	e.Start()

	conn, err := e.Model().Connect("alice")
	require.NoError(t, err)
	sim.AddConnection(conn)

	require.NoError(t, e.HandleServerData(conn, frame(t, e, &server.PingRequest{})))

	recs := sim.RecordsFor(conn)
	require.Len(t, recs, 1)
	assert.Equal(t, server.PingResponseID, recs[0].PackageID)
	assert.Equal(t, 2, e.Pool().Len(), "packing and inbound buffers should both be idle")
}

func TestHandleServerDataCustomCommand(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	require.NoError(t, e.RegisterPackage(shoutID, func() packer.Package { return &shout{} }))

	var got string
	require.NoError(t, e.RegisterCommand(command.NewServerCommand(shoutID, func(args *command.ServerArgs) error {
		s, ok := args.Package().(*shout)
		require.True(t, ok)
		got = args.ConnectionID + ":" + s.Text
		return nil
	})))
	e.Start()
	assert.True(t, e.Started())

	require.NoError(t, e.HandleServerData("c1", frame(t, e, &shout{Text: "hey"})))
	assert.Equal(t, "c1:hey", got)

	assert.ErrorIs(t, e.RegisterCommand(command.NewServerCommand(shoutID+1, func(*command.ServerArgs) error { return nil })), ErrStarted)
	assert.ErrorIs(t, e.RegisterPackage(shoutID+1, func() packer.Package { return &shout{} }), ErrStarted)
}

func TestHandleDataReleasesBufferOnDecodeFailure(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	e.Start()

	tests := []struct {
		name string
		data []byte
	}{
		{"short header", []byte{1, 2, 3}},
		{"unknown package", binary.BigEndian.AppendUint64(nil, 999)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := e.Pool().Len()
			err := e.HandleServerData("c1", pool.WrapBytes(tt.data))
			assert.ErrorIs(t, err, packer.ErrDecode)
			assert.Equal(t, before+1, e.Pool().Len())
		})
	}
}

func TestHandleDataKindMismatch(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	e.Start()

	err := e.HandleClientData("server", frame(t, e, &server.PingRequest{}))
	var mismatch *command.ArgsTypeMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, command.KindServer, mismatch.Want)
}

func TestHandleClientData(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	var pongs []string
	require.NoError(t, server.RegisterClientCommands(e.Dispatcher(), func(peer string) { pongs = append(pongs, peer) }))
	e.Start()

	require.NoError(t, e.HandleClientData("srv", frame(t, e, &server.PingResponse{Alive: true})))
	assert.Equal(t, []string{"srv"}, pongs)
}

func TestRateLimitPerConnection(t *testing.T) {
	e, sim := newTestEngine(t, func(o *Options) {
		o.RateLimit = 0.001
		o.RateBurst = 1
	})
	e.Start()

	conn, _ := e.Model().Connect("spammy")
	sim.AddConnection(conn)

	require.NoError(t, e.HandleServerData(conn, frame(t, e, &server.PingRequest{})))
	err := e.HandleServerData(conn, frame(t, e, &server.PingRequest{}))
	assert.ErrorIs(t, err, command.ErrRateLimited)

	// Another connection has its own budget.
	other, _ := e.Model().Connect("calm")
	sim.AddConnection(other)
	assert.NoError(t, e.HandleServerData(other, frame(t, e, &server.PingRequest{})))
}

func TestUnregisterThroughEngine(t *testing.T) {
	e, _ := newTestEngine(t, func(o *Options) { o.MeshPolicy = room.MeshCompatible })
	e.Start()

	a, _ := e.Model().Connect("A")
	b, _ := e.Model().Connect("B")
	voice, err := e.OpenVoiceRoom(a, "call", "B")
	require.NoError(t, err)
	assert.Equal(t, room.MeshCompatible, voice.Policy())

	require.NoError(t, e.HandleServerData(b, frame(t, e, &server.Unregister{})))
	assert.Equal(t, []string{"A"}, voice.Users())

	e.Disconnect(a)
	assert.Empty(t, e.Model().Rooms())
}

func TestSendUsesDelivery(t *testing.T) {
	e, sim := newTestEngine(t, nil)
	sim.AddConnection("x")
	require.NoError(t, e.Send("x", &server.PingResponse{Alive: true}))
	assert.Len(t, sim.RecordsFor("x"), 1)
}
