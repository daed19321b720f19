package server

import (
	"testing"

	"github.com/opd-ai/meshchat/command"
	"github.com/opd-ai/meshchat/packer"
	"github.com/opd-ai/meshchat/pool"
	simulation "github.com/opd-ai/meshchat/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	pool   *pool.Pool
	packer *packer.Packer
	model  *Model
	sim    *simulation.SimulatedDelivery
	disp   *command.Dispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	bufferPool := pool.New(16)
	p := packer.New(bufferPool)
	require.NoError(t, RegisterPackages(p))

	h := &harness{
		pool:   bufferPool,
		packer: p,
		model:  NewModel(),
		sim:    simulation.NewSimulatedDelivery(p, nil),
		disp:   command.NewDispatcher(),
	}
	require.NoError(t, RegisterCommands(h.disp, h.model, h.sim))
	h.disp.Seal()
	return h
}

func (h *harness) serverArgs(t *testing.T, connID string, pkg packer.Package) *command.ServerArgs {
	t.Helper()
	unit, err := h.packer.Pack(pkg)
	require.NoError(t, err)
	decoded, err := h.packer.UnpackBytes(unit.RawData())
	unit.Dispose()
	require.NoError(t, err)
	return command.NewServerArgs(connID, decoded)
}

func TestRegisterPackagesRejectsDuplicates(t *testing.T) {
	p := packer.New(pool.New(1))
	require.NoError(t, RegisterPackages(p))
	assert.ErrorIs(t, RegisterPackages(p), packer.ErrDuplicatePackage)
	assert.Equal(t, []int64{PingRequestID, UnregisterID, PingResponseID}, p.Registered())
}

func TestPingRequestRepliesToSender(t *testing.T) {
	h := newHarness(t)
	conn, err := h.model.Connect("alice")
	require.NoError(t, err)
	h.sim.AddConnection(conn)

	require.NoError(t, h.disp.Dispatch(PingRequestID, h.serverArgs(t, conn, &PingRequest{})))

	recs := h.sim.RecordsFor(conn)
	require.Len(t, recs, 1)
	assert.Equal(t, PingResponseID, recs[0].PackageID)

	unit, err := h.packer.UnpackBytes(recs[0].Data)
	require.NoError(t, err)
	defer unit.Dispose()
	resp, ok := packer.As[*PingResponse](unit)
	require.True(t, ok)
	assert.True(t, resp.Alive)
}

func TestPingRequestDeliveryFailure(t *testing.T) {
	h := newHarness(t)
	err := h.disp.Dispatch(PingRequestID, h.serverArgs(t, "gone", &PingRequest{}))
	assert.Error(t, err)
}

func TestUnregisterRemovesUser(t *testing.T) {
	h := newHarness(t)
	conn, _ := h.model.Connect("bob")
	_, err := h.model.OpenRoom(conn, "den")
	require.NoError(t, err)

	require.NoError(t, h.disp.Dispatch(UnregisterID, h.serverArgs(t, conn, &Unregister{})))

	_, ok := h.model.Nick(conn)
	assert.False(t, ok)
	assert.Empty(t, h.model.Rooms())

	// Unknown connections are ignored.
	assert.NoError(t, h.disp.Dispatch(UnregisterID, h.serverArgs(t, conn, &Unregister{})))
}

func TestRegisterCommandsRequiresCollaborators(t *testing.T) {
	assert.Error(t, RegisterCommands(command.NewDispatcher(), nil, nil))
}

func TestRegisterClientCommands(t *testing.T) {
	h := newHarness(t)
	d := command.NewDispatcher()
	var peers []string
	require.NoError(t, RegisterClientCommands(d, func(peer string) { peers = append(peers, peer) }))

	unit, err := h.packer.Pack(&PingResponse{Alive: true})
	require.NoError(t, err)
	require.NoError(t, d.Dispatch(PingResponseID, command.NewClientArgs("server", unit)))
	assert.Equal(t, []string{"server"}, peers)
}
