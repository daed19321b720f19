package testing

import (
	stdtesting "testing"

	"github.com/opd-ai/meshchat/interfaces"
	"github.com/opd-ai/meshchat/packer"
	"github.com/opd-ai/meshchat/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echo struct {
	Body string `json:"body"`
}

func (*echo) ID() int64 { return 9 }

func newSim(t *stdtesting.T) (*SimulatedDelivery, *packer.Packer, *pool.Pool) {
	t.Helper()
	bufferPool := pool.New(4)
	p := packer.New(bufferPool)
	require.NoError(t, p.Register(9, func() packer.Package { return &echo{} }))
	return NewSimulatedDelivery(p, nil), p, bufferPool
}

func TestSimulatedSendRecordsDecodableBytes(t *stdtesting.T) {
	sim, p, bufferPool := newSim(t)
	sim.AddConnection("c1")

	require.NoError(t, sim.SendPackage("c1", &echo{Body: "ping"}))

	recs := sim.RecordsFor("c1")
	require.Len(t, recs, 1)
	assert.Equal(t, int64(9), recs[0].PackageID)
	assert.Equal(t, len(recs[0].Data), recs[0].Size)
	assert.Equal(t, 1, bufferPool.Len())

	unit, err := p.UnpackBytes(recs[0].Data)
	require.NoError(t, err)
	defer unit.Dispose()
	got, ok := packer.As[*echo](unit)
	require.True(t, ok)
	assert.Equal(t, "ping", got.Body)
}

func TestSimulatedSendUnknownConnection(t *stdtesting.T) {
	sim, _, _ := newSim(t)

	err := sim.SendPackage("ghost", &echo{})
	require.Error(t, err)

	recs := sim.Records()
	require.Len(t, recs, 1)
	assert.False(t, recs[0].Success)
	assert.Empty(t, sim.RecordsFor("ghost"))
	assert.Equal(t, interfaces.DeliveryStats{IsSimulation: true, Failed: 1}, sim.Stats())
}

func TestSimulatedRemoveConnection(t *stdtesting.T) {
	sim, _, _ := newSim(t)
	sim.AddConnection("c1")
	sim.RemoveConnection("c1")
	assert.Error(t, sim.SendPackage("c1", &echo{}))
}

func TestSimulatedBroadcast(t *stdtesting.T) {
	sim, _, _ := newSim(t)
	sim.AddConnection("a")
	sim.AddConnection("b")
	sim.AddConnection("c")

	require.NoError(t, sim.BroadcastPackage([]string{"a", "b", "c"}, &echo{Body: "x"}, "a"))
	assert.Empty(t, sim.RecordsFor("a"))
	assert.Len(t, sim.RecordsFor("b"), 1)
	assert.Len(t, sim.RecordsFor("c"), 1)

	err := sim.BroadcastPackage([]string{"b", "missing"}, &echo{})
	assert.Error(t, err)
	assert.Equal(t, uint64(3), sim.Stats().Delivered)
	assert.Equal(t, uint64(1), sim.Stats().Failed)
}

func TestSimulatedClearLog(t *stdtesting.T) {
	sim, _, _ := newSim(t)
	sim.AddConnection("a")
	require.NoError(t, sim.SendPackage("a", &echo{}))
	sim.ClearLog()
	assert.Empty(t, sim.Records())
	assert.True(t, sim.IsSimulation())
}

func TestSimulatedBroadcastRecordsAreIndependent(t *stdtesting.T) {
	sim, _, _ := newSim(t)
	sim.AddConnection("a")
	sim.AddConnection("b")

	require.NoError(t, sim.BroadcastPackage([]string{"a", "b"}, &echo{Body: "same"}))

	a := sim.RecordsFor("a")[0]
	b := sim.RecordsFor("b")[0]
	require.Equal(t, a.Data, b.Data)

	a.Data[0] ^= 0xff
	assert.NotEqual(t, a.Data[0], b.Data[0])
	assert.Equal(t, b.Data, sim.RecordsFor("b")[0].Data)
}
