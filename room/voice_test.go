package room

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unorderedPairs counts each directed edge as its unordered pair.
func unorderedPairs(edges []Edge) map[[2]string]int {
	pairs := make(map[[2]string]int)
	for _, e := range edges {
		a, b := e.From, e.To
		if b < a {
			a, b = b, a
		}
		pairs[[2]string{a, b}]++
	}
	return pairs
}

// TestVoiceRoomScenarioABC checks the upper-triangular layout for three members.
func TestVoiceRoomScenarioABC(t *testing.T) {
	vr, err := NewVoiceRoom("A", "call", []string{"B", "C"})
	require.NoError(t, err)

	assert.Equal(t, TypeVoice, vr.Type())
	assert.Equal(t, map[string][]string{
		"A": {"B", "C"},
		"B": {"C"},
		"C": {},
	}, vr.ConnectionMap())
	assert.NoError(t, vr.Validate())
}

// TestVoiceRoomAdminOnly checks a room with a single member.
func TestVoiceRoomAdminOnly(t *testing.T) {
	vr, err := NewVoiceRoom("A", "call", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"A": {}}, vr.ConnectionMap())
	assert.Empty(t, vr.Edges())
	assert.NoError(t, vr.Validate())
}

// TestVoiceRoomCreationCompleteness checks N*(N-1)/2 unique pairs for several sizes.
func TestVoiceRoomCreationCompleteness(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 8, 13} {
		t.Run(fmt.Sprintf("members=%d", n), func(t *testing.T) {
			initial := make([]string, 0, n-1)
			for i := 1; i < n; i++ {
				initial = append(initial, fmt.Sprintf("m%02d", i))
			}
			vr, err := NewVoiceRoom("m00", "call", initial)
			require.NoError(t, err)

			pairs := unorderedPairs(vr.Edges())
			assert.Len(t, pairs, n*(n-1)/2)
			for pair, count := range pairs {
				assert.Equal(t, 1, count, "pair %v", pair)
			}
			assert.NoError(t, vr.Validate())
		})
	}
}

// TestVoiceRoomAddUserStrict keeps exactly one edge per pair.
func TestVoiceRoomAddUserStrict(t *testing.T) {
	vr, err := NewVoiceRoom("A", "call", []string{"B"})
	require.NoError(t, err)
	assert.Equal(t, MeshStrict, vr.Policy())

	require.NoError(t, vr.AddUser("C"))
	require.NoError(t, vr.AddUser("D"))

	assert.Equal(t, map[string][]string{
		"A": {"B", "C", "D"},
		"B": {"C", "D"},
		"C": {"D"},
		"D": {},
	}, vr.ConnectionMap())
	assert.NoError(t, vr.Validate())

	assert.ErrorIs(t, vr.AddUser("C"), ErrUserExists)
	assert.NoError(t, vr.Validate())
}

// TestVoiceRoomAddUserCompatible reproduces the legacy duplicate edges.
func TestVoiceRoomAddUserCompatible(t *testing.T) {
	vr, err := NewVoiceRoom("A", "call", []string{"B"}, WithMeshPolicy(MeshCompatible))
	require.NoError(t, err)

	require.NoError(t, vr.AddUser("C"))

	assert.Equal(t, map[string][]string{
		"A": {"B", "C"},
		"B": {"C"},
		"C": {"A", "B"},
	}, vr.ConnectionMap())

	pairs := unorderedPairs(vr.Edges())
	assert.Equal(t, 1, pairs[[2]string{"A", "B"}])
	assert.Equal(t, 2, pairs[[2]string{"A", "C"}])
	assert.Equal(t, 2, pairs[[2]string{"B", "C"}])
	assert.ErrorIs(t, vr.Validate(), ErrMeshDuplicateEdge)
}

// TestVoiceRoomRemoveUser strips the member from every list.
func TestVoiceRoomRemoveUser(t *testing.T) {
	vr, err := NewVoiceRoom("A", "call", []string{"B", "C", "D"})
	require.NoError(t, err)

	var left []string
	vr.OnChange(func(_, nick string, change ChangeType) {
		if change == ChangeLeave {
			left = append(left, nick)
		}
	})

	require.NoError(t, vr.RemoveUser("B"))
	assert.Equal(t, map[string][]string{
		"A": {"C", "D"},
		"C": {"D"},
		"D": {},
	}, vr.ConnectionMap())
	assert.Equal(t, []string{"A", "C", "D"}, vr.Users())
	assert.NoError(t, vr.Validate())

	assert.ErrorIs(t, vr.RemoveUser("B"), ErrUserNotFound)

	for _, nick := range []string{"A", "C", "D"} {
		require.NoError(t, vr.RemoveUser(nick))
	}
	assert.True(t, vr.Empty())
	assert.Empty(t, vr.ConnectionMap())
	assert.Equal(t, []string{"B", "A", "C", "D"}, left)
}

// TestVoiceRoomConnectionMapIsSnapshot ensures readers cannot mutate room state.
func TestVoiceRoomConnectionMapIsSnapshot(t *testing.T) {
	vr, err := NewVoiceRoom("A", "call", []string{"B", "C"})
	require.NoError(t, err)

	snapshot := vr.ConnectionMap()
	snapshot["A"][0] = "Z"
	delete(snapshot, "B")

	connections, ok := vr.ConnectionsOf("A")
	require.True(t, ok)
	assert.Equal(t, []string{"B", "C"}, connections)
	_, ok = vr.ConnectionsOf("nobody")
	assert.False(t, ok)
	assert.NoError(t, vr.Validate())
}

// TestVoiceRoomEdges lists directed edges in join order.
func TestVoiceRoomEdges(t *testing.T) {
	vr, err := NewVoiceRoom("A", "call", []string{"B", "C"})
	require.NoError(t, err)

	assert.Equal(t, []Edge{
		{From: "A", To: "B"},
		{From: "A", To: "C"},
		{From: "B", To: "C"},
	}, vr.Edges())
}

// TestVoiceRoomValidateMissingEdge detects an unconnected pair.
func TestVoiceRoomValidateMissingEdge(t *testing.T) {
	vr, err := NewVoiceRoom("A", "call", []string{"B", "C"})
	require.NoError(t, err)

	vr.mu.Lock()
	vr.connectionMap["A"] = []string{"B"}
	vr.mu.Unlock()

	assert.ErrorIs(t, vr.Validate(), ErrMeshMissingEdge)
}

// TestVoiceRoomConcurrentChurn mutates and reads one room from many goroutines.
func TestVoiceRoomConcurrentChurn(t *testing.T) {
	vr, err := NewVoiceRoom("admin", "call", nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				nick := fmt.Sprintf("u%d-%d", g, i)
				assert.NoError(t, vr.AddUser(nick))
				_ = vr.ConnectionMap()
				if i%2 == 0 {
					assert.NoError(t, vr.RemoveUser(nick))
				}
			}
		}(g)
	}
	wg.Wait()

	assert.Len(t, vr.Users(), 1+8*12)
	assert.NoError(t, vr.Validate())
}

// TestVoiceRoomDeferredNotify keeps the mesh consistent before the callback runs.
func TestVoiceRoomDeferredNotify(t *testing.T) {
	vr, err := NewVoiceRoom("A", "call", []string{"B"})
	require.NoError(t, err)

	var joined []string
	vr.OnChange(func(_, nick string, change ChangeType) {
		if change == ChangeJoin {
			joined = append(joined, nick)
		}
	})

	notify, err := vr.AddUserDeferred("C")
	require.NoError(t, err)
	assert.Empty(t, joined)
	assert.NoError(t, vr.Validate())
	notify()
	assert.Equal(t, []string{"C"}, joined)

	notify, err = vr.RemoveUserDeferred("C")
	require.NoError(t, err)
	_, ok := vr.ConnectionsOf("C")
	assert.False(t, ok)
	notify()

	_, err = vr.AddUserDeferred("A")
	assert.ErrorIs(t, err, ErrUserExists)
}
