package room

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// MeshPolicy decides how a joining member is wired into an existing mesh.
type MeshPolicy uint8

const (
	// MeshStrict connects every pair exactly once: existing members dial the newcomer.
	MeshStrict MeshPolicy = iota
	// MeshCompatible reproduces the legacy join where the newcomer also dials every
	// existing member, connecting each new pair in both directions.
	MeshCompatible
)

func (p MeshPolicy) String() string {
	switch p {
	case MeshStrict:
		return "strict"
	case MeshCompatible:
		return "compatible"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// VoiceOption customizes a VoiceRoom.
type VoiceOption func(*VoiceRoom)

// WithMeshPolicy sets the join policy.
func WithMeshPolicy(policy MeshPolicy) VoiceOption {
	return func(v *VoiceRoom) {
		v.policy = policy
	}
}

// Edge is a directed connection: From must initiate a connection to To.
type Edge struct {
	From string
	To   string
}

// VoiceRoom is a room whose members form a full mesh of direct connections.
type VoiceRoom struct {
	Room
	policy        MeshPolicy
	connectionMap map[string][]string
}

// NewVoiceRoom creates a voice room whose members are admin followed by initial.
// The member at position i initiates to every member after it.
func NewVoiceRoom(admin, name string, initial []string, opts ...VoiceOption) (*VoiceRoom, error) {
	v := &VoiceRoom{policy: MeshStrict}
	if err := v.init(admin, name, initial); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(v)
	}

	v.connectionMap = make(map[string][]string, len(v.users))
	for i, nick := range v.users {
		connections := make([]string, 0, len(v.users)-i-1)
		connections = append(connections, v.users[i+1:]...)
		v.connectionMap[nick] = connections
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewVoiceRoom",
		"room":     name,
		"members":  len(v.users),
		"policy":   v.policy.String(),
	}).Debug("Created voice room")

	return v, nil
}

// Type returns TypeVoice.
func (v *VoiceRoom) Type() Type {
	return TypeVoice
}

// Policy returns the join policy.
func (v *VoiceRoom) Policy() MeshPolicy {
	return v.policy
}

// AddUser adds nick and wires it into the mesh according to the room's policy.
func (v *VoiceRoom) AddUser(nick string) error {
	notify, err := v.AddUserDeferred(nick)
	if err != nil {
		return err
	}
	notify()
	return nil
}

// RemoveUser removes nick from the members and from every connection list.
func (v *VoiceRoom) RemoveUser(nick string) error {
	notify, err := v.RemoveUserDeferred(nick)
	if err != nil {
		return err
	}
	notify()
	return nil
}

// AddUserDeferred is AddUser with the join notification left to the caller.
func (v *VoiceRoom) AddUserDeferred(nick string) (Notify, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	existing := make([]string, len(v.users))
	copy(existing, v.users)

	if err := v.addUser(nick); err != nil {
		return nil, err
	}
	for _, member := range existing {
		v.connectionMap[member] = append(v.connectionMap[member], nick)
	}
	if v.policy == MeshCompatible {
		v.connectionMap[nick] = existing
	} else {
		v.connectionMap[nick] = []string{}
	}
	return v.pending(v.onChange, nick, ChangeJoin), nil
}

// RemoveUserDeferred is RemoveUser with the leave notification left to the caller.
func (v *VoiceRoom) RemoveUserDeferred(nick string) (Notify, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.removeUser(nick); err != nil {
		return nil, err
	}
	delete(v.connectionMap, nick)
	for member, connections := range v.connectionMap {
		v.connectionMap[member] = without(connections, nick)
	}
	return v.pending(v.onChange, nick, ChangeLeave), nil
}

// ConnectionMap returns a copy of the map from member to the members it must dial.
func (v *VoiceRoom) ConnectionMap() map[string][]string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	snapshot := make(map[string][]string, len(v.connectionMap))
	for member, connections := range v.connectionMap {
		c := make([]string, len(connections))
		copy(c, connections)
		snapshot[member] = c
	}
	return snapshot
}

// ConnectionsOf returns a copy of the members nick must dial.
func (v *VoiceRoom) ConnectionsOf(nick string) ([]string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	connections, ok := v.connectionMap[nick]
	if !ok {
		return nil, false
	}
	c := make([]string, len(connections))
	copy(c, connections)
	return c, true
}

// Edges returns every directed connection, ordered by member join order.
func (v *VoiceRoom) Edges() []Edge {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var edges []Edge
	for _, from := range v.users {
		for _, to := range v.connectionMap[from] {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}

// Validate checks that every pair of members is connected exactly once and that
// the map names only members.
func (v *VoiceRoom) Validate() error {
	v.mu.RLock()
	defer v.mu.RUnlock()

	members := make(map[string]bool, len(v.users))
	for _, nick := range v.users {
		members[nick] = true
	}

	seen := make(map[Edge]bool)
	for from, connections := range v.connectionMap {
		if !members[from] {
			return fmt.Errorf("%w: %s", ErrMeshUnknownMember, from)
		}
		for _, to := range connections {
			if !members[to] || to == from {
				return fmt.Errorf("%w: %s -> %s", ErrMeshUnknownMember, from, to)
			}
			if seen[Edge{From: from, To: to}] || seen[Edge{From: to, To: from}] {
				return fmt.Errorf("%w: %s, %s", ErrMeshDuplicateEdge, from, to)
			}
			seen[Edge{From: from, To: to}] = true
		}
	}

	for i, a := range v.users {
		for _, b := range v.users[i+1:] {
			if !seen[Edge{From: a, To: b}] && !seen[Edge{From: b, To: a}] {
				return fmt.Errorf("%w: %s, %s", ErrMeshMissingEdge, a, b)
			}
		}
	}
	return nil
}

func without(list []string, nick string) []string {
	out := list[:0]
	for _, item := range list {
		if item != nick {
			out = append(out, item)
		}
	}
	return out
}
