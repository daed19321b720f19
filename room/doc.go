// Package room implements chat rooms and full-mesh voice rooms.
//
// A VoiceRoom keeps a connection map: for every member, the ordered list of
// other members that member must dial. For a room of N members every unordered
// pair appears exactly once, giving N*(N-1)/2 directed edges.
//
// Creation assigns the classic upper-triangular layout: the member at position
// i initiates to every member after it.
//
//	vr, _ := room.NewVoiceRoom("A", "standup", []string{"B", "C"})
//	vr.ConnectionMap() // A: [B C], B: [C], C: []
//
// Joining members are handled according to the room's MeshPolicy. MeshStrict,
// the default, has every existing member dial the newcomer and leaves the
// newcomer's own list empty, keeping the exactly-once property. MeshCompatible
// reproduces the legacy behavior where the newcomer also dials everyone, so
// each new pair is connected twice.
//
// Rooms are safe for concurrent use: mutations are serialized per room and
// readers receive copies.
package room
