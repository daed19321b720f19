package room

import "errors"

var (
	// ErrEmptyNick indicates an empty member nick.
	ErrEmptyNick = errors.New("nick is empty")

	// ErrEmptyName indicates an empty room name.
	ErrEmptyName = errors.New("room name is empty")

	// ErrUserExists indicates the nick is already a member.
	ErrUserExists = errors.New("user already in room")

	// ErrUserNotFound indicates the nick is not a member.
	ErrUserNotFound = errors.New("user not in room")

	// ErrMeshDuplicateEdge indicates a pair connected in both directions.
	ErrMeshDuplicateEdge = errors.New("pair connected more than once")

	// ErrMeshMissingEdge indicates a pair with no connection.
	ErrMeshMissingEdge = errors.New("pair not connected")

	// ErrMeshUnknownMember indicates a connection map entry naming a non-member.
	ErrMeshUnknownMember = errors.New("connection map references non-member")
)
