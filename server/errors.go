package server

import "errors"

var (
	// ErrNickTaken indicates another connection already uses the nick.
	ErrNickTaken = errors.New("nick already in use")

	// ErrConnectionNotFound indicates the connection id is not registered.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrRoomExists indicates a room with the name is already open.
	ErrRoomExists = errors.New("room already exists")

	// ErrRoomNotFound indicates no open room has the name.
	ErrRoomNotFound = errors.New("room not found")
)
