package server

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/opd-ai/meshchat/room"
	"github.com/sirupsen/logrus"
)

// Model tracks connected users and open rooms.
type Model struct {
	mu    sync.RWMutex
	nicks map[string]string // connection id -> nick
	conns map[string]string // nick -> connection id
	rooms map[string]room.Interface
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{
		nicks: make(map[string]string),
		conns: make(map[string]string),
		rooms: make(map[string]room.Interface),
	}
}

// Connect registers nick and returns a fresh connection id for it.
func (m *Model) Connect(nick string) (string, error) {
	if nick == "" {
		return "", room.ErrEmptyNick
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.conns[nick]; taken {
		return "", fmt.Errorf("%w: %s", ErrNickTaken, nick)
	}
	connID := uuid.NewString()
	m.nicks[connID] = nick
	m.conns[nick] = connID

	logrus.WithFields(logrus.Fields{
		"function":      "Model.Connect",
		"connection_id": connID,
		"nick":          nick,
	}).Info("User connected")
	return connID, nil
}

// Nick returns the nick registered for connID.
func (m *Model) Nick(connID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	nick, ok := m.nicks[connID]
	return nick, ok
}

// ConnectionID returns the connection id registered for nick.
func (m *Model) ConnectionID(nick string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	connID, ok := m.conns[nick]
	return connID, ok
}

// Connections returns the registered connection ids in sorted order.
func (m *Model) Connections() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.nicks))
	for id := range m.nicks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// OpenRoom opens a chat room administered by the user on connID.
func (m *Model) OpenRoom(connID, name string, initial ...string) (*room.Room, error) {
	var opened *room.Room
	err := m.open(connID, name, func(admin string) (room.Interface, error) {
		r, err := room.NewRoom(admin, name, initial)
		opened = r
		return r, err
	})
	return opened, err
}

// OpenVoiceRoom opens a voice room administered by the user on connID.
func (m *Model) OpenVoiceRoom(connID, name string, initial []string, opts ...room.VoiceOption) (*room.VoiceRoom, error) {
	var opened *room.VoiceRoom
	err := m.open(connID, name, func(admin string) (room.Interface, error) {
		r, err := room.NewVoiceRoom(admin, name, initial, opts...)
		opened = r
		return r, err
	})
	return opened, err
}

func (m *Model) open(connID, name string, create func(admin string) (room.Interface, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	admin, ok := m.nicks[connID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrConnectionNotFound, connID)
	}
	if _, exists := m.rooms[name]; exists {
		return fmt.Errorf("%w: %s", ErrRoomExists, name)
	}
	r, err := create(admin)
	if err != nil {
		return err
	}
	m.rooms[name] = r

	logrus.WithFields(logrus.Fields{
		"function": "Model.OpenRoom",
		"room":     name,
		"type":     r.Type().String(),
		"admin":    admin,
	}).Info("Room opened")
	return nil
}

// JoinRoom adds the user on connID to the named room.
func (m *Model) JoinRoom(connID, name string) error {
	m.mu.Lock()
	nick, ok := m.nicks[connID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrConnectionNotFound, connID)
	}
	r, found := m.rooms[name]
	if !found {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRoomNotFound, name)
	}
	notify, err := r.AddUserDeferred(nick)
	m.mu.Unlock()

	if err != nil {
		return err
	}
	notify()
	return nil
}

// LeaveRoom removes the user on connID from the named room, closing the room
// when nobody is left.
func (m *Model) LeaveRoom(connID, name string) error {
	m.mu.Lock()
	nick, ok := m.nicks[connID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrConnectionNotFound, connID)
	}
	r, found := m.rooms[name]
	if !found {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRoomNotFound, name)
	}
	notify, err := r.RemoveUserDeferred(nick)
	if err == nil && r.Empty() {
		delete(m.rooms, name)
	}
	m.mu.Unlock()

	if err != nil {
		return err
	}
	notify()
	return nil
}

// Room returns the open room with the given name.
func (m *Model) Room(name string) (room.Interface, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[name]
	return r, ok
}

// Rooms returns the names of open rooms in sorted order.
func (m *Model) Rooms() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.rooms))
	for name := range m.rooms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RemoveUser unregisters the user on connID, removing them from every room
// and closing rooms left empty. It reports whether the connection was known.
// Room change callbacks run after the model is unlocked.
func (m *Model) RemoveUser(connID string) bool {
	m.mu.Lock()
	nick, ok := m.nicks[connID]
	if !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.nicks, connID)
	delete(m.conns, nick)

	var pending []room.Notify
	closed := 0
	for name, r := range m.rooms {
		if !r.Contains(nick) {
			continue
		}
		notify, err := r.RemoveUserDeferred(nick)
		if err != nil {
			continue
		}
		pending = append(pending, notify)
		if r.Empty() {
			delete(m.rooms, name)
			closed++
		}
	}
	m.mu.Unlock()

	for _, notify := range pending {
		notify()
	}

	logrus.WithFields(logrus.Fields{
		"function":      "Model.RemoveUser",
		"connection_id": connID,
		"nick":          nick,
		"rooms_closed":  closed,
	}).Info("User removed")
	return true
}
