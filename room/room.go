package room

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Type identifies the kind of room.
type Type uint8

const (
	// TypeChat is a text chat room.
	TypeChat Type = iota
	// TypeVoice is a full-mesh voice room.
	TypeVoice
)

func (t Type) String() string {
	switch t {
	case TypeChat:
		return "chat"
	case TypeVoice:
		return "voice"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// ChangeType describes a membership change.
type ChangeType uint8

const (
	// ChangeJoin means a member joined the room.
	ChangeJoin ChangeType = iota
	// ChangeLeave means a member left the room.
	ChangeLeave
)

func (c ChangeType) String() string {
	switch c {
	case ChangeJoin:
		return "join"
	case ChangeLeave:
		return "leave"
	default:
		return fmt.Sprintf("change(%d)", uint8(c))
	}
}

// ChangeCallback is called after a membership change, outside the room lock.
type ChangeCallback func(roomName, nick string, change ChangeType)

// Notify runs the change callback for a membership change already applied.
type Notify func()

// Interface is the membership surface shared by every room kind.
type Interface interface {
	Admin() string
	Name() string
	Type() Type
	Users() []string
	Contains(nick string) bool
	AddUser(nick string) error
	RemoveUser(nick string) error
	// AddUserDeferred and RemoveUserDeferred apply the change immediately but
	// leave running the change callback to the returned Notify, so a caller
	// holding its own lock can notify after releasing it.
	AddUserDeferred(nick string) (Notify, error)
	RemoveUserDeferred(nick string) (Notify, error)
	Empty() bool
	OnChange(cb ChangeCallback)
}

// Room is a named group of members with an admin.
type Room struct {
	mu       sync.RWMutex
	admin    string
	name     string
	users    []string
	onChange ChangeCallback
}

// NewRoom creates a room whose members are admin followed by initial.
// Nicks already present are not added again.
func NewRoom(admin, name string, initial []string) (*Room, error) {
	r := &Room{}
	if err := r.init(admin, name, initial); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Room) init(admin, name string, initial []string) error {
	if admin == "" {
		return fmt.Errorf("admin: %w", ErrEmptyNick)
	}
	if name == "" {
		return ErrEmptyName
	}

	r.admin = admin
	r.name = name
	r.users = make([]string, 0, 1+len(initial))
	r.users = append(r.users, admin)
	for _, nick := range initial {
		if nick == "" || r.indexOf(nick) >= 0 {
			continue
		}
		r.users = append(r.users, nick)
	}
	return nil
}

// Admin returns the admin nick.
func (r *Room) Admin() string {
	return r.admin
}

// Name returns the room name.
func (r *Room) Name() string {
	return r.name
}

// Type returns TypeChat.
func (r *Room) Type() Type {
	return TypeChat
}

// Users returns a copy of the members in join order.
func (r *Room) Users() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]string, len(r.users))
	copy(users, r.users)
	return users
}

// Contains reports whether nick is a member.
func (r *Room) Contains(nick string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexOf(nick) >= 0
}

// Empty reports whether every member has left.
func (r *Room) Empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users) == 0
}

// OnChange sets the membership change callback.
func (r *Room) OnChange(cb ChangeCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = cb
}

// AddUser appends nick to the members.
func (r *Room) AddUser(nick string) error {
	notify, err := r.AddUserDeferred(nick)
	if err != nil {
		return err
	}
	notify()
	return nil
}

// RemoveUser removes nick from the members.
func (r *Room) RemoveUser(nick string) error {
	notify, err := r.RemoveUserDeferred(nick)
	if err != nil {
		return err
	}
	notify()
	return nil
}

// AddUserDeferred appends nick and returns the pending join notification.
func (r *Room) AddUserDeferred(nick string) (Notify, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.addUser(nick); err != nil {
		return nil, err
	}
	return r.pending(r.onChange, nick, ChangeJoin), nil
}

// RemoveUserDeferred removes nick and returns the pending leave notification.
func (r *Room) RemoveUserDeferred(nick string) (Notify, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.removeUser(nick); err != nil {
		return nil, err
	}
	return r.pending(r.onChange, nick, ChangeLeave), nil
}

// addUser must be called with r.mu held.
func (r *Room) addUser(nick string) error {
	if nick == "" {
		return ErrEmptyNick
	}
	if r.indexOf(nick) >= 0 {
		return fmt.Errorf("%w: %s in %s", ErrUserExists, nick, r.name)
	}
	r.users = append(r.users, nick)
	return nil
}

// removeUser must be called with r.mu held.
func (r *Room) removeUser(nick string) error {
	index := r.indexOf(nick)
	if index < 0 {
		return fmt.Errorf("%w: %s in %s", ErrUserNotFound, nick, r.name)
	}
	r.users = append(r.users[:index], r.users[index+1:]...)
	return nil
}

func (r *Room) indexOf(nick string) int {
	for i, u := range r.users {
		if u == nick {
			return i
		}
	}
	return -1
}

func (r *Room) pending(cb ChangeCallback, nick string, change ChangeType) Notify {
	return func() { r.notify(cb, nick, change) }
}

func (r *Room) notify(cb ChangeCallback, nick string, change ChangeType) {
	logrus.WithFields(logrus.Fields{
		"function": "Room.notify",
		"room":     r.name,
		"nick":     nick,
		"change":   change.String(),
	}).Debug("Room membership changed")

	if cb != nil {
		cb(r.name, nick, change)
	}
}
