package user

import (
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"chatrelay/internal/pkg/errs"
	"chatrelay/internal/pkg/logx"
)

// entry is a registered user plus its join sequence number, used to keep room listings in join order.
type entry struct {
	user User
	seq  uint64
}

// RoomSummary describes one active room of the derived room view.
type RoomSummary struct {
	Name    string `json:"name"`
	Members int    `json:"members"`
}

// Registry is the in-memory store of active users, keyed by connection id.
// Rooms are not stored as entities; a room exists only while at least one user references it.
type Registry struct {
	// users maps connection id to the registered user.
	users map[string]*entry

	// rooms indexes normalized room name -> normalized username -> connection id.
	// It backs the per-room uniqueness check and is kept in step with users.
	rooms map[string]map[string]string

	// seq is the join counter.
	seq uint64

	// mu protects users, rooms and seq.
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		users:  make(map[string]*entry),
		rooms:  make(map[string]map[string]string),
		logger: logx.Component("Registry"),
	}
}

// AddUser registers a user for connID. Username and room are trimmed and must be non-empty.
// The username must not already be in use in the same room; comparison is case-insensitive.
// The uniqueness check and the insert happen under a single write lock.
func (r *Registry) AddUser(connID, username, room string) (User, *errs.CustomError) {
	username = strings.TrimSpace(username)
	room = strings.TrimSpace(room)

	if username == "" || room == "" {
		return User{}, errs.NewError(errs.ErrMissingFields)
	}

	roomKey := normalize(room)
	nameKey := normalize(username)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[connID]; ok {
		r.logger.Warn().Str("conn_id", connID).Msg("Connection already bound to a user.")
		return User{}, errs.NewError(errs.ErrAlreadyJoined)
	}

	members := r.rooms[roomKey]
	if _, taken := members[nameKey]; taken {
		r.logger.Debug().
			Str("conn_id", connID).
			Str("room", room).
			Str("username", username).
			Msg("Username already in use in room.")
		return User{}, errs.NewError(errs.ErrUsernameTaken)
	}

	if members == nil {
		members = make(map[string]string)
		r.rooms[roomKey] = members
	}

	u := User{ConnID: connID, Username: username, Room: room}

	r.seq++
	r.users[connID] = &entry{user: u, seq: r.seq}
	members[nameKey] = connID

	r.logger.Info().
		Str("conn_id", connID).
		Str("room", room).
		Str("username", username).
		Int("room_size", len(members)).
		Msg("User added.")

	return u, nil
}

// RemoveUser removes and returns the user bound to connID.
// It reports false when no such user exists; calling it twice is harmless.
func (r *Registry) RemoveUser(connID string) (User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.users[connID]
	if !ok {
		return User{}, false
	}

	delete(r.users, connID)

	roomKey := normalize(e.user.Room)
	if members, ok := r.rooms[roomKey]; ok {
		delete(members, normalize(e.user.Username))
		if len(members) == 0 {
			delete(r.rooms, roomKey)
		}
	}

	r.logger.Info().
		Str("conn_id", connID).
		Str("room", e.user.Room).
		Str("username", e.user.Username).
		Msg("User removed.")

	return e.user, true
}

// GetUser looks up the user bound to connID.
func (r *Registry) GetUser(connID string) (User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.users[connID]
	if !ok {
		return User{}, false
	}
	return e.user, true
}

// GetUsersInRoom returns a snapshot of the users in room, in join order.
// The room name is matched case-insensitively after trimming.
func (r *Registry) GetUsersInRoom(room string) []User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[normalize(room)]
	if len(members) == 0 {
		return []User{}
	}

	entries := make([]*entry, 0, len(members))
	for _, connID := range members {
		if e, ok := r.users[connID]; ok {
			entries = append(entries, e)
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	users := make([]User, len(entries))
	for i, e := range entries {
		users[i] = e.user
	}
	return users
}

// Rooms returns the currently active rooms sorted by name. The displayed name of a room is the
// one given by its earliest remaining member.
func (r *Registry) Rooms() []RoomSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]RoomSummary, 0, len(r.rooms))
	for _, members := range r.rooms {
		var first *entry
		for _, connID := range members {
			e, ok := r.users[connID]
			if !ok {
				continue
			}
			if first == nil || e.seq < first.seq {
				first = e
			}
		}
		if first == nil {
			continue
		}
		summaries = append(summaries, RoomSummary{Name: first.user.Room, Members: len(members)})
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	return summaries
}

// Len returns the number of registered users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.users)
}
