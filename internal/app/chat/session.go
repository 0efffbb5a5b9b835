/*
Package chat contains the core logic for routing real-time chat events between connections.

This file defines the Session, the per-connection protocol state machine. A session starts
Connected, becomes Joined after a successful join and ends Closed on disconnect. Events on one
session are handled one at a time; many sessions run concurrently against the shared registry.
*/
package chat

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"chatrelay/internal/app/user"
	"chatrelay/internal/pkg/errs"
	"chatrelay/internal/pkg/logx"
)

// State is the protocol state of a session.
type State int

const (
	// StateConnected means the connection is open but not bound to a user.
	StateConnected State = iota
	// StateJoined means the connection is bound to a user in a room.
	StateJoined
	// StateClosed is terminal.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

const welcomeText = "Welcome!"

// Session is the protocol handler bound to one connection.
type Session struct {
	manager *Manager
	out     Outbox

	// mu serializes event handling for this connection and guards state.
	mu    sync.Mutex
	state State

	logger zerolog.Logger
}

func newSession(m *Manager, out Outbox) *Session {
	return &Session{
		manager: m,
		out:     out,
		state:   StateConnected,
		logger:  logx.Logger().With().Str("conn_id", out.ID()).Logger(),
	}
}

// ID returns the connection id of the session.
func (s *Session) ID() string {
	return s.out.ID()
}

// State returns the current protocol state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Join binds the connection to a user in room. On failure nothing is broadcast and the session
// stays Connected. On success the joiner gets a welcome, the rest of the room is told about the
// newcomer, and everybody in the room, joiner included, gets the new membership list.
// Everything is queued before Join returns.
func (s *Session) Join(username, room string) (user.User, *errs.CustomError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateJoined:
		return user.User{}, errs.NewError(errs.ErrAlreadyJoined)
	case StateClosed:
		return user.User{}, errs.NewError(errs.ErrSessionClosed)
	}

	s.manager.membership.Lock()
	defer s.manager.membership.Unlock()

	u, err := s.manager.registry.AddUser(s.ID(), username, room)
	if err != nil {
		s.logger.Info().
			Int("code", err.Code).
			Str("username", username).
			Str("room", room).
			Msg("Join rejected.")
		return user.User{}, err
	}

	s.state = StateJoined
	s.logger = s.logger.With().Str("room", u.Room).Str("username", u.Username).Logger()

	s.manager.sendTo(s.out, newEvent(TypeMessage, NewTextMessage(SystemSender, welcomeText)))
	s.manager.broadcastRoom(u.Room, newEvent(TypeMessage, NewTextMessage(SystemSender, u.Username+" has joined!")), u.ConnID)
	s.broadcastRoomData(u.Room)

	s.logger.Info().Msg("Joined room.")
	return u, nil
}

// SendMessage relays text to every member of the sender's room, sender included.
func (s *Session) SendMessage(text string) *errs.CustomError {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.boundUser()
	if err != nil {
		return err
	}

	s.manager.broadcastRoom(u.Room, newEvent(TypeMessage, NewTextMessage(u.Username, text)), "")
	return nil
}

// SendLocation shares a map link for the given coordinates with every open connection,
// not only the sender's room.
func (s *Session) SendLocation(latitude, longitude float64) *errs.CustomError {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.boundUser()
	if err != nil {
		return err
	}

	s.manager.broadcastAll(newEvent(TypeLocationMessage, NewLocationMessage(u.Username, LocationURL(latitude, longitude))))
	return nil
}

// Disconnect closes the session. If a user was bound, it is removed and the rest of the room is
// told. Calling Disconnect again does nothing.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return
	}

	wasJoined := s.state == StateJoined
	s.state = StateClosed
	s.manager.release(s.ID())

	if !wasJoined {
		s.logger.Debug().Msg("Connection closed before joining.")
		return
	}

	s.manager.membership.Lock()
	defer s.manager.membership.Unlock()

	u, ok := s.manager.registry.RemoveUser(s.ID())
	if !ok {
		s.logger.Warn().Msg("Joined session had no registered user on disconnect.")
		return
	}

	s.manager.broadcastRoom(u.Room, newEvent(TypeMessage, NewTextMessage(SystemSender, u.Username+" has left!")), "")
	s.broadcastRoomData(u.Room)

	s.logger.Info().Msg("Left room.")
}

// boundUser returns the registered user for a Joined session. Caller holds s.mu.
func (s *Session) boundUser() (user.User, *errs.CustomError) {
	if s.state == StateClosed {
		return user.User{}, errs.NewError(errs.ErrSessionClosed)
	}

	if s.state != StateJoined {
		s.logger.Warn().Msg("Room action before join.")
		return user.User{}, errs.NewError(errs.ErrProtocolViolation)
	}

	u, ok := s.manager.registry.GetUser(s.ID())
	if !ok {
		s.logger.Error().Msg("Joined session has no registered user.")
		return user.User{}, errs.NewError(errs.ErrProtocolViolation)
	}
	return u, nil
}

// broadcastRoomData sends the current member list of room to its members. Caller holds
// manager.membership.
func (s *Session) broadcastRoomData(room string) {
	members := s.manager.registry.GetUsersInRoom(room)
	s.manager.broadcastUsers(members, newEvent(TypeRoomData, NewRoomData(room, user.Usernames(members))), "")
}
