/*
Package chat contains the core logic for routing real-time chat events between connections.

This file defines the Manager, which owns the set of open connections and the user registry,
and resolves the three fan-out scopes used by sessions: a single connection, a room, or every
open connection.
*/
package chat

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"chatrelay/internal/app/user"
	"chatrelay/internal/pkg/errs"
	"chatrelay/internal/pkg/logx"
)

var (
	// ErrOutboxClosed is returned by Deliver once the connection has been closed.
	ErrOutboxClosed = errors.New("outbox closed")

	// ErrSendQueueFull is returned by Deliver when the connection cannot keep up.
	ErrSendQueueFull = errors.New("send queue full")
)

// Outbox is the delivery side of one transport connection.
// Deliver must not block; it queues the event or fails.
type Outbox interface {
	ID() string
	Deliver(ev Event) error
	Close()
}

// Manager coordinates all open sessions and the shared user registry.
type Manager struct {
	// registry holds the users of joined sessions.
	registry *user.Registry

	// sessions stores every open session, joined or not, keyed by connection id.
	sessions map[string]*Session

	// closed is set by Shutdown; no new sessions are accepted afterwards.
	closed bool

	// mu protects sessions and closed.
	mu sync.RWMutex

	// membership serializes registry changes together with the notifications they cause, so
	// every connection sees joins and leaves in the order the registry applied them.
	// Lock order: Session.mu, membership, then mu or the registry lock.
	membership sync.Mutex

	logger zerolog.Logger
}

// NewManager constructs a Manager around registry. A nil registry gets a fresh one.
func NewManager(registry *user.Registry) *Manager {
	if registry == nil {
		registry = user.NewRegistry()
	}

	return &Manager{
		registry: registry,
		sessions: make(map[string]*Session),
		logger:   logx.Component("Manager"),
	}
}

// Registry returns the user registry shared by all sessions.
func (m *Manager) Registry() *user.Registry {
	return m.registry
}

// Connect opens a session for a new transport connection. The session starts in StateConnected
// and is immediately part of the global fan-out set.
func (m *Manager) Connect(out Outbox) (*Session, *errs.CustomError) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, errs.NewError(errs.ErrSessionClosed)
	}

	id := out.ID()
	if _, exists := m.sessions[id]; exists {
		m.logger.Error().Str("conn_id", id).Msg("Duplicate connection id.")
		return nil, errs.NewError(errs.ErrDuplicateConnection)
	}

	s := newSession(m, out)
	m.sessions[id] = s

	m.logger.Debug().
		Str("conn_id", id).
		Int("open_connections", len(m.sessions)).
		Msg("Connection opened.")

	return s, nil
}

// release drops the session from the open set. It reports whether the session was present.
func (m *Manager) release(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)

	m.logger.Debug().
		Str("conn_id", id).
		Int("open_connections", len(m.sessions)).
		Msg("Connection released.")

	return true
}

// ConnectionCount returns the number of open connections.
func (m *Manager) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

// sendTo delivers ev to a single connection.
func (m *Manager) sendTo(out Outbox, ev Event) {
	m.deliver([]Outbox{out}, ev)
}

// broadcastRoom delivers ev to every open connection whose user is in room, except exceptID.
// Membership is read from the registry at call time.
func (m *Manager) broadcastRoom(room string, ev Event, exceptID string) {
	m.broadcastUsers(m.registry.GetUsersInRoom(room), ev, exceptID)
}

// broadcastUsers delivers ev to the open connections of members, except exceptID.
func (m *Manager) broadcastUsers(members []user.User, ev Event, exceptID string) {
	targets := make([]Outbox, 0, len(members))

	m.mu.RLock()
	for _, u := range members {
		if u.ConnID == exceptID {
			continue
		}
		if s, ok := m.sessions[u.ConnID]; ok {
			targets = append(targets, s.out)
		}
	}
	m.mu.RUnlock()

	m.deliver(targets, ev)
}

// broadcastAll delivers ev to every open connection regardless of room or join state.
func (m *Manager) broadcastAll(ev Event) {
	m.mu.RLock()
	targets := make([]Outbox, 0, len(m.sessions))
	for _, s := range m.sessions {
		targets = append(targets, s.out)
	}
	m.mu.RUnlock()

	m.deliver(targets, ev)
}

// deliver hands ev to each target. It runs without holding any lock.
func (m *Manager) deliver(targets []Outbox, ev Event) {
	for _, out := range targets {
		if err := out.Deliver(ev); err != nil {
			logEvent := m.logger.Warn()
			if errors.Is(err, ErrOutboxClosed) {
				logEvent = m.logger.Debug()
			}
			logEvent.
				Err(err).
				Str("conn_id", out.ID()).
				Str("event", string(ev.Type)).
				Msg("Event not delivered.")
		}
	}
}

// Shutdown stops accepting connections and closes every open one. Sessions are cleaned up by
// their transports as the connections wind down.
func (m *Manager) Shutdown() {
	m.logger.Info().Msg("Shutting down Manager...")

	m.mu.Lock()
	m.closed = true
	outs := make([]Outbox, 0, len(m.sessions))
	for _, s := range m.sessions {
		outs = append(outs, s.out)
	}
	m.mu.Unlock()

	for _, out := range outs {
		out.Close()
	}

	m.logger.Info().Int("closed_connections", len(outs)).Msg("Manager shutdown complete.")
}
