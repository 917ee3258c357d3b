// Package ws tracks live websocket sessions and user presence.
package ws

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Conn is the minimal surface the manager needs from a websocket
// connection. Both the fiber and gorilla connection types satisfy it.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// session is one live connection. Websocket connections are not safe for
// concurrent writes, so every write holds the session's own mutex.
type session struct {
	conn Conn
	mu   sync.Mutex
}

func (s *session) writeJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

// Manager owns the session table and the user -> connection presence
// binding. A user is online while a binding exists; the last join wins.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*session
	presence map[string]string // userID -> connID
	logger   *slog.Logger
}

// NewManager creates an empty connection manager.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*session),
		presence: make(map[string]string),
		logger:   logger.With("component", "ws.manager"),
	}
}

// Connect registers a live connection and returns its id.
func (m *Manager) Connect(conn Conn) string {
	connID := "conn_" + uuid.NewString()

	m.mu.Lock()
	m.sessions[connID] = &session{conn: conn}
	count := len(m.sessions)
	m.mu.Unlock()

	m.logger.Debug("connection opened", "conn_id", connID, "total", count)
	return connID
}

// Disconnect removes a connection and any presence binding that refers to
// it. Unknown ids are a no-op.
func (m *Manager) Disconnect(connID string) {
	m.mu.Lock()
	_, known := m.sessions[connID]
	delete(m.sessions, connID)
	for userID, bound := range m.presence {
		if bound == connID {
			delete(m.presence, userID)
		}
	}
	m.mu.Unlock()

	if known {
		m.logger.Debug("connection closed", "conn_id", connID)
	}
}

// Register binds a user to a connection. A later join replaces any earlier
// binding for the same user. Returns false when the connection is unknown.
func (m *Manager) Register(userID, connID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[connID]; !ok {
		return false
	}
	m.presence[userID] = connID
	return true
}

// SendToUser delivers a payload to the user's bound connection. Returns
// false without side effects when the user is offline; a write failure
// disconnects the session and returns false.
func (m *Manager) SendToUser(userID string, payload any) bool {
	m.mu.RLock()
	connID, online := m.presence[userID]
	sess := m.sessions[connID]
	m.mu.RUnlock()

	if !online || sess == nil {
		return false
	}

	if err := sess.writeJSON(payload); err != nil {
		m.logger.Warn("write failed, dropping connection", "user_id", userID, "conn_id", connID, "error", err)
		m.Disconnect(connID)
		sess.conn.Close()
		return false
	}
	return true
}

// SendToConn delivers a payload to one connection by id, regardless of
// presence. Returns false when the connection is unknown or the write fails.
func (m *Manager) SendToConn(connID string, payload any) bool {
	m.mu.RLock()
	sess := m.sessions[connID]
	m.mu.RUnlock()

	if sess == nil {
		return false
	}
	if err := sess.writeJSON(payload); err != nil {
		m.logger.Warn("write failed, dropping connection", "conn_id", connID, "error", err)
		m.Disconnect(connID)
		sess.conn.Close()
		return false
	}
	return true
}

// OnlineUserIDs returns the ids of all users with a live binding.
func (m *Manager) OnlineUserIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.presence))
	for userID := range m.presence {
		ids = append(ids, userID)
	}
	return ids
}

// Count returns the number of live connections.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// BroadcastPresence pushes the online-user list to every session. One
// failing session is dropped without affecting the rest.
func (m *Manager) BroadcastPresence() {
	payload := PresenceEvent{Type: "presence", OnlineUsers: m.OnlineUserIDs()}

	m.mu.RLock()
	targets := make(map[string]*session, len(m.sessions))
	for id, sess := range m.sessions {
		targets[id] = sess
	}
	m.mu.RUnlock()

	for connID, sess := range targets {
		if err := sess.writeJSON(payload); err != nil {
			m.logger.Warn("presence write failed, dropping connection", "conn_id", connID, "error", err)
			m.Disconnect(connID)
			sess.conn.Close()
		}
	}
}

// PresenceEvent is the server -> client presence payload.
type PresenceEvent struct {
	Type        string   `json:"type"`
	OnlineUsers []string `json:"online_users"`
}
