package session

import "sync"

// Manager manages session lifecycle. It provides command-query separation
// for session access and is safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session // session id -> engine state
}

// NewManager creates a new session manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

// Get retrieves a session by id (query).
// Returns nil if no session exists for this id.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// GetOrCreate retrieves a session, creating it if it doesn't exist (command).
// Returns the session (existing or newly created).
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sessions[id] == nil {
		m.sessions[id] = newSession(id)
	}
	return m.sessions[id]
}

// Delete removes all state for a session (command). This is the only way
// session state is ever discarded.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// IDs returns the known session ids (query).
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
