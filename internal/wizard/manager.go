package wizard

import (
	"sync"

	"github.com/google/uuid"
)

// Manager owns the live wizard sessions, keyed by id. Sessions are
// in-memory only; an import that is abandoned simply ages out with the
// process.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Create starts a fresh session at the Upload step.
func (m *Manager) Create() *Session {
	session := NewSession(uuid.NewString())
	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()
	return session
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	return session, ok
}

func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
