package core

import (
	"sync"

	"github.com/RohanJose/Chat-APP/internal/domain"
)

// ConnectionRegistry owns every live Connection record. All other structures
// reference connections by ID and must release those references before
// Unregister is called.
type ConnectionRegistry struct {
	mu    sync.RWMutex
	conns map[string]*domain.Connection
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		conns: make(map[string]*domain.Connection),
	}
}

// Register creates an entry with default metadata. Registering an already
// known ID overwrites the previous entry.
func (r *ConnectionRegistry) Register(id string) *domain.Connection {
	conn := domain.NewConnection(id)

	r.mu.Lock()
	r.conns[id] = conn
	r.mu.Unlock()

	return conn
}

// SetProfile records the display name and mode. Unknown IDs are a no-op:
// callers must register first.
func (r *ConnectionRegistry) SetProfile(id, displayName string, mode domain.Mode) {
	r.mu.RLock()
	conn, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return
	}
	conn.SetProfile(displayName, mode)
}

func (r *ConnectionRegistry) Lookup(id string) (*domain.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[id]
	return conn, ok
}

// Unregister removes the entry. It must run after all dependent cleanup so no
// stale reads observe a half-torn-down connection.
func (r *ConnectionRegistry) Unregister(id string) {
	r.mu.Lock()
	delete(r.conns, id)
	r.mu.Unlock()
}

func (r *ConnectionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
