package session

import (
	"context"
	"sync"
	"time"
)

// State is the persisted identity snapshot.
type State struct {
	ClientID   string    `json:"client_id"`
	SessionID  int       `json:"session_id"`
	LastAccess time.Time `json:"last_access"`
}

// Store persists identity state between runs. Load returns the zero State
// and a nil error when nothing has been saved yet.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, s State) error
}

// MemoryStore keeps state in process memory. It is the default Store.
type MemoryStore struct {
	mu    sync.Mutex
	state State
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the last saved state.
func (m *MemoryStore) Load(_ context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, nil
}

// Save replaces the stored state.
func (m *MemoryStore) Save(_ context.Context, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
	return nil
}
