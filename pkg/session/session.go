// Package session tracks the client identity sent with every API request:
// a GUID created once per installation and a session counter that advances
// after a period of inactivity.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/donaldgifford/constructorio-go/internal/metrics"
	"github.com/donaldgifford/constructorio-go/pkg/logger"
)

// DefaultTimeout is the idle gap after which a new session starts.
const DefaultTimeout = 30 * time.Minute

// StartFunc is called once for every session started.
type StartFunc func(ctx context.Context, sessionID int)

// Manager owns the client id and session counter. All methods are safe for
// concurrent use.
type Manager struct {
	store    Store
	log      *slog.Logger
	timeout  time.Duration
	nowFunc  func() time.Time // for testing
	newID    func() string
	onStarts []StartFunc

	mu    sync.Mutex
	state State
}

// Option configures a Manager.
type Option func(*Manager)

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) Option {
	return func(m *Manager) {
		m.nowFunc = f
	}
}

// WithTimeout overrides the idle timeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.log = logger.OrDiscard(l)
	}
}

// OnSessionStart registers f to run whenever a session starts.
func OnSessionStart(f StartFunc) Option {
	return func(m *Manager) {
		if f != nil {
			m.onStarts = append(m.onStarts, f)
		}
	}
}

// New loads identity state from store, creating and persisting a client id
// if none exists. A nil store is replaced with a MemoryStore.
func New(ctx context.Context, store Store, opts ...Option) (*Manager, error) {
	if store == nil {
		store = NewMemoryStore()
	}

	m := &Manager{
		store:   store,
		log:     logger.Discard(),
		timeout: DefaultTimeout,
		nowFunc: time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}

	state, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading identity: %w", err)
	}

	if state.ClientID == "" {
		state.ClientID = m.newID()
		if err := store.Save(ctx, state); err != nil {
			return nil, fmt.Errorf("saving new client id: %w", err)
		}
		m.log.Debug("created client id", "client_id", state.ClientID)
	}

	m.state = state
	return m, nil
}

// ClientID returns the stable client GUID.
func (m *Manager) ClientID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ClientID
}

// SessionID returns the current session id, starting a new session first
// when none exists or the last access is older than the idle timeout. Every
// call refreshes the last access time.
func (m *Manager) SessionID(ctx context.Context) int {
	m.mu.Lock()
	now := m.nowFunc()
	started := false
	switch {
	case m.state.SessionID <= 0:
		m.state.SessionID = 1
		started = true
	case now.Sub(m.state.LastAccess) > m.timeout:
		m.state.SessionID++
		started = true
	}
	m.state.LastAccess = now
	snapshot := m.state

	// Saved under the lock so concurrent callers cannot persist out of order.
	if err := m.store.Save(ctx, snapshot); err != nil {
		metrics.IdentitySaveFailuresTotal.Inc()
		m.log.Warn("saving session state", "session_id", snapshot.SessionID, "err", err)
	}
	m.mu.Unlock()

	if started {
		metrics.SessionStartsTotal.Inc()
		m.log.Debug("session started", "session_id", snapshot.SessionID)
		for _, f := range m.onStarts {
			f(ctx, snapshot.SessionID)
		}
	}

	return snapshot.SessionID
}

// Current returns the session id without starting a session or refreshing
// the last access time. It is zero before the first SessionID call.
func (m *Manager) Current() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.SessionID
}

// Snapshot returns a copy of the in-memory state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}
