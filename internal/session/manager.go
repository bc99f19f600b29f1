package session

import (
	"context"
	"sync"
	"time"

	"github.com/rocjay1/ledger-entry/internal/schema"
)

// Manager keeps the sessions of the HTTP facade and expires idle ones.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	deps        Deps
	idleTimeout time.Duration
}

// NewManager creates a manager whose sessions share deps. A zero idleTimeout never expires.
func NewManager(deps Deps, idleTimeout time.Duration) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		deps:        deps,
		idleTimeout: idleTimeout,
	}
}

// Create registers a new idle session.
func (m *Manager) Create() *Session {
	s := New(m.deps)
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s
}

// Get returns the session with id, or false when it is unknown or expired.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if m.expired(s, time.Now()) {
		m.Remove(id)
		return nil, false
	}
	return s, true
}

func (m *Manager) Remove(id string) {
	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		s.Cancel()
		delete(m.sessions, id)
	}
	m.mu.Unlock()
}

// Registry is the kind table sessions of this manager validate against.
func (m *Manager) Registry() *schema.Registry {
	return m.deps.Builder.Registry()
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) expired(s *Session, now time.Time) bool {
	if m.idleTimeout <= 0 {
		return false
	}
	last, idle := s.idleSince()
	return idle && now.Sub(last) > m.idleTimeout
}

// Cleanup removes expired sessions and returns how many were dropped.
func (m *Manager) Cleanup() int {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if m.expired(s, now) {
			s.Cancel()
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (m *Manager) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Cleanup(); n > 0 {
				m.deps.Logger.Debug().Int("expired", n).Msg("removed idle sessions")
			}
		}
	}
}
