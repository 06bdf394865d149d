// Package session provides the per-user session store. Session state —
// role, display name, profile identity, wizard progress, draft fields — is
// an explicit object held in an in-memory map keyed by an opaque token,
// never in process-wide globals, so multiple concurrent users are cleanly
// supported.
package session

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/creatornet/creatornet/internal/database"
	"github.com/creatornet/creatornet/internal/onboarding"
)

// Session is one user's serializable state.
type Session struct {
	Token       string
	Role        database.AccountType
	DisplayName string
	ProfileID   int64
	Wizard      *onboarding.Wizard
	ComposeToID int64

	lastSeen time.Time
}

// Manager owns all live sessions and their idle expiry.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	logger   *slog.Logger
}

// NewManager creates a session manager with the given idle TTL.
func NewManager(ttl time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		logger:   logger.With("component", "session"),
	}
}

// Start creates a fresh session with a new opaque token and a wizard in its
// initial state.
func (m *Manager) Start() *Session {
	s := &Session{
		Token:    uuid.NewString(),
		Wizard:   onboarding.New(),
		lastSeen: time.Now(),
	}

	m.mu.Lock()
	m.sessions[s.Token] = s
	m.mu.Unlock()

	return s
}

// Get returns the session for token and refreshes its idle timer. Returns
// nil for unknown or expired tokens.
func (m *Manager) Get(token string) *Session {
	if token == "" {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return nil
	}
	if time.Since(s.lastSeen) > m.ttl {
		delete(m.sessions, token)
		return nil
	}
	s.lastSeen = time.Now()
	return s
}

// End removes the session for token. Ending an unknown token is a no-op.
func (m *Manager) End(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// Sweep drops every session idle past the TTL and returns how many were
// removed. Run periodically by the scheduler.
func (m *Manager) Sweep() int {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for token, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(m.sessions, token)
			removed++
		}
	}

	if removed > 0 {
		m.logger.Debug("Swept expired sessions", "removed", removed, "live", len(m.sessions))
	}
	return removed
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
