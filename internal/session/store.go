// Package session holds per-browser state for the dashboard: the OAuth
// token bundle and the in-flight authorization state, keyed by a signed
// cookie.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Session is the server-side state associated with one browser client.
type Session struct {
	ID string

	// Token is the OAuth token bundle stored after a successful callback.
	// Nil while the session is anonymous.
	Token *oauth2.Token

	// State is the pending OAuth authorization state parameter. Cleared
	// once the callback consumes it.
	State string

	CreatedAt time.Time
	LastSeen  time.Time
}

// Authenticated reports whether the session holds a token bundle. It never
// validates the token against the provider.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != nil && s.Token.AccessToken != ""
}

// Store is an interface for keyed session storage. Handlers receive a
// Store rather than touching ambient state, so the in-memory
// implementation can be swapped for a durable one without changing them.
type Store interface {
	Get(id string) (*Session, bool)
	Put(s *Session)
	Delete(id string)
	DeleteExpired(ttl time.Duration) int
}

// MemoryStore is an in-memory Store implementation. Sessions do not
// survive a process restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// New creates an unsaved anonymous session with a fresh id.
func New() *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		LastSeen:  now,
	}
}

// Get returns the session with the given id and refreshes its LastSeen.
func (m *MemoryStore) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	s.LastSeen = time.Now()
	return s, true
}

// Put saves (or replaces) the session under its id.
func (m *MemoryStore) Put(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
}

// Delete removes the session with the given id, if present.
func (m *MemoryStore) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// DeleteExpired removes sessions whose LastSeen is older than ttl and
// returns how many were removed.
func (m *MemoryStore) DeleteExpired(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.LastSeen.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
