package application

import (
	"sync"

	"github.com/bnema/feedlink/internal/domain"
)

// SessionStore owns the process-wide session. Readers get copies; the only
// writer is the resolver, which replaces the whole session in one commit.
type SessionStore struct {
	mu      sync.RWMutex
	session domain.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{session: domain.NewSession()}
}

func (s *SessionStore) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.session.Clone()
}

func (s *SessionStore) commit(session domain.Session) {
	session = session.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = session
}
