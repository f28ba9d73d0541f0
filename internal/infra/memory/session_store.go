package memory

import (
	"context"
	"sync"

	"dyscalc-screening-service/internal/app"
	"dyscalc-screening-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]app.ScreeningSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]app.ScreeningSession)}
}

func (s *SessionStore) SaveSession(_ context.Context, session app.ScreeningSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *SessionStore) GetSession(_ context.Context, id string) (app.ScreeningSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return app.ScreeningSession{}, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
