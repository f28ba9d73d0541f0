package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"dyscalc-screening-service/internal/app"
	"dyscalc-screening-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SessionStore keeps in-flight screening sessions in Redis so a learner
// can resume a run against any service instance. The TTL doubles as the
// abandonment cutoff: a session that outlives it simply disappears.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) SaveSession(ctx context.Context, session app.ScreeningSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(session.ID), data, s.ttl).Err()
}

func (s *SessionStore) GetSession(ctx context.Context, id string) (app.ScreeningSession, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return app.ScreeningSession{}, domain.ErrSessionNotFound
		}
		return app.ScreeningSession{}, err
	}
	var session app.ScreeningSession
	if err := json.Unmarshal(data, &session); err != nil {
		return app.ScreeningSession{}, err
	}
	return session, nil
}

func (s *SessionStore) DeleteSession(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

func (s *SessionStore) key(id string) string {
	return "screening:session:" + id
}
