package memory

import (
	"context"
	"sort"
	"sync"

	"dyscalc-screening-service/internal/domain"
)

// ResultStore keeps the append-only result history in process memory.
type ResultStore struct {
	mu     sync.RWMutex
	byUser map[string][]domain.Result
}

func NewResultStore() *ResultStore {
	return &ResultStore{byUser: make(map[string][]domain.Result)}
}

func (s *ResultStore) SaveResult(_ context.Context, result domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[result.UserID] = append(s.byUser[result.UserID], result)
	return nil
}

func (s *ResultStore) ListResults(_ context.Context, userID string) ([]domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]domain.Result, len(s.byUser[userID]))
	copy(results, s.byUser[userID])
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return results, nil
}
