package memory

import (
	"context"
	"sort"
	"sync"

	"dyscalc-screening-service/internal/domain"
)

// UserStore keeps accounts in process memory.
type UserStore struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
}

func NewUserStore() *UserStore {
	return &UserStore{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

func (s *UserStore) CreateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[user.Email]; ok {
		return domain.ErrEmailTaken
	}
	s.byID[user.ID] = user
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *UserStore) UserByID(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *UserStore) UserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return s.byID[id], nil
}

func (s *UserStore) UpdateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if existing.Email != user.Email {
		delete(s.byEmail, existing.Email)
		s.byEmail[user.Email] = user.ID
	}
	s.byID[user.ID] = user
	return nil
}

func (s *UserStore) ListStudents(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	students := make([]domain.User, 0)
	for _, user := range s.byID {
		if user.Role == domain.RoleStudent {
			students = append(students, user)
		}
	}
	sort.Slice(students, func(i, j int) bool {
		return students[i].CreatedAt.After(students[j].CreatedAt)
	})
	return students, nil
}
