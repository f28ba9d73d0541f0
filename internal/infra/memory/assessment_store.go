package memory

import (
	"context"
	"sync"
	"time"

	"dyscalc-screening-service/internal/domain"
)

// AssessmentStore keeps assessments in process memory. It serves both the
// write side (app.AssessmentRepository) and the read side
// (QuestionSetLoader) of the no-postgres tier.
type AssessmentStore struct {
	mu          sync.RWMutex
	assessments map[string]domain.Assessment
}

func NewAssessmentStore() *AssessmentStore {
	return &AssessmentStore{assessments: make(map[string]domain.Assessment)}
}

func (s *AssessmentStore) CreateAssessment(_ context.Context, assessment domain.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assessments[assessment.ID] = assessment
	return nil
}

func (s *AssessmentStore) MarkCompleted(_ context.Context, assessmentID string, completedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	assessment, ok := s.assessments[assessmentID]
	if !ok {
		return domain.ErrAssessmentNotFound
	}
	assessment.Status = domain.AssessmentCompleted
	assessment.CompletedAt = &completedAt
	s.assessments[assessmentID] = assessment
	return nil
}

func (s *AssessmentStore) LoadQuestionSet(_ context.Context, assessmentID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	assessment, ok := s.assessments[assessmentID]
	if !ok {
		return nil, domain.ErrAssessmentNotFound
	}
	return assessment.Questions, nil
}

// GetAssessment is used by tests to inspect lifecycle transitions.
func (s *AssessmentStore) GetAssessment(_ context.Context, assessmentID string) (domain.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	assessment, ok := s.assessments[assessmentID]
	if !ok {
		return domain.Assessment{}, domain.ErrAssessmentNotFound
	}
	return assessment, nil
}
