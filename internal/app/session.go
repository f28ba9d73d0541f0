package app

import (
	"context"
	"time"

	"dyscalc-screening-service/internal/domain"
	"dyscalc-screening-service/internal/generate"
)

// ScreeningSession is the transient state of one live adaptive screening
// run. It is serialized as-is into the session store so a dropped
// connection can resume by id.
type ScreeningSession struct {
	ID         string                   `json:"id"`
	UserID     string                   `json:"userId"`
	Domain     string                   `json:"domain"`
	Subtype    string                   `json:"subtype,omitempty"`
	Difficulty int                      `json:"difficulty"`
	Questions  []domain.Question        `json:"questions"`
	Answers    []domain.SubmittedAnswer `json:"answers"`
	StartedAt  time.Time                `json:"startedAt"`
}

// CurrentQuestion returns the question awaiting an answer.
func (s ScreeningSession) CurrentQuestion() domain.Question {
	return s.Questions[len(s.Questions)-1]
}

// Finished reports whether the run has collected all its answers.
func (s ScreeningSession) Finished() bool {
	return len(s.Answers) >= generate.QuestionsPerRun
}

// SessionStore persists in-flight screening sessions (in-memory or redis
// with TTL).
type SessionStore interface {
	SaveSession(ctx context.Context, session ScreeningSession) error
	GetSession(ctx context.Context, id string) (ScreeningSession, error)
	DeleteSession(ctx context.Context, id string) error
}

// ScreeningStep is what the transport relays after each answer.
type ScreeningStep struct {
	Session  ScreeningSession
	Next     *domain.Question
	Correct  bool
	Finished bool
	Result   *domain.Result
}

// BeginScreening opens an adaptive run for one domain and returns the
// session with its first question.
func (s *AssessmentService) BeginScreening(ctx context.Context, identity domain.Identity, dom, subtype string) (ScreeningSession, error) {
	if identity.UserID == "" {
		return ScreeningSession{}, domain.ErrUnauthenticated
	}
	if !validDomain(dom) {
		return ScreeningSession{}, domain.Validationf("unknown domain %q", dom)
	}

	session := ScreeningSession{
		ID:         s.newID(),
		UserID:     identity.UserID,
		Domain:     dom,
		Subtype:    subtype,
		Difficulty: 1,
		StartedAt:  s.now(),
	}
	session.Questions = append(session.Questions, s.generator.Question(dom, 1, 0, subtype))
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return ScreeningSession{}, err
	}
	return session, nil
}

// ResumeScreening fetches an in-flight session so a reconnecting client
// can continue from its current question.
func (s *AssessmentService) ResumeScreening(ctx context.Context, identity domain.Identity, sessionID string) (ScreeningSession, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return ScreeningSession{}, err
	}
	if session.UserID != identity.UserID {
		return ScreeningSession{}, domain.ErrForbidden
	}
	return session, nil
}

// AnswerScreening records one answer (selected is nil on timeout), adapts
// the difficulty, and either serves the next question or finalizes the run
// through the regular start/submit pipeline.
func (s *AssessmentService) AnswerScreening(ctx context.Context, identity domain.Identity, sessionID string, selected *string, responseTimeMs int64) (ScreeningStep, error) {
	session, err := s.ResumeScreening(ctx, identity, sessionID)
	if err != nil {
		return ScreeningStep{}, err
	}
	if session.Finished() {
		return ScreeningStep{}, domain.ErrSessionFinished
	}

	question := session.CurrentQuestion()
	answer := domain.SubmittedAnswer{
		QuestionID:     question.ID,
		SelectedAnswer: selected,
		ResponseTimeMs: responseTimeMs,
		Attempts:       1,
	}
	wasCorrect := selected != nil && *selected == question.CorrectAnswer
	session.Answers = append(session.Answers, answer)

	if !session.Finished() {
		session.Difficulty = generate.NextDifficulty(session.Difficulty, wasCorrect)
		next := s.generator.Question(session.Domain, session.Difficulty, len(session.Questions), session.Subtype)
		session.Questions = append(session.Questions, next)
		if err := s.sessions.SaveSession(ctx, session); err != nil {
			return ScreeningStep{}, err
		}
		return ScreeningStep{Session: session, Next: &next, Correct: wasCorrect}, nil
	}

	assessment, err := s.StartAssessment(ctx, identity, session.Questions)
	if err != nil {
		return ScreeningStep{}, err
	}
	result, err := s.SubmitAssessment(ctx, identity, assessment.ID, session.Answers)
	if err != nil {
		return ScreeningStep{}, err
	}
	if err := s.sessions.DeleteSession(ctx, session.ID); err != nil {
		return ScreeningStep{}, err
	}
	return ScreeningStep{Session: session, Correct: wasCorrect, Finished: true, Result: &result}, nil
}

// AbandonScreening drops an in-flight session without scoring it.
func (s *AssessmentService) AbandonScreening(ctx context.Context, identity domain.Identity, sessionID string) error {
	session, err := s.ResumeScreening(ctx, identity, sessionID)
	if err != nil {
		return err
	}
	return s.sessions.DeleteSession(ctx, session.ID)
}

func validDomain(dom string) bool {
	for _, d := range domain.Domains {
		if d == dom {
			return true
		}
	}
	return false
}
