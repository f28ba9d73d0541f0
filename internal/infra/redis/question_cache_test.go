package redis

import (
	"context"
	"testing"
	"time"

	"dyscalc-screening-service/internal/domain"
	"dyscalc-screening-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestQuestionSetCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	store := memory.NewAssessmentStore()
	_ = store.CreateAssessment(context.Background(), sampleAssessment())
	loader := &countingLoader{QuestionSetLoader: store}
	cache := NewQuestionSetCache(client, loader, time.Minute)

	questions, err := cache.GetQuestionSet(context.Background(), "assess-1")
	if err != nil {
		t.Fatalf("get question set: %v", err)
	}
	if len(questions) != 1 || questions[0].CorrectAnswer != "4" {
		t.Fatalf("unexpected questions: %+v", questions)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("assessment:assess-1:questions") {
		t.Fatalf("expected redis key to be set")
	}

	// Second call should hit cache, loader not incremented.
	if _, err := cache.GetQuestionSet(context.Background(), "assess-1"); err != nil {
		t.Fatalf("get question set 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
}

func TestQuestionSetCacheMiss(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	cache := NewQuestionSetCache(newClient(mr), memory.NewAssessmentStore(), time.Minute)
	if _, err := cache.GetQuestionSet(context.Background(), "nope"); err != domain.ErrAssessmentNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

type countingLoader struct {
	QuestionSetLoader
	calls int
}

func (l *countingLoader) LoadQuestionSet(ctx context.Context, assessmentID string) ([]domain.Question, error) {
	l.calls++
	return l.QuestionSetLoader.LoadQuestionSet(ctx, assessmentID)
}

func sampleAssessment() domain.Assessment {
	return domain.Assessment{
		ID:     "assess-1",
		UserID: "user-1",
		Questions: []domain.Question{
			{
				ID:            "q1",
				Domain:        domain.DomainArithmetic,
				Text:          "2 + 2 = ?",
				Options:       []domain.Option{{Text: "3"}, {Text: "4", IsCorrect: true}},
				CorrectAnswer: "4",
				Difficulty:    1,
			},
		},
		Status:    domain.AssessmentInProgress,
		StartedAt: time.Now(),
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}
