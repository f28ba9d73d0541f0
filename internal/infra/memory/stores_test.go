package memory

import (
	"context"
	"testing"
	"time"

	"dyscalc-screening-service/internal/app"
	"dyscalc-screening-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	if err := store.SaveSession(ctx, app.ScreeningSession{ID: "s1", UserID: "u1"}); err != nil {
		t.Fatalf("save session: %v", err)
	}
	session, err := store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session.UserID != "u1" {
		t.Fatalf("expected u1, got %s", session.UserID)
	}

	if err := store.DeleteSession(ctx, "s1"); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := store.GetSession(ctx, "s1"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected session removed, got %v", err)
	}
}

func TestResultStoreOrdersNewestFirst(t *testing.T) {
	store := NewResultStore()
	ctx := context.Background()
	base := time.Now()

	for i, id := range []string{"r1", "r2", "r3"} {
		err := store.SaveResult(ctx, domain.Result{
			ID:        id,
			UserID:    "u1",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("save result: %v", err)
		}
	}

	results, err := store.ListResults(ctx, "u1")
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].ID != "r3" || results[2].ID != "r1" {
		t.Fatalf("expected newest first, got %s..%s", results[0].ID, results[2].ID)
	}
}

func TestUserStoreEmailUniqueness(t *testing.T) {
	store := NewUserStore()
	ctx := context.Background()

	user := domain.User{ID: "u1", Email: "a@b.c", Role: domain.RoleStudent}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	err := store.CreateUser(ctx, domain.User{ID: "u2", Email: "a@b.c"})
	if err != domain.ErrEmailTaken {
		t.Fatalf("expected email taken, got %v", err)
	}

	found, err := store.UserByEmail(ctx, "a@b.c")
	if err != nil || found.ID != "u1" {
		t.Fatalf("lookup by email failed: %v %+v", err, found)
	}
}

func TestMarkCompleted(t *testing.T) {
	store := NewAssessmentStore()
	ctx := context.Background()
	_ = store.CreateAssessment(ctx, sampleAssessment())

	completedAt := time.Now()
	if err := store.MarkCompleted(ctx, "assess-1", completedAt); err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	assessment, err := store.GetAssessment(ctx, "assess-1")
	if err != nil {
		t.Fatalf("get assessment: %v", err)
	}
	if assessment.Status != domain.AssessmentCompleted || assessment.CompletedAt == nil {
		t.Fatalf("expected completed assessment, got %+v", assessment)
	}

	if err := store.MarkCompleted(ctx, "nope", completedAt); err != domain.ErrAssessmentNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
