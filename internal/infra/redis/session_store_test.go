package redis

import (
	"context"
	"testing"
	"time"

	"dyscalc-screening-service/internal/app"
	"dyscalc-screening-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestSessionStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)
	ctx := context.Background()

	session := app.ScreeningSession{
		ID:         "s1",
		UserID:     "u1",
		Domain:     domain.DomainMemory,
		Difficulty: 2,
		Questions:  []domain.Question{{ID: "q1", Domain: domain.DomainMemory, CorrectAnswer: "5"}},
	}
	if err := store.SaveSession(ctx, session); err != nil {
		t.Fatalf("save session: %v", err)
	}
	if !mr.Exists("screening:session:s1") {
		t.Fatalf("expected redis key to be set")
	}

	loaded, err := store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if loaded.Domain != domain.DomainMemory || loaded.Difficulty != 2 || len(loaded.Questions) != 1 {
		t.Fatalf("unexpected session: %+v", loaded)
	}

	if err := store.DeleteSession(ctx, "s1"); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := store.GetSession(ctx, "s1"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)
	ctx := context.Background()

	if err := store.SaveSession(ctx, app.ScreeningSession{ID: "s1", UserID: "u1"}); err != nil {
		t.Fatalf("save session: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, err := store.GetSession(ctx, "s1"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected expired session to be gone, got %v", err)
	}
}
