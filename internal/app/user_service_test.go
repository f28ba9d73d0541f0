package app_test

import (
	"context"
	"testing"

	"dyscalc-screening-service/internal/app"
	"dyscalc-screening-service/internal/domain"
	"dyscalc-screening-service/internal/infra/memory"
)

func newUserService() (*app.UserService, *memory.UserStore) {
	store := memory.NewUserStore()
	return app.NewUserService(store), store
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	service, _ := newUserService()

	user, err := service.Register(ctx, app.Registration{
		Name:     "Ada",
		Email:    "  Ada@Example.COM ",
		Password: "hunter22",
		Age:      8,
		Grade:    "3",
		Language: "en",
		Consent:  true,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.Role != domain.RoleStudent {
		t.Fatalf("role should default to student, got %s", user.Role)
	}
	if user.PasswordHash == "" || user.PasswordHash == "hunter22" {
		t.Fatal("password must be stored hashed")
	}

	if _, err := service.Register(ctx, app.Registration{Email: "ada@example.com", Password: "x"}); err != domain.ErrEmailTaken {
		t.Fatalf("expected email taken, got %v", err)
	}
	if _, err := service.Register(ctx, app.Registration{Email: "b@example.com", Password: "x", Role: "wizard"}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for bad role, got %v", err)
	}

	if _, err := service.Login(ctx, "ADA@example.com", "hunter22"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := service.Login(ctx, "ada@example.com", "wrong"); err != domain.ErrBadCredentials {
		t.Fatalf("expected bad credentials, got %v", err)
	}
	if _, err := service.Login(ctx, "nobody@example.com", "x"); err != domain.ErrBadCredentials {
		t.Fatalf("unknown email must look like bad credentials, got %v", err)
	}
}

func TestUpdateProfileKeepsUnsetFields(t *testing.T) {
	ctx := context.Background()
	service, _ := newUserService()

	user, err := service.Register(ctx, app.Registration{Name: "Ada", Email: "ada@example.com", Password: "x", Age: 8, Grade: "3"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	identity := domain.Identity{UserID: user.ID, Role: user.Role}

	updated, err := service.UpdateProfile(ctx, identity, app.ProfileUpdate{Grade: "4"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Grade != "4" || updated.Name != "Ada" || updated.Age != 8 {
		t.Fatalf("unexpected profile after update: %+v", updated)
	}
}

func TestLinkChildAndStudents(t *testing.T) {
	ctx := context.Background()
	service, store := newUserService()

	child, err := service.Register(ctx, app.Registration{Name: "Kid", Email: "kid@example.com", Password: "x"})
	if err != nil {
		t.Fatalf("register child: %v", err)
	}
	parent, err := service.Register(ctx, app.Registration{Name: "Pat", Email: "pat@example.com", Password: "x", Role: domain.RoleParent})
	if err != nil {
		t.Fatalf("register parent: %v", err)
	}

	parentID := domain.Identity{UserID: parent.ID, Role: domain.RoleParent}
	if err := service.LinkChild(ctx, parentID, child.ID); err != nil {
		t.Fatalf("link failed: %v", err)
	}
	linked, err := store.UserByID(ctx, child.ID)
	if err != nil || linked.GuardianID != parent.ID {
		t.Fatalf("guardian link not set: %v %+v", err, linked)
	}

	if err := service.LinkChild(ctx, domain.Identity{UserID: child.ID, Role: domain.RoleStudent}, parent.ID); err != domain.ErrForbidden {
		t.Fatalf("only parents may link, got %v", err)
	}
	if err := service.LinkChild(ctx, parentID, ""); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := service.LinkChild(ctx, parentID, "ghost"); err != domain.ErrUserNotFound {
		t.Fatalf("expected user not found, got %v", err)
	}

	students, err := service.Students(ctx, domain.Identity{UserID: "t1", Role: domain.RoleTeacher})
	if err != nil || len(students) != 1 || students[0].ID != child.ID {
		t.Fatalf("unexpected student list: %v %+v", err, students)
	}
	if _, err := service.Students(ctx, parentID); err != domain.ErrForbidden {
		t.Fatalf("parents may not list students, got %v", err)
	}
}
