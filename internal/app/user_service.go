package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"dyscalc-screening-service/internal/auth"
	"dyscalc-screening-service/internal/domain"
	"github.com/google/uuid"
)

// UserService covers accounts: registration, login, profiles, and the
// parent-child guardian link.
type UserService struct {
	users UserRepository
	now   func() time.Time
	newID func() string
}

func NewUserService(users UserRepository) *UserService {
	return &UserService{users: users, now: time.Now, newID: uuid.NewString}
}

// Registration is the input to Register.
type Registration struct {
	Name     string
	Email    string
	Password string
	Role     string
	Age      int
	Grade    string
	Language string
	Consent  bool
}

var validRoles = map[string]bool{
	domain.RoleStudent: true,
	domain.RoleParent:  true,
	domain.RoleTeacher: true,
	domain.RoleAdmin:   true,
}

// Register creates an account with a bcrypt-hashed password. The role
// defaults to student.
func (s *UserService) Register(ctx context.Context, reg Registration) (domain.User, error) {
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	if reg.Role == "" {
		reg.Role = domain.RoleStudent
	}
	if !validRoles[reg.Role] {
		return domain.User{}, domain.Validationf("unknown role %q", reg.Role)
	}

	if _, err := s.users.UserByEmail(ctx, reg.Email); err == nil {
		return domain.User{}, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, err
	}

	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		return domain.User{}, err
	}
	user := domain.User{
		ID:           s.newID(),
		Name:         reg.Name,
		Email:        reg.Email,
		PasswordHash: hash,
		Role:         reg.Role,
		Age:          reg.Age,
		Grade:        reg.Grade,
		Language:     reg.Language,
		Consent:      reg.Consent,
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Login verifies credentials and returns the account.
func (s *UserService) Login(ctx context.Context, email, password string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.User{}, domain.ErrBadCredentials
		}
		return domain.User{}, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return domain.User{}, domain.ErrBadCredentials
	}
	return user, nil
}

// Profile returns the caller's account.
func (s *UserService) Profile(ctx context.Context, identity domain.Identity) (domain.User, error) {
	if identity.UserID == "" {
		return domain.User{}, domain.ErrUnauthenticated
	}
	return s.users.UserByID(ctx, identity.UserID)
}

// ProfileUpdate carries the mutable profile fields; empty values are left
// unchanged.
type ProfileUpdate struct {
	Name     string
	Age      int
	Grade    string
	Language string
}

// UpdateProfile applies the provided fields to the caller's account.
func (s *UserService) UpdateProfile(ctx context.Context, identity domain.Identity, update ProfileUpdate) (domain.User, error) {
	user, err := s.Profile(ctx, identity)
	if err != nil {
		return domain.User{}, err
	}
	if update.Name != "" {
		user.Name = update.Name
	}
	if update.Age != 0 {
		user.Age = update.Age
	}
	if update.Grade != "" {
		user.Grade = update.Grade
	}
	if update.Language != "" {
		user.Language = update.Language
	}
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// LinkChild points a child account's guardian link at the calling parent.
func (s *UserService) LinkChild(ctx context.Context, identity domain.Identity, childID string) error {
	if identity.UserID == "" {
		return domain.ErrUnauthenticated
	}
	if identity.Role != domain.RoleParent {
		return domain.ErrForbidden
	}
	if childID == "" {
		return domain.Validationf("childId is required")
	}
	child, err := s.users.UserByID(ctx, childID)
	if err != nil {
		return err
	}
	child.GuardianID = identity.UserID
	return s.users.UpdateUser(ctx, child)
}

// Students lists student accounts for teachers and admins.
func (s *UserService) Students(ctx context.Context, identity domain.Identity) ([]domain.User, error) {
	if identity.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if identity.Role != domain.RoleTeacher && identity.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	return s.users.ListStudents(ctx)
}
