package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAssessmentNotFound indicates no question set exists for the given id.
	ErrAssessmentNotFound = errors.New("assessment not found")
	// ErrResultNotFound indicates the referenced result is absent.
	ErrResultNotFound = errors.New("result not found")
	// ErrUserNotFound indicates the referenced user is absent.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken indicates a registration against an existing email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUnauthenticated indicates the caller identity is missing or invalid.
	ErrUnauthenticated = errors.New("not authorized")
	// ErrForbidden indicates an authenticated caller lacks permission.
	ErrForbidden = errors.New("forbidden")
	// ErrSessionNotFound indicates a screening session has expired or never existed.
	ErrSessionNotFound = errors.New("screening session not found")
	// ErrSessionFinished indicates an answer arrived after the last question.
	ErrSessionFinished = errors.New("screening session already finished")
	// ErrBadCredentials indicates a failed login.
	ErrBadCredentials = errors.New("invalid email or password")
)

// ValidationError reports malformed or missing input with a message safe to
// surface to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
