package services

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when an operation needs a signed-in user.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotOwner is returned when the requester does not own the recipe.
	// It matches ErrUnauthorized under errors.Is.
	ErrNotOwner = fmt.Errorf("%w: not the recipe owner", ErrUnauthorized)

	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateRegistration wraps store.ErrDuplicateUsername or
	// store.ErrDuplicateEmail.
	ErrDuplicateRegistration = errors.New("duplicate registration")
)

// ValidationError reports user input that was rejected before reaching the
// store. Message is suitable for showing to the user.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
