package store

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

var (
	// ErrDuplicateUsername is returned when a username is already taken.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrDuplicateEmail is returned when an email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
)

const (
	pqUniqueViolation     = pq.ErrorCode("23505")
	pqForeignKeyViolation = pq.ErrorCode("23503")

	usersUsernameConstraint = "users_username_key"
	usersEmailConstraint    = "users_email_key"
)

// translateUserError maps unique violations on the users table to the
// duplicate sentinels.
func translateUserError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != pqUniqueViolation {
		return err
	}
	switch pqErr.Constraint {
	case usersUsernameConstraint:
		return ErrDuplicateUsername
	case usersEmailConstraint:
		return ErrDuplicateEmail
	default:
		return err
	}
}

// isForeignKeyViolation reports whether err is a foreign key violation, which
// for favorites means the referenced recipe or user does not exist.
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation
}
