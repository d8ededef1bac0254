package types

import "time"

// User represents an account in the system.
// It contains identity, optional profile details and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's unique email address.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt representation of the user's password.
	// This field is never exposed in responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// FirstName is the optional given name shown on the profile page.
	FirstName string `json:"first_name,omitempty" db:"first_name"`

	// LastName is the optional family name shown on the profile page.
	LastName string `json:"last_name,omitempty" db:"last_name"`

	// Bio is an optional free-form description written by the user.
	Bio string `json:"bio,omitempty" db:"bio"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent profile update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DisplayName returns the user's full name when known, otherwise the username.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}
