package services_test

import (
	"errors"
	"testing"

	"github.com/recipebox/webapp/internal/services"
	"github.com/recipebox/webapp/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterHashesPassword(t *testing.T) {
	f := newFixture(t)

	user, err := f.users.Register(f.ctx, services.Registration{
		Username:        " alice ",
		Email:           "Alice@Example.COM",
		Password:        "correct horse",
		ConfirmPassword: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "correct horse", user.PasswordHash)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice")

	_, err := f.users.Register(f.ctx, services.Registration{
		Username:        "alice2",
		Email:           "ALICE@example.com",
		Password:        "password1",
		ConfirmPassword: "password1",
	})
	assert.ErrorIs(t, err, services.ErrDuplicateRegistration)
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)

	_, err = f.users.Register(f.ctx, services.Registration{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "password1",
		ConfirmPassword: "password1",
	})
	assert.ErrorIs(t, err, services.ErrDuplicateRegistration)
	assert.ErrorIs(t, err, store.ErrDuplicateUsername)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		reg     services.Registration
		field   string
		message string
	}{
		{
			name:    "missing username",
			reg:     services.Registration{Email: "a@example.com", Password: "password1", ConfirmPassword: "password1"},
			field:   "username",
			message: "Username is required.",
		},
		{
			name:    "bad email",
			reg:     services.Registration{Username: "a", Email: "nope", Password: "password1", ConfirmPassword: "password1"},
			field:   "email",
			message: "Please enter a valid email address.",
		},
		{
			name:    "short password",
			reg:     services.Registration{Username: "a", Email: "a@example.com", Password: "short", ConfirmPassword: "short"},
			field:   "password",
			message: "Password must be at least 8 characters.",
		},
		{
			name:    "mismatch",
			reg:     services.Registration{Username: "a", Email: "a@example.com", Password: "password1", ConfirmPassword: "password2"},
			field:   "confirm_password",
			message: "Passwords do not match.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.Register(f.ctx, tt.reg)
			var verr *services.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.message, verr.Message)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")

	user, err := f.users.Authenticate(f.ctx, "alice", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)

	_, err = f.users.Authenticate(f.ctx, "alice", "wrong")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, err = f.users.Authenticate(f.ctx, "nobody", "correct horse")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	f.register(t, "bob")

	updated, err := f.users.UpdateProfile(f.ctx, alice.ID, services.ProfileUpdate{
		FirstName: "Alice",
		LastName:  "Liddell",
		Email:     "alice@wonderland.test",
		Bio:       "Curious.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.FirstName)
	assert.Equal(t, "alice@wonderland.test", updated.Email)
	assert.Equal(t, "alice", updated.Username)

	_, err = f.users.UpdateProfile(f.ctx, alice.ID, services.ProfileUpdate{Email: "bob@example.com"})
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)

	_, err = f.users.UpdateProfile(f.ctx, 0, services.ProfileUpdate{Email: "x@example.com"})
	assert.ErrorIs(t, err, services.ErrUnauthorized)
}
