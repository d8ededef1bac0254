package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/recipebox/webapp/internal/store"
	"github.com/recipebox/webapp/types"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdateProfile(ctx context.Context, user types.User) (types.User, error)
}

// Registration is the sign-up form.
type Registration struct {
	Username        string `form:"username" validate:"required,max=50"`
	Email           string `form:"email" validate:"required,email,max=255"`
	Password        string `form:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `form:"confirm_password" validate:"eqfield=Password"`
}

// ProfileUpdate holds the editable profile fields.
type ProfileUpdate struct {
	FirstName string `form:"first_name" validate:"max=100"`
	LastName  string `form:"last_name" validate:"max=100"`
	Email     string `form:"email" validate:"required,email,max=255"`
	Bio       string `form:"bio" validate:"max=2000"`
}

// UserService encapsulates account use-cases.
type UserService struct {
	repo       UserRepository
	bcryptCost int
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo, bcryptCost: bcrypt.DefaultCost}
}

// NewUserServiceWithCost is NewUserService with an explicit bcrypt cost.
func NewUserServiceWithCost(repo UserRepository, cost int) *UserService {
	return &UserService{repo: repo, bcryptCost: cost}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

// Register creates an account. The username is checked before the email so
// the caller sees the username message when both are taken.
func (s *UserService) Register(ctx context.Context, reg Registration) (types.User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = normalizeEmail(reg.Email)
	if err := validateStruct(reg); err != nil {
		return types.User{}, err
	}

	taken, err := s.repo.ExistsByUsername(ctx, reg.Username)
	if err != nil {
		return types.User{}, err
	}
	if taken {
		return types.User{}, duplicateRegistration(store.ErrDuplicateUsername)
	}

	taken, err = s.repo.ExistsByEmail(ctx, reg.Email)
	if err != nil {
		return types.User{}, err
	}
	if taken {
		return types.User{}, duplicateRegistration(store.ErrDuplicateEmail)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.bcryptCost)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, types.User{
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) || errors.Is(err, store.ErrDuplicateEmail) {
			return types.User{}, duplicateRegistration(err)
		}
		return types.User{}, err
	}
	return user, nil
}

// Authenticate verifies a username and password.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (types.User, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// UpdateProfile replaces the profile fields of userID. A taken email is
// reported as store.ErrDuplicateEmail.
func (s *UserService) UpdateProfile(ctx context.Context, userID int, update ProfileUpdate) (types.User, error) {
	if userID < 1 {
		return types.User{}, ErrUnauthorized
	}

	update.FirstName = strings.TrimSpace(update.FirstName)
	update.LastName = strings.TrimSpace(update.LastName)
	update.Email = normalizeEmail(update.Email)
	update.Bio = strings.TrimSpace(update.Bio)
	if err := validateStruct(update); err != nil {
		return types.User{}, err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return types.User{}, err
	}
	user.FirstName = update.FirstName
	user.LastName = update.LastName
	user.Email = update.Email
	user.Bio = update.Bio
	return s.repo.UpdateProfile(ctx, user)
}

func duplicateRegistration(cause error) error {
	return fmt.Errorf("%w: %w", ErrDuplicateRegistration, cause)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
