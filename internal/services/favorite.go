package services

import (
	"context"

	"github.com/recipebox/webapp/types"
)

// FavoriteRepository defines persistence operations for favorites.
type FavoriteRepository interface {
	Toggle(ctx context.Context, userID, recipeID int) (bool, error)
	ListForUser(ctx context.Context, userID int) ([]types.Recipe, error)
}

// FavoriteService encapsulates the favorite ledger use-cases.
type FavoriteService struct {
	repo FavoriteRepository
}

func NewFavoriteService(repo FavoriteRepository) *FavoriteService {
	return &FavoriteService{repo: repo}
}

// Toggle flips whether userID has favorited recipeID and returns the new
// state.
func (s *FavoriteService) Toggle(ctx context.Context, userID, recipeID int) (bool, error) {
	if userID < 1 {
		return false, ErrUnauthorized
	}
	return s.repo.Toggle(ctx, userID, recipeID)
}

// ListForUser returns the recipes userID has favorited.
func (s *FavoriteService) ListForUser(ctx context.Context, userID int) ([]types.Recipe, error) {
	if userID < 1 {
		return nil, ErrUnauthorized
	}
	return s.repo.ListForUser(ctx, userID)
}
