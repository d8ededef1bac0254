package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/recipebox/webapp/types"
)

// FavoriteRepository handles persistence for the favorites relation.
type FavoriteRepository struct {
	db *sql.DB
}

func NewFavoriteRepository(db *sql.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Toggle flips the favorite state of (userID, recipeID) and returns the new
// state. The delete-or-insert runs in one transaction and the composite
// primary key rules out duplicate rows when two toggles race.
func (r *FavoriteRepository) Toggle(ctx context.Context, userID, recipeID int) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const deleteQuery = `DELETE FROM favorites WHERE user_id = $1 AND recipe_id = $2`
	result, err := tx.ExecContext(ctx, deleteQuery, userID, recipeID)
	if err != nil {
		return false, err
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	favorited := deleted == 0
	if favorited {
		const insertQuery = `
			INSERT INTO favorites (user_id, recipe_id, created_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (user_id, recipe_id) DO NOTHING`
		if _, err := tx.ExecContext(ctx, insertQuery, userID, recipeID); err != nil {
			if isForeignKeyViolation(err) {
				return false, ErrNotFound
			}
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit favorite toggle: %w", err)
	}
	return favorited, nil
}

// ListForUser returns the recipes favorited by userID, oldest favorite first.
func (r *FavoriteRepository) ListForUser(ctx context.Context, userID int) ([]types.Recipe, error) {
	const query = `
		SELECT r.id, r.user_id, u.username, r.title, r.description, r.ingredients,
		       r.instructions, r.image_path, r.meal_type, r.category,
		       TRUE AS is_favorite,
		       r.created_at, r.updated_at
		FROM favorites f
		JOIN recipes r ON r.id = f.recipe_id
		JOIN users u ON u.id = r.user_id
		WHERE f.user_id = $1
		ORDER BY f.created_at, r.id`
	return queryRecipes(ctx, r.db, query, userID)
}
