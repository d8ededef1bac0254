package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/recipebox/webapp/types"
)

// RecipeRepository handles persistence for recipes.
//
// Every read joins the owner's username and computes is_favorite for the
// viewer passed as the first query parameter; a zero viewer id is sent as
// NULL so the flag is always false for anonymous callers.
type RecipeRepository struct {
	db *sql.DB
}

func NewRecipeRepository(db *sql.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

const recipeSelect = `
	SELECT r.id, r.user_id, u.username, r.title, r.description, r.ingredients,
	       r.instructions, r.image_path, r.meal_type, r.category,
	       EXISTS(
	           SELECT 1 FROM favorites f
	           WHERE f.recipe_id = r.id AND f.user_id = $1
	       ) AS is_favorite,
	       r.created_at, r.updated_at
	FROM recipes r
	JOIN users u ON u.id = r.user_id`

func (r *RecipeRepository) List(ctx context.Context, viewerID int) ([]types.Recipe, error) {
	query := recipeSelect + `
	ORDER BY r.id`
	return r.queryRecipes(ctx, query, nullableID(viewerID))
}

func (r *RecipeRepository) Get(ctx context.Context, id, viewerID int) (types.Recipe, error) {
	query := recipeSelect + `
	WHERE r.id = $2`
	recipe, err := scanRecipe(r.db.QueryRowContext(ctx, query, nullableID(viewerID), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Recipe{}, ErrNotFound
		}
		return types.Recipe{}, err
	}
	return recipe, nil
}

// Search returns recipes whose title, description or category contains text,
// ignoring case. The text is matched literally.
func (r *RecipeRepository) Search(ctx context.Context, text string, viewerID int) ([]types.Recipe, error) {
	query := recipeSelect + `
	WHERE r.title ILIKE $2 OR r.description ILIKE $2 OR r.category ILIKE $2
	ORDER BY r.id`
	pattern := "%" + escapeLike(text) + "%"
	return r.queryRecipes(ctx, query, nullableID(viewerID), pattern)
}

func (r *RecipeRepository) FilterByMealType(ctx context.Context, mealType string, viewerID int) ([]types.Recipe, error) {
	query := recipeSelect + `
	WHERE r.meal_type = $2
	ORDER BY r.id`
	return r.queryRecipes(ctx, query, nullableID(viewerID), mealType)
}

func (r *RecipeRepository) Create(ctx context.Context, recipe types.Recipe) (types.Recipe, error) {
	now := time.Now()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now

	ingredientsJSON, err := marshalIngredients(recipe.Ingredients)
	if err != nil {
		return types.Recipe{}, err
	}

	const query = `
		INSERT INTO recipes (user_id, title, description, ingredients, instructions, image_path, meal_type, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		recipe.UserID,
		recipe.Title,
		recipe.Description,
		ingredientsJSON,
		recipe.Instructions,
		nullableString(recipe.ImagePath),
		recipe.MealType,
		recipe.Category,
		recipe.CreatedAt,
		recipe.UpdatedAt,
	).Scan(&recipe.ID); err != nil {
		return types.Recipe{}, err
	}

	return recipe, nil
}

// Update replaces the mutable fields of a recipe. The row must still belong
// to recipe.UserID, otherwise ErrNotFound is returned and nothing changes.
func (r *RecipeRepository) Update(ctx context.Context, recipe types.Recipe) (types.Recipe, error) {
	recipe.UpdatedAt = time.Now()

	ingredientsJSON, err := marshalIngredients(recipe.Ingredients)
	if err != nil {
		return types.Recipe{}, err
	}

	const query = `
		UPDATE recipes
		SET title = $1,
			description = $2,
			ingredients = $3,
			instructions = $4,
			image_path = $5,
			meal_type = $6,
			category = $7,
			updated_at = $8
		WHERE id = $9 AND user_id = $10`
	result, err := r.db.ExecContext(
		ctx,
		query,
		recipe.Title,
		recipe.Description,
		ingredientsJSON,
		recipe.Instructions,
		nullableString(recipe.ImagePath),
		recipe.MealType,
		recipe.Category,
		recipe.UpdatedAt,
		recipe.ID,
		recipe.UserID,
	)
	if err != nil {
		return types.Recipe{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Recipe{}, err
	}
	if affected == 0 {
		return types.Recipe{}, ErrNotFound
	}

	return recipe, nil
}

// Delete removes a recipe owned by ownerID. Favorites referencing it are
// removed by the ON DELETE CASCADE constraint.
func (r *RecipeRepository) Delete(ctx context.Context, id, ownerID int) error {
	const query = `DELETE FROM recipes WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RecipeRepository) queryRecipes(ctx context.Context, query string, args ...any) ([]types.Recipe, error) {
	return queryRecipes(ctx, r.db, query, args...)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func queryRecipes(ctx context.Context, db *sql.DB, query string, args ...any) ([]types.Recipe, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipes := make([]types.Recipe, 0)
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return recipes, nil
}

func scanRecipe(row rowScanner) (types.Recipe, error) {
	var recipe types.Recipe
	var ingredientsJSON []byte
	var imagePath sql.NullString
	if err := row.Scan(
		&recipe.ID,
		&recipe.UserID,
		&recipe.Username,
		&recipe.Title,
		&recipe.Description,
		&ingredientsJSON,
		&recipe.Instructions,
		&imagePath,
		&recipe.MealType,
		&recipe.Category,
		&recipe.IsFavorite,
		&recipe.CreatedAt,
		&recipe.UpdatedAt,
	); err != nil {
		return types.Recipe{}, err
	}

	if len(ingredientsJSON) > 0 {
		if err := json.Unmarshal(ingredientsJSON, &recipe.Ingredients); err != nil {
			return types.Recipe{}, fmt.Errorf("decode ingredients for recipe %d: %w", recipe.ID, err)
		}
	}
	recipe.ImagePath = imagePath.String
	return recipe, nil
}

func marshalIngredients(ingredients []types.Ingredient) ([]byte, error) {
	if ingredients == nil {
		ingredients = []types.Ingredient{}
	}
	return json.Marshal(ingredients)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(text string) string {
	return likeEscaper.Replace(text)
}
