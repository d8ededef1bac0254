package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/recipebox/webapp/internal/storage"
	"github.com/recipebox/webapp/internal/store"
	"github.com/recipebox/webapp/types"
	"go.uber.org/zap"
)

// RecipeRepository defines persistence operations for recipes.
// viewerID 0 means an anonymous viewer.
type RecipeRepository interface {
	List(ctx context.Context, viewerID int) ([]types.Recipe, error)
	Get(ctx context.Context, id, viewerID int) (types.Recipe, error)
	Search(ctx context.Context, text string, viewerID int) ([]types.Recipe, error)
	FilterByMealType(ctx context.Context, mealType string, viewerID int) ([]types.Recipe, error)
	Create(ctx context.Context, recipe types.Recipe) (types.Recipe, error)
	Update(ctx context.Context, recipe types.Recipe) (types.Recipe, error)
	Delete(ctx context.Context, id, ownerID int) error
}

// ImageStore persists uploaded images.
type ImageStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// ImageReleaser disposes of an image a recipe no longer references.
type ImageReleaser interface {
	Release(ctx context.Context, recipeID int, key string) error
}

// NutritionLookup returns best-effort nutrition facts. A nil result with a
// nil error means enrichment was skipped.
type NutritionLookup interface {
	Lookup(ctx context.Context, title string, ingredients []types.Ingredient) (*types.Nutrition, error)
}

// ImageUpload is an image file submitted with a recipe form.
type ImageUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// RecipeInput holds the mutable recipe fields as submitted by the form.
type RecipeInput struct {
	Title        string       `form:"title" validate:"required,max=200"`
	Description  string       `form:"description"`
	Ingredients  string       `form:"ingredients" validate:"required"`
	Instructions string       `form:"instructions" validate:"required"`
	MealType     string       `form:"meal_type" validate:"required,max=50"`
	Category     string       `form:"category" validate:"max=50"`
	Image        *ImageUpload `form:"-" validate:"-"`
}

func (in RecipeInput) normalized() RecipeInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Ingredients = strings.TrimSpace(in.Ingredients)
	in.Instructions = strings.TrimSpace(in.Instructions)
	in.MealType = strings.TrimSpace(in.MealType)
	in.Category = strings.TrimSpace(in.Category)
	return in
}

// RecipeService encapsulates recipe use-cases and the ownership rules.
type RecipeService struct {
	repo      RecipeRepository
	images    ImageStore
	releaser  ImageReleaser
	nutrition NutritionLookup
	logger    *zap.Logger
}

// NewRecipeService wires the service. images, releaser and nutrition may be
// nil, which disables uploads, image cleanup and enrichment respectively.
func NewRecipeService(repo RecipeRepository, images ImageStore, releaser ImageReleaser, nutrition NutritionLookup, logger *zap.Logger) *RecipeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecipeService{
		repo:      repo,
		images:    images,
		releaser:  releaser,
		nutrition: nutrition,
		logger:    logger,
	}
}

func (s *RecipeService) List(ctx context.Context, viewerID int) ([]types.Recipe, error) {
	return s.repo.List(ctx, viewerID)
}

func (s *RecipeService) Get(ctx context.Context, id, viewerID int) (types.Recipe, error) {
	return s.repo.Get(ctx, id, viewerID)
}

// Detail returns the recipe with nutrition facts attached when available.
// Nutrition failures are logged and never fail the call.
func (s *RecipeService) Detail(ctx context.Context, id, viewerID int) (types.RecipeDetail, error) {
	recipe, err := s.repo.Get(ctx, id, viewerID)
	if err != nil {
		return types.RecipeDetail{}, err
	}

	detail := types.RecipeDetail{Recipe: recipe}
	if s.nutrition == nil {
		return detail, nil
	}

	nutrition, err := s.nutrition.Lookup(ctx, recipe.Title, recipe.Ingredients)
	if err != nil {
		s.logger.Warn("nutrition lookup failed",
			zap.Int("recipe_id", recipe.ID),
			zap.Error(err),
		)
		return detail, nil
	}
	detail.Nutrition = nutrition
	return detail, nil
}

// Search matches text against title, description and category.
func (s *RecipeService) Search(ctx context.Context, text string, viewerID int) ([]types.Recipe, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("query", "Please enter a search term.")
	}
	return s.repo.Search(ctx, text, viewerID)
}

// Filter returns recipes of exactly mealType, or every recipe when mealType
// is blank.
func (s *RecipeService) Filter(ctx context.Context, mealType string, viewerID int) ([]types.Recipe, error) {
	mealType = strings.TrimSpace(mealType)
	if mealType == "" {
		return s.repo.List(ctx, viewerID)
	}
	return s.repo.FilterByMealType(ctx, mealType, viewerID)
}

// Create stores a new recipe owned by ownerID.
func (s *RecipeService) Create(ctx context.Context, ownerID int, input RecipeInput) (types.Recipe, error) {
	if ownerID < 1 {
		return types.Recipe{}, ErrUnauthorized
	}

	input = input.normalized()
	ingredients, err := validateRecipe(input)
	if err != nil {
		return types.Recipe{}, err
	}

	imageKey, err := s.storeImage(ctx, input.Image)
	if err != nil {
		return types.Recipe{}, err
	}

	recipe := types.Recipe{
		UserID:       ownerID,
		Title:        input.Title,
		Description:  input.Description,
		Ingredients:  ingredients,
		Instructions: input.Instructions,
		ImagePath:    imageKey,
		MealType:     input.MealType,
		Category:     input.Category,
	}
	created, err := s.repo.Create(ctx, recipe)
	if err != nil {
		s.releaseImage(ctx, 0, imageKey)
		return types.Recipe{}, err
	}
	return created, nil
}

// Update replaces the mutable fields of a recipe owned by requesterID. The
// image is replaced only when a new accepted image is supplied.
func (s *RecipeService) Update(ctx context.Context, id, requesterID int, input RecipeInput) (types.Recipe, error) {
	existing, err := s.ownedRecipe(ctx, id, requesterID)
	if err != nil {
		return types.Recipe{}, err
	}

	input = input.normalized()
	ingredients, err := validateRecipe(input)
	if err != nil {
		return types.Recipe{}, err
	}

	newKey, err := s.storeImage(ctx, input.Image)
	if err != nil {
		return types.Recipe{}, err
	}

	updated := existing
	updated.Title = input.Title
	updated.Description = input.Description
	updated.Ingredients = ingredients
	updated.Instructions = input.Instructions
	updated.MealType = input.MealType
	updated.Category = input.Category
	if newKey != "" {
		updated.ImagePath = newKey
	}

	saved, err := s.repo.Update(ctx, updated)
	if err != nil {
		s.releaseImage(ctx, id, newKey)
		return types.Recipe{}, err
	}
	if newKey != "" && existing.ImagePath != "" && existing.ImagePath != newKey {
		s.releaseImage(ctx, id, existing.ImagePath)
	}
	return saved, nil
}

// Delete removes a recipe owned by requesterID along with its favorites and
// releases its image.
func (s *RecipeService) Delete(ctx context.Context, id, requesterID int) error {
	existing, err := s.ownedRecipe(ctx, id, requesterID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id, requesterID); err != nil {
		return err
	}
	s.releaseImage(ctx, id, existing.ImagePath)
	return nil
}

// ownedRecipe loads a recipe and checks that requesterID owns it.
func (s *RecipeService) ownedRecipe(ctx context.Context, id, requesterID int) (types.Recipe, error) {
	if requesterID < 1 {
		return types.Recipe{}, ErrUnauthorized
	}
	recipe, err := s.repo.Get(ctx, id, requesterID)
	if err != nil {
		return types.Recipe{}, err
	}
	if !recipe.OwnedBy(requesterID) {
		return types.Recipe{}, ErrNotOwner
	}
	return recipe, nil
}

// storeImage saves an accepted upload and returns its key. Missing uploads
// and files with other extensions are ignored.
func (s *RecipeService) storeImage(ctx context.Context, upload *ImageUpload) (string, error) {
	if upload == nil || upload.Content == nil || s.images == nil {
		return "", nil
	}
	if !storage.AllowedImage(upload.Filename) {
		s.logger.Debug("ignoring upload with unsupported extension", zap.String("filename", upload.Filename))
		return "", nil
	}

	key := storage.NewImageKey(upload.Filename)
	if err := s.images.Put(ctx, key, upload.Content, upload.Size, storage.ImageContentType(upload.Filename)); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return key, nil
}

func (s *RecipeService) releaseImage(ctx context.Context, recipeID int, key string) {
	if key == "" || s.releaser == nil {
		return
	}
	if err := s.releaser.Release(ctx, recipeID, key); err != nil {
		s.logger.Warn("failed to release image",
			zap.Int("recipe_id", recipeID),
			zap.String("object_key", key),
			zap.Error(err),
		)
	}
}

func validateRecipe(input RecipeInput) ([]types.Ingredient, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	ingredients := types.ParseIngredients(input.Ingredients)
	if len(ingredients) == 0 {
		return nil, invalid("ingredients", "Ingredients is required.")
	}
	return ingredients, nil
}

// IsNotFound reports whether err means the recipe or user does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
