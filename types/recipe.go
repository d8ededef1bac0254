package types

import "time"

// Recipe represents a recipe shared by a user.
// Listing and detail views annotate it with the owner's username and
// whether the current viewer has marked it as a favorite.
type Recipe struct {
	// ID is the unique identifier of the recipe.
	ID int `json:"id" db:"id"`

	// UserID identifies the owner. It is set at creation and never changes.
	UserID int `json:"user_id" db:"user_id"`

	// Username is the owner's username, joined from the users table.
	Username string `json:"username" db:"username"`

	// Title is the human-readable name of the recipe.
	Title string `json:"title" db:"title"`

	// Description is a short summary shown in listings.
	Description string `json:"description" db:"description"`

	// Ingredients is the ordered list of structured ingredients, parsed
	// once from the comma-separated form input when the recipe is saved.
	Ingredients []Ingredient `json:"ingredients" db:"ingredients"`

	// Instructions holds the preparation steps as free text.
	Instructions string `json:"instructions" db:"instructions"`

	// ImagePath is the object key of the uploaded image.
	// An empty value means the recipe has no image.
	ImagePath string `json:"image_path,omitempty" db:"image_path"`

	// MealType is the meal the recipe is intended for (e.g. "Dinner").
	// Filtering matches this value exactly.
	MealType string `json:"meal_type" db:"meal_type"`

	// Category is a free-form label such as "Soup" or "Vegetarian".
	Category string `json:"category" db:"category"`

	// IsFavorite reports whether the viewing user has favorited the recipe.
	// It is always false for anonymous viewers.
	IsFavorite bool `json:"is_favorite" db:"is_favorite"`

	// CreatedAt is the timestamp at which the recipe was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the recipe.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasImage reports whether an image is attached to the recipe.
func (r Recipe) HasImage() bool {
	return r.ImagePath != ""
}

// OwnedBy reports whether userID owns the recipe. Anonymous viewers (zero id)
// never own anything.
func (r Recipe) OwnedBy(userID int) bool {
	return userID > 0 && r.UserID == userID
}

// RecipeDetail is the recipe detail view: the recipe itself plus best-effort
// nutrition data. Nutrition is nil whenever enrichment was skipped or failed.
type RecipeDetail struct {
	Recipe    Recipe     `json:"recipe"`
	Nutrition *Nutrition `json:"nutrition,omitempty"`
}
