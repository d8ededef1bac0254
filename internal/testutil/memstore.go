// Package testutil provides in-memory stand-ins for the SQL repositories.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/recipebox/webapp/internal/store"
	"github.com/recipebox/webapp/types"
)

type favoriteKey struct {
	userID   int
	recipeID int
}

// MemStore keeps users, recipes and favorites in memory and mirrors the
// constraints of the SQL schema: unique usernames and emails, owner-scoped
// update and delete, and favorites removed along with their recipe.
type MemStore struct {
	mu         sync.Mutex
	now        func() time.Time
	nextUser   int
	nextRecipe int
	users      map[int]types.User
	recipes    map[int]types.Recipe
	favorites  map[favoriteKey]time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{
		now:       time.Now,
		users:     make(map[int]types.User),
		recipes:   make(map[int]types.Recipe),
		favorites: make(map[favoriteKey]time.Time),
	}
}

// Users returns a user repository view of the store.
func (m *MemStore) Users() *UserRepo { return &UserRepo{m: m} }

// Recipes returns a recipe repository view of the store.
func (m *MemStore) Recipes() *RecipeRepo { return &RecipeRepo{m: m} }

// Favorites returns a favorite repository view of the store.
func (m *MemStore) Favorites() *FavoriteRepo { return &FavoriteRepo{m: m} }

// UserRepo implements the user repository over a MemStore.
type UserRepo struct{ m *MemStore }

func (r *UserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	user, ok := r.m.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *UserRepo) GetByUsername(_ context.Context, username string) (types.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, user := range r.m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *UserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r *UserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.emailTaken(email, 0), nil
}

func (r *UserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.users {
		if existing.Username == user.Username {
			return types.User{}, store.ErrDuplicateUsername
		}
	}
	if r.m.emailTaken(user.Email, 0) {
		return types.User{}, store.ErrDuplicateEmail
	}

	r.m.nextUser++
	user.ID = r.m.nextUser
	user.CreatedAt = r.m.now()
	user.UpdatedAt = user.CreatedAt
	r.m.users[user.ID] = user
	return user, nil
}

func (r *UserRepo) UpdateProfile(_ context.Context, user types.User) (types.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.users[user.ID]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	if r.m.emailTaken(user.Email, user.ID) {
		return types.User{}, store.ErrDuplicateEmail
	}
	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.Email = user.Email
	existing.Bio = user.Bio
	existing.UpdatedAt = r.m.now()
	r.m.users[user.ID] = existing
	return existing, nil
}

func (m *MemStore) emailTaken(email string, exceptID int) bool {
	for id, user := range m.users {
		if id != exceptID && user.Email == email {
			return true
		}
	}
	return false
}

// RecipeRepo implements the recipe repository over a MemStore.
type RecipeRepo struct{ m *MemStore }

func (r *RecipeRepo) List(_ context.Context, viewerID int) ([]types.Recipe, error) {
	return r.m.selectRecipes(viewerID, func(types.Recipe) bool { return true }), nil
}

func (r *RecipeRepo) Get(_ context.Context, id, viewerID int) (types.Recipe, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	recipe, ok := r.m.recipes[id]
	if !ok {
		return types.Recipe{}, store.ErrNotFound
	}
	return r.m.decorate(recipe, viewerID), nil
}

func (r *RecipeRepo) Search(_ context.Context, text string, viewerID int) ([]types.Recipe, error) {
	needle := strings.ToLower(text)
	return r.m.selectRecipes(viewerID, func(recipe types.Recipe) bool {
		return strings.Contains(strings.ToLower(recipe.Title), needle) ||
			strings.Contains(strings.ToLower(recipe.Description), needle) ||
			strings.Contains(strings.ToLower(recipe.Category), needle)
	}), nil
}

func (r *RecipeRepo) FilterByMealType(_ context.Context, mealType string, viewerID int) ([]types.Recipe, error) {
	return r.m.selectRecipes(viewerID, func(recipe types.Recipe) bool {
		return recipe.MealType == mealType
	}), nil
}

func (r *RecipeRepo) Create(_ context.Context, recipe types.Recipe) (types.Recipe, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.nextRecipe++
	recipe.ID = r.m.nextRecipe
	recipe.Username = ""
	recipe.IsFavorite = false
	recipe.CreatedAt = r.m.now()
	recipe.UpdatedAt = recipe.CreatedAt
	r.m.recipes[recipe.ID] = recipe
	return recipe, nil
}

func (r *RecipeRepo) Update(_ context.Context, recipe types.Recipe) (types.Recipe, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.recipes[recipe.ID]
	if !ok || existing.UserID != recipe.UserID {
		return types.Recipe{}, store.ErrNotFound
	}
	recipe.CreatedAt = existing.CreatedAt
	recipe.UpdatedAt = r.m.now()
	r.m.recipes[recipe.ID] = recipe
	return recipe, nil
}

func (r *RecipeRepo) Delete(_ context.Context, id, ownerID int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.recipes[id]
	if !ok || existing.UserID != ownerID {
		return store.ErrNotFound
	}
	delete(r.m.recipes, id)
	for key := range r.m.favorites {
		if key.recipeID == id {
			delete(r.m.favorites, key)
		}
	}
	return nil
}

// FavoriteRepo implements the favorite repository over a MemStore.
type FavoriteRepo struct{ m *MemStore }

func (r *FavoriteRepo) Toggle(_ context.Context, userID, recipeID int) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	key := favoriteKey{userID: userID, recipeID: recipeID}
	if _, ok := r.m.favorites[key]; ok {
		delete(r.m.favorites, key)
		return false, nil
	}
	if _, ok := r.m.recipes[recipeID]; !ok {
		return false, store.ErrNotFound
	}
	if _, ok := r.m.users[userID]; !ok {
		return false, store.ErrNotFound
	}
	r.m.favorites[key] = r.m.now()
	return true, nil
}

func (r *FavoriteRepo) ListForUser(_ context.Context, userID int) ([]types.Recipe, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	type entry struct {
		at     time.Time
		recipe types.Recipe
	}
	entries := make([]entry, 0)
	for key, at := range r.m.favorites {
		if key.userID != userID {
			continue
		}
		recipe, ok := r.m.recipes[key.recipeID]
		if !ok {
			continue
		}
		entries = append(entries, entry{at: at, recipe: r.m.decorate(recipe, userID)})
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].at.Equal(entries[j].at) {
			return entries[i].at.Before(entries[j].at)
		}
		return entries[i].recipe.ID < entries[j].recipe.ID
	})

	recipes := make([]types.Recipe, 0, len(entries))
	for _, e := range entries {
		recipes = append(recipes, e.recipe)
	}
	return recipes, nil
}

func (m *MemStore) selectRecipes(viewerID int, keep func(types.Recipe) bool) []types.Recipe {
	m.mu.Lock()
	defer m.mu.Unlock()
	recipes := make([]types.Recipe, 0, len(m.recipes))
	for _, recipe := range m.recipes {
		if keep(recipe) {
			recipes = append(recipes, m.decorate(recipe, viewerID))
		}
	}
	sort.Slice(recipes, func(i, j int) bool { return recipes[i].ID < recipes[j].ID })
	return recipes
}

// decorate fills the joined columns. Callers must hold m.mu.
func (m *MemStore) decorate(recipe types.Recipe, viewerID int) types.Recipe {
	recipe.Username = m.users[recipe.UserID].Username
	_, recipe.IsFavorite = m.favorites[favoriteKey{userID: viewerID, recipeID: recipe.ID}]
	if viewerID < 1 {
		recipe.IsFavorite = false
	}
	return recipe
}
