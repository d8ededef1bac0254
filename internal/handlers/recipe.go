package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/recipebox/webapp/internal/services"
	"github.com/recipebox/webapp/internal/store"
	"github.com/recipebox/webapp/types"
	"go.uber.org/zap"
)

const (
	defaultMaxUploadBytes = 10 << 20
	formFieldImage        = "image"

	msgRecipeNotFound   = "Recipe not found."
	msgSomethingWrong   = "Something went wrong. Please try again."
	msgLoginToAdd       = "You must be logged in to add a recipe."
	msgLoginToEdit      = "You must be logged in to edit a recipe."
	msgLoginToDelete    = "You must be logged in to delete a recipe."
	msgLoginToFavorites = "You must be logged in to view your favorites."
	msgNotOwnerEdit     = "You are not authorized to edit this recipe."
	msgNotOwnerDelete   = "You are not authorized to delete this recipe."
)

// RecipeHandler serves the recipe pages and the favorite toggle.
type RecipeHandler struct {
	recipes        *services.RecipeService
	favorites      *services.FavoriteService
	view           *Renderer
	logger         *zap.Logger
	maxUploadBytes int64
}

// NewRecipeHandler constructs a RecipeHandler with the provided dependencies.
func NewRecipeHandler(recipes *services.RecipeService, favorites *services.FavoriteService, view *Renderer, logger *zap.Logger, maxUploadBytes int64) *RecipeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &RecipeHandler{
		recipes:        recipes,
		favorites:      favorites,
		view:           view,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// RecipeRouter registers recipe routes on the given router.
func RecipeRouter(r chi.Router, handler *RecipeHandler) {
	r.Get("/", handler.List)
	r.Get("/search", handler.Search)
	r.Get("/filter", handler.Filter)
	r.With(RequireLogin(danger(msgLoginToAdd))).Get("/add", handler.AddForm)
	r.With(RequireLogin(danger(msgLoginToAdd))).Post("/add", handler.Add)
	r.With(RequireLogin(danger(msgLoginToEdit))).Get("/edit/{recipeID}", handler.EditForm)
	r.With(RequireLogin(danger(msgLoginToEdit))).Post("/edit/{recipeID}", handler.Edit)
	r.With(RequireLogin(danger(msgLoginToDelete))).Post("/delete/{recipeID}", handler.Delete)
	r.Post("/favorite/{recipeID}", handler.ToggleFavorite)
	r.Get("/{recipeID}", handler.View)
}

// FavoritesRouter registers the favorites listing.
func FavoritesRouter(r chi.Router, handler *RecipeHandler) {
	r.With(RequireLogin(danger(msgLoginToFavorites))).Get("/", handler.Favorites)
}

type recipeListData struct {
	Heading  string
	Recipes  []types.Recipe
	MealType string
	Empty    string
}

type recipeViewData struct {
	Detail  types.RecipeDetail
	IsOwner bool
}

type recipeFormData struct {
	Heading string
	Action  string
	Submit  string
	Recipe  types.Recipe
}

// formError is a form problem whose text is shown to the user as is.
type formError string

func (e formError) Error() string { return string(e) }

const (
	errInvalidForm    formError = "Invalid form submission."
	errUploadTooLarge formError = "The upload is too large."
	errInvalidImage   formError = "Invalid image upload."
)

// actionMessages are the notices shown when a recipe action is refused.
// An empty notOwner means the action has no owner check.
type actionMessages struct {
	login    string
	notOwner string
}

var (
	addMessages    = actionMessages{login: msgLoginToAdd}
	editMessages   = actionMessages{login: msgLoginToEdit, notOwner: msgNotOwnerEdit}
	deleteMessages = actionMessages{login: msgLoginToDelete, notOwner: msgNotOwnerDelete}
)

// FavoriteResponse is the favorite toggle payload.
type FavoriteResponse struct {
	Message     string `json:"message"`
	IsFavorited bool   `json:"is_favorited"`
}

func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.recipes.List(r.Context(), viewerID(r.Context()))
	if err != nil {
		h.serverError(w, r, "failed to list recipes", err)
		return
	}
	h.view.Render(w, r, http.StatusOK, pageRecipes, "Recipes", recipeListData{
		Heading: "All Recipes",
		Recipes: recipes,
		Empty:   "No recipes yet.",
	})
}

func (h *RecipeHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	recipes, err := h.recipes.Search(r.Context(), query, viewerID(r.Context()))
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			redirectWithNotice(w, r, "/recipes", warning(verr.Message))
			return
		}
		h.serverError(w, r, "failed to search recipes", err)
		return
	}
	h.view.Render(w, r, http.StatusOK, pageRecipes, "Search", recipeListData{
		Heading: fmt.Sprintf("Results for %q", query),
		Recipes: recipes,
		Empty:   "No recipes matched your search.",
	})
}

func (h *RecipeHandler) Filter(w http.ResponseWriter, r *http.Request) {
	mealType := r.URL.Query().Get("meal_type")
	recipes, err := h.recipes.Filter(r.Context(), mealType, viewerID(r.Context()))
	if err != nil {
		h.serverError(w, r, "failed to filter recipes", err)
		return
	}
	heading := "All Recipes"
	if mealType != "" {
		heading = mealType + " Recipes"
	}
	h.view.Render(w, r, http.StatusOK, pageRecipes, heading, recipeListData{
		Heading:  heading,
		Recipes:  recipes,
		MealType: mealType,
		Empty:    "No recipes for this meal type.",
	})
}

func (h *RecipeHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.favorites.ListForUser(r.Context(), viewerID(r.Context()))
	if err != nil {
		h.serverError(w, r, "failed to list favorites", err)
		return
	}
	h.view.Render(w, r, http.StatusOK, pageRecipes, "Favorites", recipeListData{
		Heading: "My Favorites",
		Recipes: recipes,
		Empty:   "You have not favorited any recipes yet.",
	})
}

func (h *RecipeHandler) View(w http.ResponseWriter, r *http.Request) {
	id, err := parseRecipeID(r)
	if err != nil {
		redirectWithNotice(w, r, "/recipes", danger(msgRecipeNotFound))
		return
	}

	viewer := viewerID(r.Context())
	detail, err := h.recipes.Detail(r.Context(), id, viewer)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			redirectWithNotice(w, r, "/recipes", danger(msgRecipeNotFound))
			return
		}
		h.serverError(w, r, "failed to fetch recipe", err)
		return
	}

	h.view.Render(w, r, http.StatusOK, pageRecipe, detail.Recipe.Title, recipeViewData{
		Detail:  detail,
		IsOwner: detail.Recipe.OwnedBy(viewer),
	})
}

func (h *RecipeHandler) AddForm(w http.ResponseWriter, r *http.Request) {
	h.view.Render(w, r, http.StatusOK, pageRecipeForm, "Add Recipe", recipeFormData{
		Heading: "Add a Recipe",
		Action:  "/recipes/add",
		Submit:  "Add recipe",
	})
}

func (h *RecipeHandler) Add(w http.ResponseWriter, r *http.Request) {
	input, cleanup, err := h.parseRecipeForm(w, r)
	if err != nil {
		redirectWithNotice(w, r, "/recipes/add", danger(err.Error()))
		return
	}
	defer cleanup()

	if _, err := h.recipes.Create(r.Context(), viewerID(r.Context()), input); err != nil {
		h.mutationError(w, r, err, "/recipes/add", addMessages)
		return
	}
	redirectWithNotice(w, r, "/recipes", success("Recipe added successfully!"))
}

func (h *RecipeHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := parseRecipeID(r)
	if err != nil {
		redirectWithNotice(w, r, "/recipes", danger(msgRecipeNotFound))
		return
	}

	viewer := viewerID(r.Context())
	recipe, err := h.recipes.Get(r.Context(), id, viewer)
	if err != nil {
		h.mutationError(w, r, err, "/recipes", editMessages)
		return
	}
	if !recipe.OwnedBy(viewer) {
		redirectWithNotice(w, r, "/recipes", danger(msgNotOwnerEdit))
		return
	}

	h.view.Render(w, r, http.StatusOK, pageRecipeForm, "Edit Recipe", recipeFormData{
		Heading: "Edit Recipe",
		Action:  "/recipes/edit/" + strconv.Itoa(recipe.ID),
		Submit:  "Save changes",
		Recipe:  recipe,
	})
}

func (h *RecipeHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := parseRecipeID(r)
	if err != nil {
		redirectWithNotice(w, r, "/recipes", danger(msgRecipeNotFound))
		return
	}
	formURL := "/recipes/edit/" + strconv.Itoa(id)

	input, cleanup, err := h.parseRecipeForm(w, r)
	if err != nil {
		redirectWithNotice(w, r, formURL, danger(err.Error()))
		return
	}
	defer cleanup()

	if _, err := h.recipes.Update(r.Context(), id, viewerID(r.Context()), input); err != nil {
		h.mutationError(w, r, err, formURL, editMessages)
		return
	}
	redirectWithNotice(w, r, "/recipes/"+strconv.Itoa(id), success("Recipe updated successfully!"))
}

func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseRecipeID(r)
	if err != nil {
		redirectWithNotice(w, r, "/recipes", danger(msgRecipeNotFound))
		return
	}

	if err := h.recipes.Delete(r.Context(), id, viewerID(r.Context())); err != nil {
		h.mutationError(w, r, err, "/recipes", deleteMessages)
		return
	}
	redirectWithNotice(w, r, "/recipes", success("Recipe deleted successfully!"))
}

func (h *RecipeHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := parseRecipeID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	favorited, err := h.favorites.Toggle(r.Context(), identity.UserID, id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, msgRecipeNotFound)
		case errors.Is(err, services.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "Unauthorized")
		default:
			h.logger.Error("failed to toggle favorite", zap.Int("recipe_id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, msgSomethingWrong)
		}
		return
	}

	message := "Unfavorited"
	if favorited {
		message = "Favorited"
	}
	writeJSON(w, http.StatusOK, FavoriteResponse{Message: message, IsFavorited: favorited})
}

// mutationError maps a service error from a form submission to a notice and
// redirect. back is used for validation errors.
func (h *RecipeHandler) mutationError(w http.ResponseWriter, r *http.Request, err error, back string, msgs actionMessages) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		redirectWithNotice(w, r, back, danger(verr.Message))
	case errors.Is(err, store.ErrNotFound):
		redirectWithNotice(w, r, "/recipes", danger(msgRecipeNotFound))
	case errors.Is(err, services.ErrNotOwner) && msgs.notOwner != "":
		redirectWithNotice(w, r, "/recipes", danger(msgs.notOwner))
	case errors.Is(err, services.ErrUnauthorized):
		redirectWithNotice(w, r, "/login", danger(msgs.login))
	default:
		h.logger.Error("recipe mutation failed", zap.String("path", r.URL.Path), zap.Error(err))
		redirectWithNotice(w, r, back, danger(msgSomethingWrong))
	}
}

func (h *RecipeHandler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg, zap.Error(err))
	h.view.Error(w, r, http.StatusInternalServerError, msgSomethingWrong)
}

// parseRecipeForm reads the multipart recipe form. The returned cleanup
// removes temporary files spilled by the multipart reader.
func (h *RecipeHandler) parseRecipeForm(w http.ResponseWriter, r *http.Request) (services.RecipeInput, func(), error) {
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			if err := r.ParseForm(); err != nil {
				return services.RecipeInput{}, noop, errInvalidForm
			}
		} else {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return services.RecipeInput{}, noop, errUploadTooLarge
			}
			return services.RecipeInput{}, noop, errInvalidForm
		}
	}

	input := services.RecipeInput{
		Title:        r.FormValue("title"),
		Description:  r.FormValue("description"),
		Ingredients:  r.FormValue("ingredients"),
		Instructions: r.FormValue("instructions"),
		MealType:     r.FormValue("meal_type"),
		Category:     r.FormValue("category"),
	}

	cleanup := noop
	if r.MultipartForm != nil {
		form := r.MultipartForm
		cleanup = func() { _ = form.RemoveAll() }
	}

	file, header, err := r.FormFile(formFieldImage)
	switch {
	case err == nil:
		prev := cleanup
		cleanup = func() {
			_ = file.Close()
			prev()
		}
		if header.Filename != "" && header.Size > 0 {
			input.Image = imageUpload(file, header)
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		cleanup()
		return services.RecipeInput{}, noop, errInvalidImage
	}

	return input, cleanup, nil
}

func imageUpload(file multipart.File, header *multipart.FileHeader) *services.ImageUpload {
	return &services.ImageUpload{
		Filename: header.Filename,
		Size:     header.Size,
		Content:  file,
	}
}
