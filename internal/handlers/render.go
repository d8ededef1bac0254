package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/recipebox/webapp/types"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageRecipes    = "recipes.html"
	pageRecipe     = "recipe.html"
	pageRecipeForm = "recipe_form.html"
	pageRegister   = "register.html"
	pageLogin      = "login.html"
	pageProfile    = "profile.html"
	pageError      = "error.html"
)

// MealTypes are the choices offered by the recipe form and filter.
var MealTypes = []string{"Breakfast", "Lunch", "Dinner", "Dessert", "Snack"}

var templateFuncs = template.FuncMap{
	"imageURL":          func(key string) string { return "/" + strings.TrimPrefix(key, "/") },
	"formatIngredients": types.FormatIngredients,
	"ingredientsText":   types.IngredientsText,
	"join":              strings.Join,
	"mealTypes":         func() []string { return MealTypes },
	"round":             func(v float64) string { return fmt.Sprintf("%.1f", v) },
}

// Renderer executes the embedded page templates inside the shared layout.
type Renderer struct {
	pages  map[string]*template.Template
	logger *zap.Logger
}

type pageData struct {
	Title    string
	Identity *Identity
	Notice   *Notice
	Data     any
}

type errorData struct {
	Status  int
	Message string
}

// NewRenderer parses every page together with the layout.
func NewRenderer(logger *zap.Logger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	names := []string{pageRecipes, pageRecipe, pageRecipeForm, pageRegister, pageLogin, pageProfile, pageError}
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages, logger: logger}, nil
}

// Render writes page with status, consuming any pending notice.
func (v *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	tmpl, ok := v.pages[page]
	if !ok {
		v.logger.Error("unknown template", zap.String("page", page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	pd := pageData{Title: title, Data: data}
	if identity, ok := identityFromContext(r.Context()); ok {
		pd.Identity = &identity
	}
	if notice, ok := popNotice(w, r); ok {
		pd.Notice = &notice
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", pd); err != nil {
		v.logger.Error("failed to render template", zap.String("page", page), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Error renders the error page.
func (v *Renderer) Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	v.Render(w, r, status, pageError, http.StatusText(status), errorData{Status: status, Message: message})
}
