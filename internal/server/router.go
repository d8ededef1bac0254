package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/recipebox/webapp/internal/handlers"
	"github.com/recipebox/webapp/internal/metrics"
	"github.com/recipebox/webapp/internal/middleware"
	"github.com/recipebox/webapp/internal/services"
	"go.uber.org/zap"
)

const (
	credentialRateLimit = 5
	credentialBurst     = 10
	requestTimeout      = 60 * time.Second
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Recipes        *services.RecipeService
	Favorites      *services.FavoriteService
	Users          *services.UserService
	Images         handlers.ImageReader
	DB             handlers.Pinger
	Metrics        *metrics.Metrics
	Logger         *zap.Logger
	SessionSecret  string
	SecureCookies  bool
	// TrustProxy takes the client address from X-Forwarded-For and
	// friends. Enable only behind a proxy that overwrites them.
	TrustProxy     bool
	MaxUploadBytes int64
}

// NewRouter builds the application router.
func NewRouter(deps Deps) (*chi.Mux, error) {
	if deps.SessionSecret == "" {
		return nil, errors.New("SESSION_SECRET is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	view, err := handlers.NewRenderer(logger)
	if err != nil {
		return nil, err
	}
	sessions := handlers.NewSessions(deps.SessionSecret, deps.SecureCookies)

	recipeHandler := handlers.NewRecipeHandler(deps.Recipes, deps.Favorites, view, logger, deps.MaxUploadBytes)
	authHandler := handlers.NewAuthHandler(deps.Users, sessions, view, logger)
	profileHandler := handlers.NewProfileHandler(deps.Users, sessions, view, logger)
	credentialLimit := middleware.RateLimit(credentialRateLimit, credentialBurst, authHandler.TooManyRequests)

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	if deps.TrustProxy {
		router.Use(chimw.RealIP)
	}
	router.Use(
		middleware.RequestLogger(logger),
		chimw.Recoverer,
		middleware.Instrument(deps.Metrics),
		chimw.Timeout(requestTimeout),
	)

	router.Get("/healthz", handlers.Healthz(deps.DB))
	router.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	router.Route("/uploads", func(r chi.Router) {
		handlers.UploadsRouter(r, deps.Images, logger)
	})
	router.Route("/static", handlers.StaticRouter)

	router.Group(func(r chi.Router) {
		r.Use(sessions.Load)
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, "/recipes", http.StatusSeeOther)
		})
		r.Route("/recipes", func(r chi.Router) {
			handlers.RecipeRouter(r, recipeHandler)
		})
		r.Route("/favorites", func(r chi.Router) {
			handlers.FavoritesRouter(r, recipeHandler)
		})
		r.Route("/profile", func(r chi.Router) {
			handlers.ProfileRouter(r, profileHandler)
		})
		handlers.AuthRouter(r, authHandler, credentialLimit)
	})

	return router, nil
}
