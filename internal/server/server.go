package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/recipebox/webapp/config"
	"github.com/recipebox/webapp/internal/db"
	"github.com/recipebox/webapp/internal/metrics"
	"github.com/recipebox/webapp/internal/mq"
	"github.com/recipebox/webapp/internal/nutrition"
	"github.com/recipebox/webapp/internal/services"
	"github.com/recipebox/webapp/internal/storage"
	"github.com/recipebox/webapp/internal/store"
	"go.uber.org/zap"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	closers    []func() error
	logger     *zap.Logger
}

// New connects every backend selected by cfg and builds the router.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Server, error) {
	if cfg.SessionSecret == "" {
		return nil, errors.New("SESSION_SECRET is required")
	}

	s := &Server{logger: logger}
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.db = dbConn

	objects, err := storage.NewFromConfig(ctx, cfg.Storage)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("storage: %w", err)
	}

	var releaser services.ImageReleaser = objects
	queue, err := mq.NewFromConfig(ctx, cfg.MQ)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("mq: %w", err)
	}
	if queue != nil {
		s.closers = append(s.closers, queue.Close)
		releaser = mq.NewImageEvents(queue, cfg.MQ.ImageChannel)
		logger.Info("releasing images through broker",
			zap.String("backend", cfg.MQ.Backend),
			zap.String("channel", cfg.MQ.ImageChannel),
		)
	}

	appMetrics := metrics.New()
	enricher, closeNutrition := nutrition.NewFromConfig(cfg, appMetrics, logger)
	s.closers = append(s.closers, closeNutrition)

	recipeService := services.NewRecipeService(store.NewRecipeRepository(dbConn), objects, releaser, enricher, logger)
	favoriteService := services.NewFavoriteService(store.NewFavoriteRepository(dbConn))
	userService := services.NewUserService(store.NewUserRepository(dbConn))

	router, err := NewRouter(Deps{
		Recipes:        recipeService,
		Favorites:      favoriteService,
		Users:          userService,
		Images:         objects,
		DB:             dbConn,
		Metrics:        appMetrics,
		Logger:         logger,
		SessionSecret:  cfg.SessionSecret,
		SecureCookies:  cfg.CookieSecure,
		TrustProxy:     cfg.TrustProxy,
		MaxUploadBytes: cfg.UploadMaxBytes,
	})
	if err != nil {
		s.close()
		return nil, err
	}
	s.router = router

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then closes the backends.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.close()
	return err
}

func (s *Server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn("failed to close backend", zap.Error(err))
		}
	}
	s.closers = nil
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}
}
