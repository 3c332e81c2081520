package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"newsroom/internal/core"
	"newsroom/internal/docstore"
	"newsroom/internal/features/newsroom"
)

// Server wires the document store backend, the feature registry and the
// HTTP router together.
type Server struct {
	config     *core.Config
	logger     *core.Logger
	store      *docstore.Store
	registry   *core.Registry
	httpServer *http.Server
}

// New builds a fully wired server from environment configuration.
func New(logger *core.Logger) (*Server, error) {
	config, err := core.LoadConfig()
	if err != nil {
		return nil, core.NewConfigurationError("failed to load configuration", err)
	}

	backend, err := newBackend(config)
	if err != nil {
		return nil, core.NewConfigurationError("failed to create store backend", err)
	}

	store := docstore.New(backend, logger.Logger, docstore.Config{
		RetryDelay: config.Store.RetryDelay,
	})

	registry := core.NewRegistry(logger)
	if config.IsFeatureEnabled("newsroom") {
		feature := newsroom.NewFeature(logger, store, config.Store.Namespace, newsroom.NewConfig(config))
		if err := registry.Register(feature); err != nil {
			return nil, core.NewFeatureError("newsroom", "failed to register feature", err)
		}
	}

	srv := &Server{
		config:   config,
		logger:   logger,
		store:    store,
		registry: registry,
	}
	srv.setupRoutes()

	return srv, nil
}

// newBackend selects the document store backend from configuration.
func newBackend(config *core.Config) (docstore.Backend, error) {
	switch config.Store.Backend {
	case core.BackendGitHub:
		return docstore.NewGitHubBackend(docstore.GitHubConfig{
			Token:   config.Store.GitHub.Token,
			Repo:    config.Store.GitHub.Repo,
			BaseURL: config.Store.GitHub.BaseURL,
		}), nil
	case core.BackendGCS:
		return docstore.NewGCSBackend(context.Background(), config.Store.GCS.Bucket, config.Store.GCS.CredentialsFile)
	case core.BackendLocal:
		return docstore.NewLocalBackend(config.Store.Local.Dir)
	case core.BackendMemory:
		return docstore.NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q", config.Store.Backend)
	}
}

func (s *Server) setupRoutes() {
	mux := chi.NewRouter()

	mux.Use(middleware.Recoverer)
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Logger)

	mux.Get("/health", s.healthHandler)

	for _, route := range s.registry.GetAllRoutes() {
		mux.Method(route.Method, route.Path, route.Handler)
	}

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler: mux,
	}
}

// healthHandler reports service liveness and feature status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"backend":  s.config.Store.Backend,
		"features": s.registry.Status(),
	})
}

// Start initializes all features and serves HTTP until Shutdown.
func (s *Server) Start() error {
	if err := s.registry.InitAll(context.Background()); err != nil {
		return err
	}

	s.logger.Info("Starting server",
		"host", s.config.Server.Host,
		"port", s.config.Server.Port,
		"backend", s.config.Store.Backend,
		"namespace", s.config.Store.Namespace)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops all features.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	if err := s.registry.ShutdownAll(ctx); err != nil {
		s.logger.Error("Failed to shutdown features", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}
