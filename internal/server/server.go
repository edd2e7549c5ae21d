// Package server wires the application together: database, services,
// handlers, middleware, and routes. It is the composition root — every
// dependency is constructed here and main.go stays minimal.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ighodev/learnhub/internal/auth"
	"github.com/ighodev/learnhub/internal/handler"
	"github.com/ighodev/learnhub/internal/middleware"
	sqliteRepo "github.com/ighodev/learnhub/internal/repository/sqlite"
	"github.com/ighodev/learnhub/internal/service"
)

// Config holds everything the server needs to start. Main loads it from
// the environment; tests construct it directly.
type Config struct {
	Port      int
	DBPath    string
	StaticDir string

	// JWTSecret signs session tokens. At least 32 random bytes in
	// production (openssl rand -hex 32).
	JWTSecret string

	// GitHub OAuth App credentials. All three empty disables GitHub login;
	// the rest of the app works without it.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	// SeedDemo populates an empty catalog with demo courses on start.
	SeedDemo bool
}

// Server owns the router and the database connection. The connection is
// closed during graceful shutdown to flush the WAL and release the file
// lock.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New builds the full dependency chain:
//
//	sqlite.DB → AuthService / CatalogService → handlers → routes
//
// Each layer receives only the interfaces it needs; handlers never touch
// the database and services never touch HTTP.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if cfg.SeedDemo {
		if err := db.Seed(context.Background()); err != nil {
			db.Close()
			return nil, fmt.Errorf("seeding catalog: %w", err)
		}
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and routes.
//
//	POST /api/auth/signup           → create account
//	POST /api/auth/login            → sign in
//	POST /api/auth/logout           → sign out
//	GET  /auth/github/login         → GitHub OAuth start
//	GET  /auth/github/callback      → GitHub OAuth finish
//	GET  /api/me                    → current user          (auth)
//	GET  /api/courses               → catalog + completions (auth)
//	GET  /api/courses/{id}          → course detail         (auth)
//	POST /api/courses/{id}/complete → mark complete         (auth)
//	GET  /static/*, /               → frontend assets
//
// Middleware order matters: request ID first so the logger can pick it up,
// recoverer before the logger so panics still produce a log line.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	} else {
		s.logger.Info("GitHub OAuth not configured, GitHub login disabled")
	}

	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	catalogService := service.NewCatalogService(s.db, s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	courseHandler := handler.NewCourseHandler(catalogService, s.logger)

	// Frontend
	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, s.config.StaticDir+"/index.html")
	})

	// Public auth routes
	s.router.Post("/api/auth/signup", authHandler.HandleSignup)
	s.router.Post("/api/auth/login", authHandler.HandleLogin)
	s.router.Post("/api/auth/logout", authHandler.HandleLogout)
	s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
	s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)

	// Authenticated API
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Get("/api/me", authHandler.HandleMe)
		r.Get("/api/courses", courseHandler.HandleList)
		r.Get("/api/courses/{id}", courseHandler.HandleGet)
		r.Post("/api/courses/{id}/complete", courseHandler.HandleMarkComplete)
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests for up
// to 30 seconds, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
