// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: every dependency in the application is
// wired together here, in one place, rather than scattered across the
// codebase. main.go stays minimal — load config, build a Server, Start.
//
// The dependency chain assembled in New:
//
//	sqlite.DB → repository stores → services → handlers → routes
//
// Each layer only receives what it needs: services get repository
// interfaces (not the concrete DB), handlers get services (not
// repositories).
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

	"microblog/internal/auth"
	"microblog/internal/handler"
	"microblog/internal/mailer"
	"microblog/internal/middleware"
	sqliteRepo "microblog/internal/repository/sqlite"
	"microblog/internal/service"
)

// Config holds server configuration. The values come from the config
// package in production and are set directly in tests.
type Config struct {
	Port          int
	DBPath        string
	SecretKey     string
	PostsPerPage  int
	ResetTokenTTL time.Duration
}

// Server owns the router and the database connection. The connection is
// closed during graceful shutdown so the WAL is flushed and the file
// lock released.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server with the full dependency chain wired up.
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

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes wires services to handlers and handlers to URL patterns.
//
// ROUTE STRUCTURE:
//
//	POST /api/register                     → create account
//	POST /api/login                        → start session (sets cookie)
//	POST /api/logout                       → clear session cookie
//	POST /api/reset-password/request       → mail a reset token
//	POST /api/reset-password               → redeem token, set password
//	GET  /api/users/{username}             → public profile
//	GET  /api/users/{username}/posts       → a user's posts
//	GET  /api/me                           → own profile        [auth]
//	PUT  /api/me                           → edit profile       [auth]
//	GET  /api/feed                         → home timeline      [auth]
//	GET  /api/explore                      → global timeline    [auth]
//	POST /api/posts                        → publish a post     [auth]
//	POST /api/users/{username}/follow      → follow             [auth]
//	POST /api/users/{username}/unfollow    → unfollow           [auth]
//
// Middleware order matters: RequestID and RealIP enrich the request,
// Logger times it, Recoverer turns panics into 500s. RequireAuth runs
// only on the authenticated group and stamps last-seen as a side effect.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.SecretKey)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()
	mail := mailer.NewLogSender(s.logger)

	identity := service.NewIdentityService(
		s.db.Users(), passwords, tokens, mail, s.config.ResetTokenTTL, s.logger)
	graph := service.NewGraphService(s.db.Follows(), s.logger)
	timeline := service.NewTimelineService(s.db.Posts(), s.config.PostsPerPage, s.logger)
	posts := service.NewPostService(s.db.Posts(), s.config.PostsPerPage, s.logger)

	authHandler := handler.NewAuthHandler(identity, tokens, s.logger)
	userHandler := handler.NewUserHandler(identity, graph, posts, s.logger)
	timelineHandler := handler.NewTimelineHandler(timeline, posts, s.logger)

	// Every authenticated request bumps the user's last-seen stamp. A
	// failed touch is logged inside the middleware, never fatal.
	requireAuth := auth.RequireAuth(tokens, func(ctx context.Context, userID string) {
		if err := identity.TouchLastSeen(ctx, userID); err != nil {
			s.logger.Warn("failed to touch last seen",
				slog.String("userID", userID),
				slog.String("error", err.Error()),
			)
		}
	})

	s.router.Route("/api", func(r chi.Router) {
		// Public routes.
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		r.Post("/reset-password/request", authHandler.HandleResetRequest)
		r.Post("/reset-password", authHandler.HandleResetPassword)
		// Public, but the profile response includes a "does the viewer
		// follow this account" flag when a valid session rides along.
		r.With(auth.OptionalAuth(tokens)).Get("/users/{username}", userHandler.HandleGetUser)
		r.Get("/users/{username}/posts", userHandler.HandleUserPosts)

		// Authenticated routes.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", authHandler.HandleMe)
			r.Put("/me", authHandler.HandleUpdateMe)
			r.Get("/feed", timelineHandler.HandleFeed)
			r.Get("/explore", timelineHandler.HandleExplore)
			r.Post("/posts", timelineHandler.HandleCreatePost)
			r.Post("/users/{username}/follow", userHandler.HandleFollow)
			r.Post("/users/{username}/unfollow", userHandler.HandleUnfollow)
		})
	})

	return nil
}

// Handler exposes the router for tests — httptest.NewServer wants an
// http.Handler, not a running process.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the server's resources without going through Start's
// shutdown path. Used by tests.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, close the database.
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
