// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer — the composition root where the whole
// dependency chain is assembled:
//
//	sqlite.DB → repositories → services → handlers → routes
//
// Each layer only receives what it needs: services get repository
// interfaces (not the concrete *sqlite.DB), handlers get services, and the
// router gets handlers. main.go stays minimal — read config, call New,
// call Start.
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

	"github.com/treyarte/messagely/internal/auth"
	"github.com/treyarte/messagely/internal/handler"
	"github.com/treyarte/messagely/internal/middleware"
	sqliteRepo "github.com/treyarte/messagely/internal/repository/sqlite"
	"github.com/treyarte/messagely/internal/service"
)

// Config holds server configuration.
//
// The signing secret and the bcrypt cost are explicit configuration handed
// to the auth components at construction — never package-level globals.
type Config struct {
	Port       int
	DBPath     string        // path to the SQLite database file (":memory:" for tests)
	JWTSecret  string        // HMAC secret for session tokens, required
	BcryptCost int           // password hashing work factor; 0 = auth.DefaultCost
	TokenTTL   time.Duration // session token lifetime; 0 = auth.DefaultTokenTTL
}

// Server owns the router and the database connection. The connection is
// closed during graceful shutdown so the WAL is flushed and the file lock
// released.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server: opens the database, wires repositories, services
// and handlers, and installs the route table.
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

// setupRoutes configures all middleware and route handlers.
//
// ROUTE TABLE:
//
//	POST /auth/login                → token for an existing account
//	POST /auth/register             → create account, token
//	GET  /api/users                 → public profiles of all users
//	GET  /api/users/{username}      → full profile (the user themself only)
//	GET  /api/users/{username}/to   → inbox
//	GET  /api/users/{username}/from → outbox
//	GET  /api/messages/{id}         → message detail (sender or recipient)
//	POST /api/messages              → send a message (sender = principal)
//	POST /api/messages/{id}/read    → mark read (recipient only)
//
// MIDDLEWARE ORDER MATTERS:
// RequestID/RealIP/Recoverer run first, then request logging, then
// auth.Principal. Principal runs on EVERY request but never rejects — it
// only attaches the username from a valid token. The /api subtree then
// enforces RequireAuth, and the profile route adds RequireCorrectUser. Each
// predicate short-circuits: the first failure writes the 401.
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords, err := auth.NewPasswordService(s.config.BcryptCost)
	if err != nil {
		return fmt.Errorf("creating password service: %w", err)
	}

	users := s.db.Users()
	messages := s.db.Messages()

	authService := service.NewAuthService(users, tokens, passwords, s.logger)
	userService := service.NewUserService(users, s.logger)
	messageService := service.NewMessageService(messages, users, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	userHandler := handler.NewUserHandler(userService, messageService, s.logger)
	messageHandler := handler.NewMessageHandler(messageService, s.logger)

	s.router.Use(chimiddleware.RequestID) // Adds X-Request-ID header
	s.router.Use(chimiddleware.RealIP)    // Extracts real IP from X-Forwarded-For
	s.router.Use(chimiddleware.Recoverer) // Recovers from panics, returns 500
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(auth.Principal(tokens))

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/register", authHandler.HandleRegister)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Get("/users", userHandler.HandleList)
		r.Route("/users/{username}", func(r chi.Router) {
			r.With(auth.RequireCorrectUser).Get("/", userHandler.HandleGet)
			r.Get("/to", userHandler.HandleMessagesTo)
			r.Get("/from", userHandler.HandleMessagesFrom)
		})

		r.Route("/messages", func(r chi.Router) {
			r.Post("/", messageHandler.HandleCreate)
			r.Get("/{id}", messageHandler.HandleGet)
			r.Post("/{id}/read", messageHandler.HandleMarkRead)
		})
	})

	return nil
}

// Start starts the HTTP server and handles graceful shutdown:
//  1. Stop accepting new connections on SIGINT/SIGTERM
//  2. Wait up to 30s for in-flight requests to finish
//  3. Close the database connection
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
