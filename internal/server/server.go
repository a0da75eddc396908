// Package server wires the application together: database, services,
// handlers, middleware, and routes, plus startup and graceful shutdown.
// main.go stays minimal; everything composable lives here.
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

	"github.com/avolkov/goblog/internal/auth"
	"github.com/avolkov/goblog/internal/handler"
	"github.com/avolkov/goblog/internal/middleware"
	sqliteRepo "github.com/avolkov/goblog/internal/repository/sqlite"
	"github.com/avolkov/goblog/internal/service"
)

// Config holds everything the server needs from the environment.
type Config struct {
	Port        int
	TemplateDir string
	StaticDir   string
	DBPath      string

	// JWTSecret signs session cookies and must be at least 16 characters.
	JWTSecret string

	// GitHub OAuth is optional; when the client ID is empty the sign-in
	// routes are not registered and the login page hides the button.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server owns the router and the resources that must be released on
// shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New builds the full dependency chain: database, token and password
// services, domain services over the repository interfaces, handlers over
// the services, and finally routes.
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

func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}

	renderer, err := handler.NewRenderer(s.config.TemplateDir, s.logger)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}

	postService := service.NewPostService(s.db, s.db, s.db, s.db, s.db, s.logger)
	commentService := service.NewCommentService(s.db, s.db, s.logger)
	accountService := service.NewAccountService(s.db, tokens, passwords, s.logger)

	posts := handler.NewPostHandler(postService, accountService, renderer, s.logger)
	comments := handler.NewCommentHandler(commentService, accountService, renderer, s.logger)
	profiles := handler.NewProfileHandler(postService, accountService, renderer, s.logger)
	accounts := handler.NewAccountHandler(accountService, github, renderer, s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// Public pages. OptionalAuth resolves the session if one exists so the
	// visibility predicate and the layout know who is looking, but never
	// blocks anonymous visitors.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.OptionalAuth(tokens))

		r.Get("/", posts.HandleHome)
		r.Get("/posts/{postID}", posts.HandleDetail)
		r.Get("/category/{slug}", posts.HandleCategory)
		r.Get("/profile/{username}", profiles.HandleProfile)

		r.Get("/auth/register", accounts.HandleRegisterForm)
		r.Post("/auth/register", accounts.HandleRegister)
		r.Get("/auth/login", accounts.HandleLoginForm)
		r.Post("/auth/login", accounts.HandleLogin)

		if accounts.GitHubEnabled() {
			r.Get("/auth/github/login", accounts.HandleGitHubLogin)
			r.Get("/auth/github/callback", accounts.HandleGitHubCallback)
		}
	})

	// Every mutation requires a session; RequireLogin bounces anonymous
	// visitors to the login form with a resume target.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireLogin(tokens))

		r.Get("/posts/create", posts.HandleCreateForm)
		r.Post("/posts/create", posts.HandleCreate)
		r.Get("/posts/{postID}/edit", posts.HandleEditForm)
		r.Post("/posts/{postID}/edit", posts.HandleEdit)
		r.Get("/posts/{postID}/delete", posts.HandleDeleteForm)
		r.Post("/posts/{postID}/delete", posts.HandleDelete)

		r.Post("/posts/{postID}/comment", comments.HandleCreate)
		r.Get("/posts/{postID}/comment/{commentID}/edit", comments.HandleEditForm)
		r.Post("/posts/{postID}/comment/{commentID}/edit", comments.HandleEdit)
		r.Get("/posts/{postID}/comment/{commentID}/delete", comments.HandleDeleteForm)
		r.Post("/posts/{postID}/comment/{commentID}/delete", comments.HandleDelete)

		r.Get("/profile/edit", profiles.HandleEditForm)
		r.Post("/profile/edit", profiles.HandleEdit)

		r.Post("/auth/logout", accounts.HandleLogout)
	})

	return nil
}

// Start runs the server until SIGINT/SIGTERM, then drains in-flight requests
// and closes the database.
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
