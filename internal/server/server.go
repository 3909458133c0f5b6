// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the composition root: every dependency is built in New
// and handed down explicitly.
//
//	config.Config → sqlite.DB, ImageStore (disk or S3)
//	             → TokenService, PasswordService, Gate
//	             → AuthService, UserService, PhotoService
//	             → UserHandler, PhotoHandler → routes
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sakif/reactgram/internal/auth"
	"github.com/sakif/reactgram/internal/config"
	"github.com/sakif/reactgram/internal/handler"
	"github.com/sakif/reactgram/internal/middleware"
	sqliteRepo "github.com/sakif/reactgram/internal/repository/sqlite"
	"github.com/sakif/reactgram/internal/service"
	"github.com/sakif/reactgram/internal/storage"
)

// ServiceName names the process in traces.
const ServiceName = "reactgram"

const shutdownTimeout = 30 * time.Second

// Server owns the router and the database connection. The connection is
// closed when Run returns.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	images storage.ImageStore
	// uploadRoot is set when images live on local disk and are served
	// from /uploads.
	uploadRoot string
}

// New opens the store, builds the image backend and wires every route.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.NewContext(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupStorage(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up image storage: %w", err)
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupStorage(ctx context.Context) error {
	switch s.config.StorageBackend {
	case config.StorageS3:
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    s.config.S3.Bucket,
			Region:    s.config.S3.Region,
			Endpoint:  s.config.S3.Endpoint,
			AccessKey: s.config.S3.AccessKey,
			SecretKey: s.config.S3.SecretKey,
			PublicURL: s.config.S3.PublicURL,
		})
		if err != nil {
			return err
		}
		s.images = store
	default:
		store, err := storage.NewDiskStore(s.config.UploadDir)
		if err != nil {
			return err
		}
		s.images = store
		s.uploadRoot = store.Root()
	}
	return nil
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
//
//	GET    /                          liveness text
//	GET    /healthz                   database reachability
//	GET    /api-docs/openapi.json     OpenAPI document
//	GET    /uploads/*                 stored images (disk backend only)
//	POST   /api/users/register
//	POST   /api/users/login
//	POST   /api/users/logout
//	GET    /api/users/profile         gated
//	PUT    /api/users                 gated
//	GET    /api/users/{id}
//	POST   /api/photos                gated
//	GET    /api/photos                gated
//	GET    /api/photos/user/{id}      gated
//	GET    /api/photos/search         gated
//	GET    /api/photos/{id}           gated
//	PUT    /api/photos/{id}           gated, owner
//	DELETE /api/photos/{id}           gated, owner
//	PUT    /api/photos/like/{id}      gated, owner
//	PUT    /api/photos/comment/{id}   gated
//
// The gate wraps individual routes. There is no router-wide auth.
//
// MIDDLEWARE ORDER MATTERS:
// RequestID first so the logger sees the id; Recoverer after Logger so a
// panic is still logged as a 500; CORS last so preflights are logged too.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.CORS(s.config.CORSOrigins))

	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords, err := auth.NewPasswordService(s.config.BcryptCost)
	if err != nil {
		return fmt.Errorf("creating password service: %w", err)
	}
	cookies := auth.NewCookies(s.config.Cookie(), tokens.TTL())

	users := s.db.Users()
	photos := s.db.Photos()

	gate := auth.NewGate(tokens, users, s.logger)

	authService := service.NewAuthService(users, tokens, passwords, s.logger)
	userService := service.NewUserService(users, passwords, s.images, s.logger)
	photoService := service.NewPhotoService(photos, s.images, s.logger)

	userHandler := handler.NewUserHandler(authService, userService, cookies, s.config.MaxUploadBytes, s.logger)
	photoHandler := handler.NewPhotoHandler(photoService, s.config.MaxUploadBytes, s.logger)

	s.router.Get("/", handler.HandleRoot)
	s.router.Get("/healthz", handler.HandleHealth(s.db, s.logger))
	s.router.Get("/api-docs/openapi.json", handler.HandleOpenAPI)

	if s.uploadRoot != "" {
		fileServer := http.FileServer(filesOnly{http.Dir(s.uploadRoot)})
		s.router.Handle("/uploads/*", http.StripPrefix("/uploads/", fileServer))
	}

	s.router.Route("/api/users", func(r chi.Router) {
		r.Post("/register", userHandler.HandleRegister)
		r.Post("/login", userHandler.HandleLogin)
		r.Post("/logout", userHandler.HandleLogout)
		r.Method(http.MethodGet, "/profile", gate.Require(userHandler.HandleProfile))
		r.Method(http.MethodPut, "/", gate.Require(userHandler.HandleUpdate))
		r.Get("/{id}", userHandler.HandleGetByID)
	})

	s.router.Route("/api/photos", func(r chi.Router) {
		r.Method(http.MethodPost, "/", gate.Require(photoHandler.HandleCreate))
		r.Method(http.MethodGet, "/", gate.Require(photoHandler.HandleList))
		r.Method(http.MethodGet, "/user/{id}", gate.Require(photoHandler.HandleListByUser))
		r.Method(http.MethodGet, "/search", gate.Require(photoHandler.HandleSearch))
		r.Method(http.MethodGet, "/{id}", gate.Require(photoHandler.HandleGetByID))
		r.Method(http.MethodPut, "/{id}", gate.Require(photoHandler.HandleUpdate))
		r.Method(http.MethodDelete, "/{id}", gate.Require(photoHandler.HandleDelete))
		r.Method(http.MethodPut, "/like/{id}", gate.Require(photoHandler.HandleLike))
		r.Method(http.MethodPut, "/comment/{id}", gate.Require(photoHandler.HandleComment))
	})

	return nil
}

// filesOnly hides directories so /uploads never lists its contents.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}

// Handler returns the full request pipeline, traced by otelhttp. With no
// tracer provider configured the spans are no-ops.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, ServiceName)
}

// Close releases the database. Run calls it on return.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves until SIGINT or SIGTERM and then shuts down gracefully.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new connections
//  2. Wait up to 30s for in-flight requests
//  3. Close the database (flushes the WAL, releases the file lock)
func (s *Server) Run(ctx context.Context) error {
	defer s.db.Close()

	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(s.config.Port)))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", s.config.Port, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second, // uploads
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", ln.Addr().String()),
			slog.String("database", s.config.DBPath),
			slog.String("storage", s.config.StorageBackend),
		)
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
		return nil
	}
}
