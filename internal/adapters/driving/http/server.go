package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/metrics"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	uploadDir  string
	maxUpload  int64
	logger     *slog.Logger
	now        func() time.Time

	// Services
	authService   driving.AuthService // nil disables authentication
	searchService driving.SearchService
	docService    driving.DocumentService

	// Infrastructure
	metrics     *metrics.Metrics // optional
	db          Pinger
	redisClient Pinger // optional
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	UploadDir      string // Where uploaded files are kept
	MaxUploadBytes int64
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		UploadDir:      "data/kb/uploads",
		MaxUploadBytes: 32 << 20,
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	authService driving.AuthService, // can be nil
	searchService driving.SearchService,
	docService driving.DocumentService,
	m *metrics.Metrics, // can be nil
	db Pinger,
	redisClient Pinger, // can be nil
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultConfig().MaxUploadBytes
	}

	s := &Server{
		router:        http.NewServeMux(),
		version:       cfg.Version,
		uploadDir:     cfg.UploadDir,
		maxUpload:     cfg.MaxUploadBytes,
		logger:        logger.With("component", "http"),
		now:           func() time.Time { return time.Now().UTC() },
		authService:   authService,
		searchService: searchService,
		docService:    docService,
		metrics:       m,
		db:            db,
		redisClient:   redisClient,
	}

	s.setupRoutes()

	handler := NewRecoveryMiddleware(s.logger).Handler(
		NewLoggingMiddleware(s.logger, m).Handler(s.router))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped request handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authService)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	if s.metrics != nil {
		s.router.Handle("GET /metrics", s.metrics.Handler())
	}

	// Search endpoints
	s.router.Handle("POST /api/v1/kb/search",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleSearch)))
	s.router.Handle("GET /api/v1/kb/policies",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListPolicies)))

	// Document endpoints
	s.router.Handle("GET /api/v1/kb/documents",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListDocuments)))
	s.router.Handle("GET /api/v1/kb/documents/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetDocument)))

	// Ingestion endpoints (admin-only)
	s.router.Handle("POST /api/v1/kb/ingest-text",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleIngestText))))
	s.router.Handle("POST /api/v1/kb/ingest",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleIngestFile))))
}

// Start starts the HTTP server and blocks until ctx is cancelled or the
// process receives SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr, "version", s.version)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
