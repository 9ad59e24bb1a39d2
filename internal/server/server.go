package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/sundayezeilo/shortlinks/internal/auth"
	"github.com/sundayezeilo/shortlinks/internal/config"
	"github.com/sundayezeilo/shortlinks/internal/httpx"
	"github.com/sundayezeilo/shortlinks/internal/metrics"
	"github.com/sundayezeilo/shortlinks/internal/shortener"
)

// Deps are the request handlers and collaborators the server routes to.
type Deps struct {
	Links   *shortener.Handler
	Users   *auth.Handler
	Tokens  *auth.Tokens
	Metrics *metrics.Metrics // nil disables /metrics
}

// Server represents the HTTP server with all dependencies.
type Server struct {
	config *config.Config
	logger *slog.Logger
	deps   Deps

	handlerOnce sync.Once
	handler     http.Handler

	mu     sync.Mutex
	server *http.Server
}

// New creates a new Server instance.
func New(cfg *config.Config, logger *slog.Logger, deps Deps) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config: cfg,
		logger: logger,
		deps:   deps,
	}
}

// Handler returns the fully wrapped router. It is built once.
func (s *Server) Handler() http.Handler {
	s.handlerOnce.Do(func() {
		s.handler = s.applyMiddleware(s.setupRoutes())
	})
	return s.handler
}

// Start serves until ctx is cancelled, then shuts down gracefully within
// the configured shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         net.JoinHostPort(s.config.Server.Host, s.config.Server.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server",
			"addr", srv.Addr,
			"env", s.config.App.Environment,
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		s.logger.Info("shutdown requested", "cause", context.Cause(ctx).Error())

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := s.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
		return nil
	}
}

// setupRoutes configures all HTTP routes. Every handler is wrapped with
// httpx.Route so the request log and metrics see the matched pattern.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, httpx.Route(h))
	}

	handle("GET /x/health", s.healthCheckHandler)

	links := s.deps.Links
	handle("POST /links/shorten", links.Shorten)
	handle("GET /links/search", links.Search)
	handle("GET /links/mine", links.Mine)
	handle("GET /links/{short_code}/redirect", links.Redirect)
	handle("PUT /links/{short_code}", links.Update)
	handle("DELETE /links/{short_code}", links.Delete)
	handle("DELETE /links/{$}", links.DeleteAll)
	handle("GET /stats/{short_code}/stats", links.Stats)

	handle("POST /auth_users/register", s.deps.Users.Register)
	handle("POST /auth_users/login", s.deps.Users.Login)

	if s.deps.Metrics != nil && s.config.Observability.MetricsEnabled {
		mux.Handle("GET /metrics", httpx.Route(s.deps.Metrics.Handler()))
	}

	return mux
}

// applyMiddleware wraps the handler with middleware in the correct order.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	return httpx.Chain(
		httpx.Recovery(s.logger),                   // Outermost: catch panics
		httpx.RequestID,                            // Add request ID
		httpx.Logger(s.logger, s.deps.Metrics),     // Log and count requests
		httpx.CORS(nil),                            // CORS headers (allow all)
		auth.Authenticate(s.deps.Tokens, s.logger), // Optional bearer principal
	)(handler)
}

// healthCheckHandler handles health check requests.
func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": s.config.Observability.ServiceName,
		"version": s.config.Observability.ServiceVersion,
	})
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	s.logger.Info("shutting down server")

	if err := srv.Shutdown(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("shutdown timeout exceeded, forcing close")
			return srv.Close()
		}
		return err
	}

	return nil
}
