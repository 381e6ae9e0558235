package rest

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

	"github.com/davidleathers/fraud-scoring-backend/internal/infrastructure/cache"
	"github.com/davidleathers/fraud-scoring-backend/internal/infrastructure/config"
	"github.com/davidleathers/fraud-scoring-backend/internal/metrics"
	"github.com/davidleathers/fraud-scoring-backend/internal/service/scoring"
)

// Dependencies are the wired services the server exposes.
type Dependencies struct {
	Scoring     *scoring.Service
	Health      *HealthService
	RateLimiter cache.RateLimiter
	Metrics     *metrics.Registry
	Logger      *slog.Logger

	// MetricsHandler serves GET /metrics when set.
	MetricsHandler http.Handler
}

// Server is the fraud scoring HTTP server.
type Server struct {
	config     *config.Config
	httpServer *http.Server
	handler    *Handler
	health     *HealthService
	logger     *slog.Logger
}

// NewServer assembles routes and the middleware chain.
func NewServer(cfg *config.Config, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	handler := NewHandler(deps.Scoring, cfg.Scoring.MaxBatchSize, logger)

	server := &Server{
		config:  cfg,
		handler: handler,
		health:  deps.Health,
		logger:  logger,
	}

	middlewares := []Middleware{
		requestIDMiddleware,
		loggingMiddleware(logger),
		metricsMiddleware(deps.Metrics),
		recoveryMiddleware(logger),
	}
	if cfg.RateLimit.Enabled && deps.RateLimiter != nil {
		middlewares = append(middlewares, rateLimitMiddleware(deps.RateLimiter, cfg.RateLimit))
	}
	middlewares = append(middlewares, timeoutMiddleware(cfg.Server.RequestTimeout))

	mux := server.setupRoutes(deps.MetricsHandler)

	var h http.Handler = mux
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}

	server.httpServer = &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        h,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    time.Minute,
		MaxHeaderBytes: 1 << 20,
	}

	return server
}

func (s *Server) setupRoutes(metricsHandler http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.health.ReadinessHandler())
	mux.HandleFunc("GET /healthz", s.health.LivenessHandler())
	mux.HandleFunc("GET /ready", s.health.ReadinessHandler())

	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	mux.HandleFunc("POST /api/v1/fraud/score", s.handler.handleScore)
	mux.HandleFunc("POST /api/v1/fraud/batch", s.handler.handleBatch)
	mux.HandleFunc("GET /api/v1/model/info", s.handler.handleModelInfo)

	return mux
}

// Handler exposes the fully wrapped handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the server until it fails or a shutdown signal arrives.
func (s *Server) Start() error {
	s.logger.Info("starting API server",
		"address", s.httpServer.Addr,
		"environment", s.config.Environment,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-sigCh:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown()
	}
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("failed to shutdown server", "error", err)
		return err
	}

	s.logger.Info("server shutdown complete")
	return nil
}
