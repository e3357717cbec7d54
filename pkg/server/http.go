// Package server exposes the localization handler on the public port and
// health, readiness and Prometheus endpoints on the admin port.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/lengua/pkg/requestid"
)

// ReadinessCheck reports whether a dependency is usable.
type ReadinessCheck func(ctx context.Context) error

// Config holds listener settings.
type Config struct {
	Port      int
	AdminPort int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// HTTPServer runs the public and admin listeners.
type HTTPServer struct {
	public *http.Server
	admin  *http.Server
	checks map[string]ReadinessCheck
	logger *logrus.Logger
	cfg    Config
}

// NewHTTPServer wraps handler with the request middleware chain.
func NewHTTPServer(cfg Config, handler http.Handler, logger *logrus.Logger, checks map[string]ReadinessCheck) *HTTPServer {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 90 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	s := &HTTPServer{
		checks: checks,
		logger: logger,
		cfg:    cfg,
	}
	s.public = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.PublicRouter(handler),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	s.admin = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.AdminPort),
		Handler:      s.AdminRouter(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.ReadTimeout,
	}
	return s
}

// PublicRouter mounts handler behind request ID, recovery, metrics and
// access logging.
func (s *HTTPServer) PublicRouter(handler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware("public"))
	r.Use(LoggingMiddleware(s.logger))
	r.Handle("/*", handler)
	return r
}

// AdminRouter serves /health, /ready and /metrics.
func (s *HTTPServer) AdminRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start runs both listeners until ctx is cancelled, then shuts them down.
func (s *HTTPServer) Start(ctx context.Context) error {
	errChan := make(chan error, 2)
	for _, srv := range []*http.Server{s.public, s.admin} {
		go func() {
			s.logger.WithField("addr", srv.Addr).Info("HTTP server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
		}()
	}

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errChan:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	err := errors.Join(s.public.Shutdown(shutdownCtx), s.admin.Shutdown(shutdownCtx))
	if serveErr != nil {
		return serveErr
	}
	return err
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// handleReady runs every readiness check. Any failure yields 503.
func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			s.logger.WithError(err).WithField("check", name).Warn("Readiness check failed")
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	body := map[string]any{"status": "ready", "checks": results}
	if status != http.StatusOK {
		body["status"] = "not_ready"
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
