// Package server assembles the HTTP API server: router, middleware stack,
// and lifecycle.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/3leaps/godrives/internal/errors"
	"github.com/3leaps/godrives/internal/server/handlers"
	"github.com/3leaps/godrives/internal/server/middleware"
	"github.com/3leaps/godrives/pkg/gateway"
)

// Server hosts the drive API.
type Server struct {
	host   string
	port   int
	router chi.Router
	logger *zap.Logger
	gw     *gateway.Gateway
	http   *http.Server

	readTimeout  time.Duration
	writeTimeout time.Duration
	idleTimeout  time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithGateway mounts the drive API routes for gw.
func WithGateway(gw *gateway.Gateway) Option {
	return func(s *Server) {
		s.gw = gw
	}
}

// WithLogger attaches the server logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithTimeouts overrides the HTTP server timeouts.
func WithTimeouts(read, write, idle time.Duration) Option {
	return func(s *Server) {
		s.readTimeout = read
		s.writeTimeout = write
		s.idleTimeout = idle
	}
}

// New creates a server bound to host:port. Health and version endpoints
// are always registered; API routes come from WithGateway.
func New(host string, port int, opts ...Option) *Server {
	s := &Server{
		host:         host,
		port:         port,
		logger:       zap.NewNop(),
		readTimeout:  30 * time.Second,
		writeTimeout: 30 * time.Second,
		idleTimeout:  120 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RecoveryWithLogger(s.logger))
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		apperrors.WriteError(w, http.StatusNotFound, "NOT_FOUND",
			fmt.Sprintf("no route for %s %s", req.Method, req.URL.Path),
			w.Header().Get(middleware.RequestIDHeader))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		apperrors.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			fmt.Sprintf("method %s not allowed for %s", req.Method, req.URL.Path),
			w.Header().Get(middleware.RequestIDHeader))
	})

	health := handlers.GetHealthManager()
	r.Get("/health", health.HealthHandler)
	r.Get("/health/live", health.LivenessHandler)
	r.Get("/health/ready", health.ReadinessHandler)
	r.Get("/health/startup", health.StartupHandler)
	r.Get("/version", handlers.VersionHandler)

	if s.gw != nil {
		h := handlers.NewDrivesHandler(s.gw, s.logger)
		r.Route("/api", h.Routes)
	}
	return r
}

// Handler returns the assembled router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// Addr returns the bind address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.host, s.port)
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:         s.Addr(),
		Handler:      middleware.Logging(s.logger)(s.router),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
		IdleTimeout:  s.idleTimeout,
	}
	s.logger.Info("server listening", zap.String("addr", s.Addr()))
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
