// Package server assembles the HTTP router, the standard /health, /info and
// /metrics endpoints and the server lifecycle.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/mykcryptodev/vrbs-vote-frame/internal/logging"
	"github.com/mykcryptodev/vrbs-vote-frame/internal/middleware"
)

const (
	healthCheckTimeout = 5 * time.Second
	limiterCleanup     = 5 * time.Minute
)

// Check probes one dependency.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Config configures a Server.
type Config struct {
	Name    string
	Version string
	Addr    string
	Logger  *logging.Logger

	// Checks are run by /health.
	Checks []Check
	// Stats is reported by /info.
	Stats func() map[string]any

	CORSOrigins       []string
	RequestsPerSecond int
	Burst             int
	// TrustedProxies may set X-Forwarded-For for rate-limit keying.
	TrustedProxies []string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server owns the router and the listening HTTP server.
type Server struct {
	name    string
	version string
	logger  *logging.Logger
	router  *mux.Router
	limiter *middleware.RateLimiter
	checks  []Check
	statsFn func() map[string]any

	httpServer *http.Server
	errCh      chan error
	cancel     context.CancelFunc
	stopOnce   sync.Once
	startTime  time.Time
}

// New creates a server with the standard routes registered.
func New(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		name:    cfg.Name,
		version: cfg.Version,
		logger:  logger,
		router:  mux.NewRouter(),
		limiter: middleware.NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst, logger),
		checks:  cfg.Checks,
		statsFn: cfg.Stats,
		errCh:   make(chan error, 1),
	}
	if err := s.limiter.TrustProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	s.router.Use(middleware.MetricsMiddleware())
	s.RegisterStandardRoutes()

	var handler http.Handler = s.router
	handler = s.limiter.Handler(handler)
	handler = middleware.NewCORSMiddleware(cfg.CORSOrigins).Handler(handler)
	handler = middleware.RecoveryMiddleware(logger)(handler)
	handler = middleware.NewTracingMiddleware(logger).Handler(handler)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  withDefault(cfg.ReadTimeout, 30*time.Second),
		WriteTimeout: withDefault(cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:  withDefault(cfg.IdleTimeout, 120*time.Second),
	}
	return s, nil
}

func withDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Router returns the router for route registration.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Handler returns the complete middleware chain.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving in the background. Listen failures after start are
// delivered on Errors.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start with a caller-provided listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, s.cancel = context.WithCancel(ctx)
	s.startTime = time.Now()
	s.limiter.StartCleanup(ctx, limiterCleanup)

	go func() {
		s.logger.WithFields(map[string]interface{}{"addr": ln.Addr().String()}).Info("server listening")
		if err := s.httpServer.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			s.errCh <- err
		}
	}()
	return nil
}

// Errors reports fatal serve errors.
func (s *Server) Errors() <-chan error {
	return s.errCh
}

// Stop gracefully drains in-flight requests. It is safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		err = s.httpServer.Shutdown(ctx)
	})
	return err
}

// Uptime returns the time since Start.
func (s *Server) Uptime() time.Duration {
	if s.startTime.IsZero() {
		return 0
	}
	return time.Since(s.startTime)
}
