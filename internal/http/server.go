package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"ledgerview/internal/log"
	"ledgerview/internal/services"
)

// Invalidator drops cached snapshots.
type Invalidator interface {
	Invalidate()
}

// Options wires the server's collaborators. Ready and Refresher may be nil.
type Options struct {
	Addr      string
	Charts    *services.ChartService
	Refresher Invalidator
	Ready     func(ctx context.Context) error
	Logger    *log.Logger
	// RefreshPerMinute bounds POST /api/snapshot/refresh per client; 0 uses 60.
	RefreshPerMinute int
}

type Server struct {
	http.Server
	charts      *services.ChartService
	refresher   Invalidator
	ready       func(ctx context.Context) error
	logger      *log.Logger
	rateLimiter *rateLimiter
	metrics     *securityMetrics
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		charts:      opts.Charts,
		refresher:   opts.Refresher,
		ready:       opts.Ready,
		logger:      logger,
		rateLimiter: newRateLimiter(opts.RefreshPerMinute),
		metrics:     &securityMetrics{},
		started:     time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/window", s.handleWindow)
	mux.HandleFunc("GET /api/charts", s.handleCharts)
	mux.HandleFunc("GET /api/overview", s.handleOverview)
	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("POST /api/snapshot/refresh", s.handleRefresh)

	var handler http.Handler = mux
	handler = s.withSecurityHeaders(handler)
	handler = log.AccessLogMiddleware()(handler)
	handler = log.RequestIDMiddleware()(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
