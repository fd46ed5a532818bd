/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package metricsserver provides an HTTP server exposing Prometheus metrics, a liveness endpoint and,
// optionally, pprof handlers. It implements service.Unit.
package metricsserver

import (
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/acronis/go-bwlimit/log"
	"github.com/acronis/go-bwlimit/service"
)

// Endpoint paths.
const (
	MetricsPath = "/metrics"
	HealthPath  = "/healthz"
	DebugPath   = "/debug"
)

// MetricsServer is an HTTP server for metrics scraping.
type MetricsServer struct {
	HTTPServer *http.Server
	Logger     log.FieldLogger

	mu             sync.Mutex
	started        bool
	addr           net.Addr
	httpServerDone chan struct{}
}

var _ service.Unit = (*MetricsServer)(nil)

// New creates a new metrics server exposing metrics of the gatherer.
func New(cfg *Config, gatherer prometheus.Gatherer, logger log.FieldLogger) *MetricsServer {
	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Method(http.MethodGet, MetricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	router.Get(HealthPath, func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
	})
	if cfg.Profiling {
		router.Mount(DebugPath, chimiddleware.Profiler())
	}

	return &MetricsServer{
		HTTPServer: &http.Server{
			Addr:              cfg.Address,
			Handler:           router,
			ReadHeaderTimeout: time.Second * 5,
		},
		Logger:         logger,
		httpServerDone: make(chan struct{}),
	}
}

// Addr returns the address the server listens on, or nil if it is not started yet.
func (s *MetricsServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Start starts metrics HTTP server in a blocking way.
// If a fatal error occurs, it's sent into passed fatalError channel and should be processed outside.
func (s *MetricsServer) Start(fatalError chan<- error) {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	defer close(s.httpServerDone)

	logger := s.Logger.With(log.String("address", s.HTTPServer.Addr))

	ln, err := net.Listen("tcp", s.HTTPServer.Addr)
	if err != nil {
		logger.Error("metrics HTTP server listen error", log.Error(err))
		fatalError <- err
		return
	}
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	logger.Info("starting metrics HTTP server...")
	if err = s.HTTPServer.Serve(ln); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			logger.Info("metrics HTTP server closed")
			return
		}
		logger.Error("metrics HTTP server error", log.Error(err))
		fatalError <- err
	}
}

// Stop stops metrics HTTP server (always in no gracefully way).
func (s *MetricsServer) Stop(gracefully bool) error {
	s.Logger.Info("closing metrics HTTP server...")
	if err := s.HTTPServer.Close(); err != nil {
		s.Logger.Error("metrics HTTP server closing error", log.Error(err))
		return err
	}
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if started {
		<-s.httpServerDone // Wait closing of listener.
	}
	return nil
}
