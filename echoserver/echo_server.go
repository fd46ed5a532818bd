/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package echoserver provides a TCP echo server whose connections share the bandwidth of one group.
// Bytes read from a client are charged to the group and then written back to the client.
package echoserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/acronis/go-bwlimit/bwgroup"
	"github.com/acronis/go-bwlimit/bwnet"
	"github.com/acronis/go-bwlimit/log"
	"github.com/acronis/go-bwlimit/service"
)

// Accept errors are retried with exponentially growing delays within this interval.
const (
	acceptInitialInterval = 5 * time.Millisecond
	acceptMaxInterval     = time.Second
	acceptMaxElapsedTime  = time.Minute
)

// Opts represents optional parameters of a Server.
type Opts struct {
	// Logger is used for logging server and connection lifecycle. Disabled by default.
	Logger log.FieldLogger

	// Metrics are registered and unregistered together with the server by service.Service.
	Metrics service.MetricsRegisterer
}

// Server is an echo server. It implements service.Unit.
type Server struct {
	cfg     *Config
	group   *bwgroup.Group
	logger  log.FieldLogger
	metrics service.MetricsRegisterer

	// NewBackOff builds the delay policy of the accept loop.
	NewBackOff func() backoff.BackOff

	mu       sync.Mutex
	listener net.Listener
	conns    map[*bwnet.Conn]struct{}
	stopped  bool
	connsWg  sync.WaitGroup
	done     chan struct{}
	started  chan struct{}
}

var (
	_ service.Unit              = (*Server)(nil)
	_ service.MetricsRegisterer = (*Server)(nil)
)

// New creates a new echo server adding all accepted connections to the group.
func New(cfg *Config, group *bwgroup.Group, logger log.FieldLogger) *Server {
	return NewWithOpts(cfg, group, Opts{Logger: logger})
}

// NewWithOpts is a more configurable version of New.
func NewWithOpts(cfg *Config, group *bwgroup.Group, opts Opts) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	return &Server{
		cfg:        cfg,
		group:      group,
		logger:     logger.With(log.String("address", cfg.Address)),
		metrics:    opts.Metrics,
		NewBackOff: newAcceptBackOff,
		conns:      make(map[*bwnet.Conn]struct{}),
		done:       make(chan struct{}),
		started:    make(chan struct{}),
	}
}

func newAcceptBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = acceptInitialInterval
	eb.MaxInterval = acceptMaxInterval
	eb.MaxElapsedTime = acceptMaxElapsedTime
	eb.Reset()
	return eb
}

// MustRegisterMetrics registers the metrics passed in Opts.
func (s *Server) MustRegisterMetrics() {
	if s.metrics != nil {
		s.metrics.MustRegisterMetrics()
	}
}

// UnregisterMetrics unregisters the metrics passed in Opts.
func (s *Server) UnregisterMetrics() {
	if s.metrics != nil {
		s.metrics.UnregisterMetrics()
	}
}

// Addr returns the address the server listens on, or nil if the server is not listening.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Started returns a channel closed when the server starts accepting connections or fails to.
func (s *Server) Started() <-chan struct{} {
	return s.started
}

// ConnCount returns the number of connections being served.
func (s *Server) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Start listens and serves connections in a blocking way.
// If a fatal error occurs, it's sent into passed fatalError channel and should be processed outside.
func (s *Server) Start(fatalError chan<- error) {
	defer close(s.done)

	ln, err := s.listen()
	close(s.started)
	if err != nil {
		if !errors.Is(err, net.ErrClosed) {
			s.logger.Error("echo server listen error", log.Error(err))
			fatalError <- err
		}
		return
	}
	s.logger.Info("echo server started")

	if err = s.serve(ln); err != nil {
		s.logger.Error("echo server accept error", log.Error(err))
		fatalError <- err
	}
}

func (s *Server) listen() (net.Listener, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, net.ErrClosed
	}
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	s.listener = bwnet.NewListener(ln, s.group, bwnet.ConnOpts{ChunkSize: int(s.cfg.ChunkSize), Logger: s.logger})
	return s.listener, nil
}

// serve accepts connections until the listener is closed.
func (s *Server) serve(ln net.Listener) error {
	bo := s.NewBackOff()
	for {
		c, err := ln.Accept()
		if err != nil {
			if s.isStopped() {
				return nil
			}
			if errors.Is(err, bwgroup.ErrGroupClosed) {
				return fmt.Errorf("accept: %w", err)
			}
			delay := bo.NextBackOff()
			if delay == backoff.Stop {
				return fmt.Errorf("accept: %w", err)
			}
			s.logger.Warn("accept connection failed, retrying", log.Error(err), log.Duration("delay", delay))
			time.Sleep(delay)
			continue
		}
		bo.Reset()
		if !s.trackConn(c.(*bwnet.Conn)) {
			_ = c.Close()
			return nil
		}
	}
}

func (s *Server) trackConn(conn *bwnet.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.conns[conn] = struct{}{}
	s.connsWg.Add(1)
	go s.handleConn(conn)
	return true
}

func (s *Server) handleConn(conn *bwnet.Conn) {
	defer s.connsWg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	logger := s.logger.With(log.String("conn_id", conn.ID().String()))
	buf := make([]byte, int(s.cfg.ChunkSize))
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if _, wErr := conn.Write(buf[:n]); wErr != nil {
				if !errors.Is(wErr, net.ErrClosed) {
					logger.Warn("echo write failed", log.Error(wErr))
				}
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				logger.Warn("echo read failed", log.Error(err))
			}
			return
		}
	}
}

// StatsWorker returns a worker that logs the number of served connections and the group traffic totals.
func (s *Server) StatsWorker() service.Worker {
	return service.WorkerFunc(func(context.Context) error {
		read, written := s.group.Totals()
		s.logger.Info("echo server stats",
			log.Int("conns", s.ConnCount()),
			log.Int("group_members", s.group.Len()),
			log.Bool("read_suspended", s.group.ReadSuspended()),
			log.Bool("write_suspended", s.group.WriteSuspended()),
			log.Bytes("total_read", read),
			log.Bytes("total_written", written))
		return nil
	})
}

func (s *Server) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Stop stops accepting connections. In graceful mode, served connections are given
// ShutdownTimeout to be closed by clients, the rest are closed forcibly.
func (s *Server) Stop(gracefully bool) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	ln := s.listener
	s.mu.Unlock()

	s.logger.Info("stopping echo server...", log.Bool("graceful", gracefully))
	var lnErr error
	if ln != nil {
		lnErr = ln.Close()
		<-s.done
	}

	if gracefully && s.cfg.ShutdownTimeout > 0 && !s.waitConns(s.cfg.ShutdownTimeout) {
		s.logger.Warn("echo server shutdown timeout exceeded, closing connections", log.Int("conns", s.ConnCount()))
	}
	s.closeConns()
	s.connsWg.Wait()
	s.logger.Info("echo server stopped")

	if lnErr != nil && !errors.Is(lnErr, net.ErrClosed) {
		return lnErr
	}
	return nil
}

func (s *Server) waitConns(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.connsWg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (s *Server) closeConns() {
	s.mu.Lock()
	conns := make([]*bwnet.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		_ = c.Close()
	}
}
