/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package evloop provides periodic timers that drive bandwidth group refills.
//
// EventLoop is the only thing a bandwidth group needs from its host.
// Loop is the default implementation that runs every timer in its own goroutine,
// and evlooptest.Loop is a manually driven implementation for tests.
package evloop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/acronis/go-bwlimit/log"
	"github.com/acronis/go-bwlimit/service"
)

// ErrLoopStopped is returned when a timer is requested from a stopped loop.
var ErrLoopStopped = errors.New("event loop is stopped")

// ErrInvalidPeriod is returned when a timer period is not positive.
var ErrInvalidPeriod = errors.New("timer period must be positive")

// EventLoop creates periodic timers.
type EventLoop interface {
	// NewTimer arms a timer that calls fn every period until it is stopped.
	NewTimer(period time.Duration, fn func()) (Timer, error)
}

// Timer is a periodic timer created by EventLoop.
type Timer interface {
	// Stop disarms the timer. It does not wait for a callback that is already running.
	// Calling Stop more than once is allowed.
	Stop()
}

// Loop is an EventLoop that runs each timer as a service.PeriodicWorker in a separate goroutine.
// It also implements service.Unit, so it may be stopped together with the rest of a service.
type Loop struct {
	logger    log.FieldLogger
	ctx       context.Context
	ctxCancel context.CancelFunc
	wg        sync.WaitGroup
	active    atomic.Int64

	mu      sync.Mutex
	stopped bool
}

var (
	_ EventLoop    = (*Loop)(nil)
	_ service.Unit = (*Loop)(nil)
)

// New creates a new running Loop. Timers may be created right away, before Start is called.
func New(logger log.FieldLogger) *Loop {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	ctx, ctxCancel := context.WithCancel(context.Background())
	return &Loop{logger: logger, ctx: ctx, ctxCancel: ctxCancel}
}

// NewTimer arms a new periodic timer. The first call of fn happens one period after arming.
func (l *Loop) NewTimer(period time.Duration, fn func()) (Timer, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPeriod, period)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return nil, ErrLoopStopped
	}

	ctx, ctxCancel := context.WithCancel(l.ctx)
	worker := service.NewPeriodicWorkerWithOpts(service.WorkerFunc(func(context.Context) error {
		fn()
		return nil
	}), period, l.logger, service.PeriodicWorkerOpts{Name: "evloop-timer", InitialDelay: period})

	l.wg.Add(1)
	l.active.Inc()
	go func() {
		defer func() {
			l.active.Dec()
			l.wg.Done()
		}()
		_ = worker.Run(ctx)
	}()
	return &loopTimer{cancel: ctxCancel}, nil
}

// Active returns the number of timers whose goroutines are still running.
func (l *Loop) Active() int {
	return int(l.active.Load())
}

// Start blocks until the loop is stopped.
func (l *Loop) Start(fatalErr chan<- error) {
	l.logger.Info("event loop started")
	<-l.ctx.Done()
}

// Stop disarms all timers and rejects new ones. In graceful mode it waits for running callbacks to return.
func (l *Loop) Stop(gracefully bool) error {
	l.mu.Lock()
	alreadyStopped := l.stopped
	l.stopped = true
	l.mu.Unlock()

	l.ctxCancel()
	if gracefully {
		l.wg.Wait()
	}
	if !alreadyStopped {
		l.logger.Info("event loop stopped", log.Bool("graceful", gracefully))
	}
	return nil
}

type loopTimer struct {
	cancel context.CancelFunc
}

func (t *loopTimer) Stop() {
	t.cancel()
}
