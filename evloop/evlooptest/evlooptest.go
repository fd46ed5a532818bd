/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package evlooptest provides a manually driven evloop.EventLoop for tests.
package evlooptest

import (
	"sync"
	"time"

	"github.com/acronis/go-bwlimit/evloop"
)

// Loop is an evloop.EventLoop whose timers fire only when the test says so.
type Loop struct {
	mu       sync.Mutex
	timers   []*Timer
	failWith error
}

var _ evloop.EventLoop = (*Loop)(nil)

// NewLoop creates a new manual loop.
func NewLoop() *Loop {
	return &Loop{}
}

// FailWith makes the following NewTimer calls fail with err. Nil restores normal behavior.
func (l *Loop) FailWith(err error) {
	l.mu.Lock()
	l.failWith = err
	l.mu.Unlock()
}

// NewTimer registers a new timer.
func (l *Loop) NewTimer(period time.Duration, fn func()) (evloop.Timer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failWith != nil {
		return nil, l.failWith
	}
	t := &Timer{period: period, fn: fn}
	l.timers = append(l.timers, t)
	return t, nil
}

// Fire fires every timer that is not stopped once, in creation order.
func (l *Loop) Fire() {
	for _, t := range l.Timers() {
		t.Fire()
	}
}

// Timers returns all timers ever created, including stopped ones.
func (l *Loop) Timers() []*Timer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Timer(nil), l.timers...)
}

// Active returns the number of timers that are not stopped.
func (l *Loop) Active() int {
	n := 0
	for _, t := range l.Timers() {
		if !t.Stopped() {
			n++
		}
	}
	return n
}

// Periods returns periods of timers that are not stopped.
func (l *Loop) Periods() []time.Duration {
	var periods []time.Duration
	for _, t := range l.Timers() {
		if !t.Stopped() {
			periods = append(periods, t.Period())
		}
	}
	return periods
}

// Timer is a timer of the manual loop.
type Timer struct {
	mu      sync.Mutex
	period  time.Duration
	fn      func()
	stopped bool
	fired   int
}

// Stop disarms the timer.
func (t *Timer) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

// Stopped reports whether Stop was called.
func (t *Timer) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Period returns the period the timer was armed with.
func (t *Timer) Period() time.Duration {
	return t.period
}

// Fired returns how many times the callback was called.
func (t *Timer) Fired() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}

// Fire calls the timer callback unless the timer is stopped.
// The callback runs without any lock of the loop held.
func (t *Timer) Fire() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.fired++
	t.mu.Unlock()
	t.fn()
}
