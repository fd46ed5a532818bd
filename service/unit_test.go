/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"
)

type mockUnit struct {
	name          string
	running       *atomic.Int32
	stopCh        chan struct{}
	stopOnce      sync.Once
	stopWithError bool
	startError    error

	startCalled             atomic.Int32
	stopCalled              atomic.Int32
	stopGracefullyCalled    atomic.Int32
	registerMetricsCalled   atomic.Int32
	unregisterMetricsCalled atomic.Int32
}

func newMockUnit(name string, running *atomic.Int32) *mockUnit {
	return &mockUnit{name: name, running: running, stopCh: make(chan struct{})}
}

func (u *mockUnit) Start(fatalError chan<- error) {
	u.startCalled.Inc()
	if u.startError != nil {
		fatalError <- u.startError
		return
	}
	u.running.Inc()
	<-u.stopCh
	u.running.Dec()
}

func (u *mockUnit) Stop(gracefully bool) error {
	u.stopCalled.Inc()
	if gracefully {
		u.stopGracefullyCalled.Inc()
	}
	u.stopOnce.Do(func() { close(u.stopCh) })
	if u.stopWithError {
		return fmt.Errorf("%s: internal error", u.name)
	}
	return nil
}

func (u *mockUnit) MustRegisterMetrics() {
	u.registerMetricsCalled.Inc()
}

func (u *mockUnit) UnregisterMetrics() {
	u.unregisterMetricsCalled.Inc()
}

func waitTrue(cond func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond * 5)
	}
	return cond()
}
