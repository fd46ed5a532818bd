/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package bwnet

import (
	"net"
	"os"
	"sync"
	"time"
)

// gate blocks I/O of one direction while the direction is suspended.
// Opening and closing never block, so they may be called from group callbacks.
type gate struct {
	mu     sync.Mutex
	opened chan struct{} // closed while the gate is open
}

func newGate() *gate {
	ch := make(chan struct{})
	close(ch)
	return &gate{opened: ch}
}

func (g *gate) close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.opened:
		g.opened = make(chan struct{})
	default:
	}
}

func (g *gate) open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.opened:
	default:
		close(g.opened)
	}
}

func (g *gate) isOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.opened:
		return true
	default:
		return false
	}
}

// wait blocks until the gate is open, the connection is closed or the deadline passes.
func (g *gate) wait(closed <-chan struct{}, deadline time.Time) error {
	g.mu.Lock()
	opened := g.opened
	g.mu.Unlock()

	select {
	case <-opened:
		return nil
	default:
	}

	var timeout <-chan time.Time
	if !deadline.IsZero() {
		d := time.Until(deadline)
		if d <= 0 {
			return os.ErrDeadlineExceeded
		}
		timer := time.NewTimer(d)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-opened:
		return nil
	case <-closed:
		return net.ErrClosed
	case <-timeout:
		return os.ErrDeadlineExceeded
	}
}
