/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package bwgroup

import (
	"github.com/acronis/go-bwlimit/log"
)

// CallbackFunc is a suspend or resume callback of a connection.
// It is called with the group lock held and must not call any method of the Group or of a Handle.
type CallbackFunc func(h *Handle, dir Direction, arg interface{})

// Controller receives suspend and resume directives for a connection.
// The same restrictions as for CallbackFunc apply to its methods.
type Controller interface {
	Suspend(h *Handle, dir Direction)
	Resume(h *Handle, dir Direction)
}

// Handle is a membership of a connection in a Group.
// All its fields are guarded by the group lock.
type Handle struct {
	group     *Group
	conn      interface{}
	id        uint64
	suspendCb CallbackFunc
	resumeCb  CallbackFunc
	cbArg     interface{}
	removed   bool
	// suspended is indexed by Direction and tells whether the last delivered directive was a suspend.
	suspended [len(directions)]bool
}

// Conn returns the connection object passed to Group.Add.
func (h *Handle) Conn() interface{} {
	return h.conn
}

// Group returns the group the handle belongs (or belonged) to.
func (h *Handle) Group() *Group {
	return h.group
}

// ID returns the sequence number of the handle within its group, starting from 1.
func (h *Handle) ID() uint64 {
	return h.id
}

// SetCallbacks sets the suspend and resume callbacks and the argument passed to them.
// A nil callback is skipped by broadcasts.
func (h *Handle) SetCallbacks(suspend, resume CallbackFunc, arg interface{}) {
	h.group.mu.Lock()
	defer h.group.mu.Unlock()
	h.setCallbacksLocked(suspend, resume, arg)
}

// SetController routes suspend and resume directives to c.
func (h *Handle) SetController(c Controller) {
	h.SetCallbacks(controllerCallbacks(c))
}

// Join routes suspend and resume directives to c and catches up with the suspended directions
// in one step, so no broadcast can get in between.
func (h *Handle) Join(c Controller) error {
	g := h.group
	g.mu.Lock()
	defer g.mu.Unlock()

	if h.removed {
		return ErrHandleRemoved
	}
	h.setCallbacksLocked(controllerCallbacks(c))
	h.catchUpLocked()
	return nil
}

// CatchUp calls the suspend callback of the handle for every direction that is currently
// suspended group-wide and was not yet suspended for this handle. A connection that joins
// a suspended group may call it after setting callbacks, so it does not use the budget
// until the next resume.
func (h *Handle) CatchUp() error {
	g := h.group
	g.mu.Lock()
	defer g.mu.Unlock()

	if h.removed {
		return ErrHandleRemoved
	}
	h.catchUpLocked()
	return nil
}

func (h *Handle) setCallbacksLocked(suspend, resume CallbackFunc, arg interface{}) {
	h.suspendCb, h.resumeCb, h.cbArg = suspend, resume, arg
}

func (h *Handle) catchUpLocked() {
	for _, dir := range directions {
		if *h.group.suspendedFlagLocked(dir) && !h.suspended[dir] {
			h.suspendLocked(dir)
		}
	}
}

func (h *Handle) suspendLocked(dir Direction) {
	if h.suspendCb == nil {
		return
	}
	h.suspended[dir] = true
	h.suspendCb(h, dir, h.cbArg)
}

func (h *Handle) resumeLocked(dir Direction) {
	h.suspended[dir] = false
	if h.resumeCb != nil {
		h.resumeCb(h, dir, h.cbArg)
	}
}

func controllerCallbacks(c Controller) (suspend, resume CallbackFunc, arg interface{}) {
	return func(h *Handle, dir Direction, _ interface{}) { c.Suspend(h, dir) },
		func(h *Handle, dir Direction, _ interface{}) { c.Resume(h, dir) },
		nil
}

// Remove removes the handle from its group. No callbacks are called for the handle afterwards.
func (h *Handle) Remove() error {
	g := h.group
	g.mu.Lock()
	defer g.mu.Unlock()

	if h.removed {
		return ErrHandleRemoved
	}
	g.removeLocked(h)
	return nil
}

// ReportRead charges n read bytes to the group budget.
// It must be called right after the bytes are read from the connection.
func (h *Handle) ReportRead(n int) error {
	return h.report(DirectionRead, n)
}

// ReportWrite charges n written bytes to the group budget.
// It must be called right after the bytes are written to the connection.
func (h *Handle) ReportWrite(n int) error {
	return h.report(DirectionWrite, n)
}

func (h *Handle) report(dir Direction, n int) error {
	if n < 0 {
		return ErrNegativeByteCount
	}

	g := h.group
	g.mu.Lock()
	defer g.mu.Unlock()

	if h.removed {
		g.logger.Warn("bandwidth report on removed connection handle",
			log.Uint64("handle", h.id), log.String("direction", dir.String()), log.Int("bytes", n))
		return ErrHandleRemoved
	}
	g.reportLocked(dir, n)
	return nil
}
