/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package bwgroup

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-bwlimit/config"
	"github.com/acronis/go-bwlimit/evloop/evlooptest"
)

// fakeBudget is a budget whose credit is set directly by tests. It is only used from one goroutine.
type fakeBudget struct {
	readCredit  int64
	writeCredit int64
	readRefill  int64
	writeRefill int64
	advances    int
}

func (b *fakeBudget) Advance() {
	b.advances++
	b.readCredit += b.readRefill
	b.writeCredit += b.writeRefill
}

func (b *fakeBudget) ConsumeRead(n int64) {
	b.readCredit -= n
}

func (b *fakeBudget) ConsumeWrite(n int64) {
	b.writeCredit -= n
}

func (b *fakeBudget) ReadCredit() int64 {
	return b.readCredit
}

func (b *fakeBudget) WriteCredit() int64 {
	return b.writeCredit
}

type cbEvent struct {
	handle uint64
	dir    Direction
	resume bool
}

func (e cbEvent) String() string {
	kind := "suspend"
	if e.resume {
		kind = "resume"
	}
	return fmt.Sprintf("%s(%d,%s)", kind, e.handle, e.dir)
}

type callbackRecorder struct {
	mu      sync.Mutex
	events  []cbEvent
	badArgs int
}

const cbArg = "callback-arg"

func (r *callbackRecorder) attach(handles ...*Handle) {
	for _, h := range handles {
		h.SetCallbacks(r.onSuspend, r.onResume, cbArg)
	}
}

func (r *callbackRecorder) onSuspend(h *Handle, dir Direction, arg interface{}) {
	r.record(h, dir, arg, false)
}

func (r *callbackRecorder) onResume(h *Handle, dir Direction, arg interface{}) {
	r.record(h, dir, arg, true)
}

func (r *callbackRecorder) record(h *Handle, dir Direction, arg interface{}, resume bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if arg != cbArg {
		r.badArgs++
	}
	r.events = append(r.events, cbEvent{handle: h.ID(), dir: dir, resume: resume})
}

// take returns recorded events and forgets them.
func (r *callbackRecorder) take() []cbEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := r.events
	r.events = nil
	return events
}

func (r *callbackRecorder) all() []cbEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]cbEvent(nil), r.events...)
}

// requireAlternation checks that suspend and resume strictly alternate for every handle and direction.
func requireAlternation(t *testing.T, events []cbEvent) {
	t.Helper()
	type key struct {
		handle uint64
		dir    Direction
	}
	last := map[key]cbEvent{}
	for i, e := range events {
		k := key{e.handle, e.dir}
		if prev, ok := last[k]; ok {
			require.NotEqual(t, prev.resume, e.resume, "event #%d %s repeats the previous one", i, e)
		}
		last[k] = e
	}
}

func suspendEvents(dir Direction, ids ...uint64) []cbEvent {
	return makeEvents(dir, false, ids)
}

func resumeEvents(dir Direction, ids ...uint64) []cbEvent {
	return makeEvents(dir, true, ids)
}

func makeEvents(dir Direction, resume bool, ids []uint64) []cbEvent {
	events := make([]cbEvent, 0, len(ids))
	for _, id := range ids {
		events = append(events, cbEvent{handle: id, dir: dir, resume: resume})
	}
	return events
}

func newTestConfig(readRate, writeRate uint64) *Config {
	cfg := NewDefaultConfig()
	cfg.ReadRate = config.BytesCount(readRate)
	cfg.WriteRate = config.BytesCount(writeRate)
	return cfg
}

func newFakeBudgetGroup(t *testing.T, fb *fakeBudget, opts Opts) (*Group, *evlooptest.Loop) {
	t.Helper()
	loop := evlooptest.NewLoop()
	opts.Budget = fb
	g, err := NewWithOpts(loop, newTestConfig(1024, 1024), opts)
	require.NoError(t, err)
	return g, loop
}

func addHandles(t *testing.T, g *Group, n int) []*Handle {
	t.Helper()
	handles := make([]*Handle, 0, n)
	for i := 0; i < n; i++ {
		h, err := g.Add(fmt.Sprintf("conn#%d", i+1))
		require.NoError(t, err)
		handles = append(handles, h)
	}
	return handles
}
