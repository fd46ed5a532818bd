/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package bwgroup

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/acronis/go-bwlimit/budget"
	"github.com/acronis/go-bwlimit/config"
	"github.com/acronis/go-bwlimit/evloop"
	"github.com/acronis/go-bwlimit/log"
)

// Rand chooses the member from which a resume broadcast starts.
// Intn is only called with the group lock held.
type Rand interface {
	// Intn returns a number in [0, n).
	Intn(n int) int
}

// Opts represents optional parameters of a Group.
type Opts struct {
	// Logger is used for logging group lifecycle and broadcasts. Disabled by default.
	Logger log.FieldLogger

	// Rand overrides the time-seeded source of resume starting points.
	Rand Rand

	// Budget overrides the token bucket built from Config.
	Budget budget.Budget

	// Clock is used by the default token bucket. The system clock by default.
	Clock budget.Clock

	// Metrics collects group metrics. Disabled by default.
	Metrics MetricsCollector
}

// Group is a set of connections sharing one bandwidth budget.
type Group struct {
	mu             sync.Mutex
	budget         budget.Budget
	members        []*Handle
	readSuspended  bool
	writeSuspended bool
	closed         bool
	nextID         uint64
	totalRead      uint64
	totalWritten   uint64

	timer   evloop.Timer
	rand    Rand
	logger  log.FieldLogger
	metrics MetricsCollector
}

// New creates a new Group with the given rates in bytes per second and default parameters,
// and arms its refill timer on the loop.
func New(loop evloop.EventLoop, readRate, writeRate uint64) (*Group, error) {
	cfg := NewDefaultConfig()
	cfg.ReadRate, cfg.WriteRate = config.BytesCount(readRate), config.BytesCount(writeRate)
	return NewWithOpts(loop, cfg, Opts{})
}

// NewWithOpts is a more configurable version of New.
func NewWithOpts(loop evloop.EventLoop, cfg *Config, opts Opts) (*Group, error) {
	budgetCfg := cfg.BudgetConfig()
	if err := budgetCfg.Validate(); err != nil {
		return nil, err
	}

	g := &Group{
		budget:  opts.Budget,
		rand:    opts.Rand,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
	if g.budget == nil {
		tb, err := budget.NewWithClock(budgetCfg, opts.Clock)
		if err != nil {
			return nil, err
		}
		g.budget = tb
	}
	if g.rand == nil {
		g.rand = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // fairness, not security
	}
	if g.logger == nil {
		g.logger = log.NewDisabledLogger()
	}
	if g.metrics == nil {
		g.metrics = disabledMetrics{}
	}

	tick := budget.TickInterval(budgetCfg)
	timer, err := loop.NewTimer(tick, g.refill)
	if err != nil {
		return nil, fmt.Errorf("arm refill timer: %w", err)
	}
	g.timer = timer

	g.logger.Info("bandwidth group created",
		log.Bytes("read_rate", budgetCfg.ReadRate),
		log.Bytes("write_rate", budgetCfg.WriteRate),
		log.Duration("tick", tick))
	return g, nil
}

// Add adds a connection to the tail of the group. The connection object is never used by the group,
// it is only kept to be returned by Handle.Conn.
func (g *Group) Add(conn interface{}) (*Handle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil, ErrGroupClosed
	}
	g.nextID++
	h := &Handle{group: g, conn: conn, id: g.nextID}
	g.members = append(g.members, h)
	g.metrics.IncMembers()
	return h, nil
}

// ReadSuspended reports whether reading is suspended group-wide.
func (g *Group) ReadSuspended() bool {
	return g.Suspended(DirectionRead)
}

// WriteSuspended reports whether writing is suspended group-wide.
func (g *Group) WriteSuspended() bool {
	return g.Suspended(DirectionWrite)
}

// Suspended reports whether the direction is suspended group-wide.
// It returns false for a direction that is not valid.
func (g *Group) Suspended(dir Direction) bool {
	if !dir.Valid() {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return *g.suspendedFlagLocked(dir)
}

// Len returns the number of members.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.members)
}

// Totals returns the total numbers of bytes read and written by all members ever.
func (g *Group) Totals() (read, written uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.totalRead, g.totalWritten
}

// Close stops the refill timer. All members must be removed before.
// Closing a closed group does nothing.
func (g *Group) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}
	if len(g.members) != 0 {
		return fmt.Errorf("%w: %d members", ErrGroupNotEmpty, len(g.members))
	}
	g.closed = true
	g.timer.Stop()

	g.logger.Info("bandwidth group closed",
		log.Bytes("total_read", g.totalRead), log.Bytes("total_written", g.totalWritten))
	return nil
}

// refill is the timer callback: it advances the budget and resumes directions that have credit again.
func (g *Group) refill() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	g.budget.Advance()
	for _, dir := range directions {
		if flag := g.suspendedFlagLocked(dir); *flag && g.creditLocked(dir) >= 1 {
			g.resumeAllLocked(dir)
			*flag = false
		}
	}
}

// reportLocked charges n bytes and suspends or resumes the direction depending on the remaining credit.
func (g *Group) reportLocked(dir Direction, n int) {
	if dir == DirectionRead {
		g.budget.ConsumeRead(int64(n))
		g.totalRead += uint64(n)
	} else {
		g.budget.ConsumeWrite(int64(n))
		g.totalWritten += uint64(n)
	}
	g.metrics.AddBytes(dir, n)

	flag := g.suspendedFlagLocked(dir)
	if g.creditLocked(dir) <= 0 {
		if !*flag {
			g.suspendAllLocked(dir)
			*flag = true
		}
		return
	}
	if *flag {
		g.resumeAllLocked(dir)
		*flag = false
	}
}

func (g *Group) removeLocked(h *Handle) {
	for i, m := range g.members {
		if m == h {
			copy(g.members[i:], g.members[i+1:])
			g.members[len(g.members)-1] = nil
			g.members = g.members[:len(g.members)-1]
			break
		}
	}
	h.removed = true
	g.metrics.DecMembers()
}

func (g *Group) suspendedFlagLocked(dir Direction) *bool {
	if dir == DirectionRead {
		return &g.readSuspended
	}
	return &g.writeSuspended
}

func (g *Group) creditLocked(dir Direction) int64 {
	if dir == DirectionRead {
		return g.budget.ReadCredit()
	}
	return g.budget.WriteCredit()
}
