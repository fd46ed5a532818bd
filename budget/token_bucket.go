/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package budget

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket is a Budget implemented with two token buckets, one per direction.
//
// Consumption is charged at the instant of the most recent Advance call, so credit only grows
// on ticks. Each bucket holds at most its burst; bytes charged beyond what the bucket can
// represent are kept as overdraft that is paid off by later ticks before new credit appears.
type TokenBucket struct {
	mu    sync.Mutex
	clock Clock
	tick  time.Duration
	at    time.Time
	read  *directionBucket
	write *directionBucket
}

var _ Budget = (*TokenBucket)(nil)

// New creates a new TokenBucket using the system clock.
func New(cfg Config) (*TokenBucket, error) {
	return NewWithClock(cfg, SystemClock{})
}

// NewWithClock creates a new TokenBucket with the given clock. Both directions start full.
func NewWithClock(cfg Config, clock Clock) (*TokenBucket, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = SystemClock{}
	}
	tick := TickInterval(cfg)
	return &TokenBucket{
		clock: clock,
		tick:  tick,
		at:    clock.Now(),
		read:  newDirectionBucket(cfg.ReadRate, burstSize(cfg.ReadRate, cfg.ReadBurst, tick)),
		write: newDirectionBucket(cfg.WriteRate, burstSize(cfg.WriteRate, cfg.WriteBurst, tick)),
	}, nil
}

// Tick returns the refill period the owner is expected to call Advance with.
func (tb *TokenBucket) Tick() time.Duration {
	return tb.tick
}

// Advance moves the bucket to the current time, adding the credit accumulated since the previous tick.
func (tb *TokenBucket) Advance() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.clock.Now()
	if now.Before(tb.at) {
		return
	}
	tb.at = now
	tb.read.repay(now)
	tb.write.repay(now)
}

// ConsumeRead charges n read bytes.
func (tb *TokenBucket) ConsumeRead(n int64) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.read.consume(tb.at, n)
}

// ConsumeWrite charges n written bytes.
func (tb *TokenBucket) ConsumeWrite(n int64) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.write.consume(tb.at, n)
}

// ReadCredit returns the remaining read credit in bytes.
func (tb *TokenBucket) ReadCredit() int64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.read.credit(tb.at)
}

// WriteCredit returns the remaining write credit in bytes.
func (tb *TokenBucket) WriteCredit() int64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.write.credit(tb.at)
}

type directionBucket struct {
	limiter   *rate.Limiter
	burst     int
	overdraft int64
}

func newDirectionBucket(bytesPerSec uint64, burst int) *directionBucket {
	return &directionBucket{
		limiter: rate.NewLimiter(rate.Limit(bytesPerSec), burst),
		burst:   burst,
	}
}

func (b *directionBucket) consume(at time.Time, n int64) {
	if n <= 0 {
		return
	}
	chunk := n
	if chunk > int64(b.burst) {
		chunk = int64(b.burst)
	}
	// ReserveN never fails for n <= burst, it lets the bucket go below zero instead.
	b.limiter.ReserveN(at, int(chunk))
	b.overdraft += n - chunk
}

func (b *directionBucket) repay(at time.Time) {
	if b.overdraft == 0 {
		return
	}
	available := int64(math.Floor(b.limiter.TokensAt(at)))
	if available <= 0 {
		return
	}
	if available > b.overdraft {
		available = b.overdraft
	}
	b.limiter.ReserveN(at, int(available))
	b.overdraft -= available
}

func (b *directionBucket) credit(at time.Time) int64 {
	return int64(math.Floor(b.limiter.TokensAt(at))) - b.overdraft
}
