/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package budget

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"time"
)

// DefaultTick is the refill period used when Config.Tick is not set.
const DefaultTick = time.Second

// ErrInvalidConfig is returned when a budget configuration cannot be used.
var ErrInvalidConfig = errors.New("invalid budget configuration")

// Budget is a shared read/write byte budget replenished on a fixed tick.
type Budget interface {
	// Advance adds one tick worth of credit in both directions.
	Advance()

	// ConsumeRead charges n read bytes.
	ConsumeRead(n int64)

	// ConsumeWrite charges n written bytes.
	ConsumeWrite(n int64)

	// ReadCredit returns the remaining read credit in bytes. It may be negative.
	ReadCredit() int64

	// WriteCredit returns the remaining write credit in bytes. It may be negative.
	WriteCredit() int64
}

// Clock provides the current time. It is replaced in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Config is a static configuration of a budget.
type Config struct {
	// ReadRate is the number of bytes per second that may be read.
	ReadRate uint64

	// WriteRate is the number of bytes per second that may be written.
	WriteRate uint64

	// ReadBurst is the maximum read credit. Zero means one tick worth of ReadRate.
	ReadBurst uint64

	// WriteBurst is the maximum write credit. Zero means one tick worth of WriteRate.
	WriteBurst uint64

	// Tick is the requested refill period. Zero means DefaultTick.
	// The effective period is returned by TickInterval.
	Tick time.Duration
}

// NewConfig creates a Config with the given rates (bytes per second) and default tick and bursts.
func NewConfig(readRate, writeRate uint64) Config {
	return Config{ReadRate: readRate, WriteRate: writeRate}
}

// Validate checks that the configuration may be used for building a budget.
func (c Config) Validate() error {
	if c.ReadRate == 0 {
		return fmt.Errorf("%w: read rate must be positive", ErrInvalidConfig)
	}
	if c.WriteRate == 0 {
		return fmt.Errorf("%w: write rate must be positive", ErrInvalidConfig)
	}
	if c.Tick < 0 {
		return fmt.Errorf("%w: tick must not be negative", ErrInvalidConfig)
	}
	return nil
}

// TickInterval returns the refill period for the configuration.
// It is the configured tick (or DefaultTick), lengthened if needed so that every tick
// refills at least one byte in each direction.
func TickInterval(cfg Config) time.Duration {
	tick := cfg.Tick
	if tick <= 0 {
		tick = DefaultTick
	}
	minRate := cfg.ReadRate
	if cfg.WriteRate != 0 && (minRate == 0 || cfg.WriteRate < minRate) {
		minRate = cfg.WriteRate
	}
	if minRate == 0 {
		return tick
	}
	if minTick := time.Duration((uint64(time.Second) + minRate - 1) / minRate); tick < minTick {
		tick = minTick
	}
	return tick
}

// burstSize returns the capacity for a direction: the explicit burst,
// or the number of bytes refilled during one tick.
func burstSize(rate, burst uint64, tick time.Duration) int {
	size := burst
	if size == 0 {
		hi, lo := bits.Mul64(rate, uint64(tick))
		if hi >= uint64(time.Second) {
			return math.MaxInt32
		}
		size, _ = bits.Div64(hi, lo, uint64(time.Second))
	}
	if size < 1 {
		size = 1
	}
	if size > math.MaxInt32 {
		size = math.MaxInt32
	}
	return int(size)
}
