// Package epoch maps wall-clock time onto monotonically increasing epoch
// indices of fixed length.
package epoch

import (
	"errors"
	"sync"
	"time"
)

// Epoch is the index of a fixed-length time bucket. Epoch 0 starts at the
// clock's genesis.
type Epoch uint64

// ErrInvalidLength is returned when a clock is configured with a
// non-positive epoch length.
var ErrInvalidLength = errors.New("epoch: length must be positive")

// Clock is the source of epoch time consumed by the ledger.
type Clock interface {
	// Now returns the wall-clock instant the clock considers current.
	Now() time.Time
	// Current returns the epoch containing Now.
	Current() Epoch
	// Length returns the fixed epoch length.
	Length() time.Duration
	// StartOf returns the first instant of e.
	StartOf(e Epoch) time.Time
	// EndOf returns the first instant after e, i.e. StartOf(e+1).
	EndOf(e Epoch) time.Time
}

// Count returns how many whole epochs of the given length fit into d.
func Count(d, length time.Duration) uint64 {
	if d <= 0 || length <= 0 {
		return 0
	}
	return uint64(d / length)
}

// ──────────────────────────────────────────────────
// Fixed clock
// ──────────────────────────────────────────────────

// FixedClock derives epochs from a genesis instant and a fixed length.
type FixedClock struct {
	genesis time.Time
	length  time.Duration
	now     func() time.Time
}

// Option configures a FixedClock.
type Option func(*FixedClock)

// WithNow overrides the wall-clock source.
func WithNow(fn func() time.Time) Option {
	return func(c *FixedClock) { c.now = fn }
}

// NewFixedClock returns a clock whose epoch 0 starts at genesis.
func NewFixedClock(genesis time.Time, length time.Duration, opts ...Option) (*FixedClock, error) {
	if length <= 0 {
		return nil, ErrInvalidLength
	}
	c := &FixedClock{
		genesis: genesis.UTC(),
		length:  length,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Now implements Clock.
func (c *FixedClock) Now() time.Time { return c.now().UTC() }

// Current implements Clock. Instants before genesis map to epoch 0.
func (c *FixedClock) Current() Epoch {
	elapsed := c.Now().Sub(c.genesis)
	if elapsed < 0 {
		return 0
	}
	return Epoch(elapsed / c.length)
}

// Length implements Clock.
func (c *FixedClock) Length() time.Duration { return c.length }

// Genesis returns the first instant of epoch 0.
func (c *FixedClock) Genesis() time.Time { return c.genesis }

// StartOf implements Clock.
func (c *FixedClock) StartOf(e Epoch) time.Time {
	return c.genesis.Add(time.Duration(e) * c.length)
}

// EndOf implements Clock.
func (c *FixedClock) EndOf(e Epoch) time.Time { return c.StartOf(e + 1) }

// ──────────────────────────────────────────────────
// Manual clock
// ──────────────────────────────────────────────────

// ManualClock is a Clock whose current epoch only moves when told to.
// Now reports the start of the current epoch.
type ManualClock struct {
	mu      sync.RWMutex
	genesis time.Time
	length  time.Duration
	current Epoch
}

// NewManualClock returns a ManualClock positioned at epoch 0 with its genesis
// at the Unix epoch.
func NewManualClock(length time.Duration) *ManualClock {
	if length <= 0 {
		panic(ErrInvalidLength)
	}
	return &ManualClock{genesis: time.Unix(0, 0).UTC(), length: length}
}

// Set moves the clock to e.
func (c *ManualClock) Set(e Epoch) {
	c.mu.Lock()
	c.current = e
	c.mu.Unlock()
}

// Advance moves the clock forward by n epochs.
func (c *ManualClock) Advance(n uint64) {
	c.mu.Lock()
	c.current += Epoch(n)
	c.mu.Unlock()
}

// Now implements Clock.
func (c *ManualClock) Now() time.Time { return c.StartOf(c.Current()) }

// Current implements Clock.
func (c *ManualClock) Current() Epoch {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Length implements Clock.
func (c *ManualClock) Length() time.Duration { return c.length }

// StartOf implements Clock.
func (c *ManualClock) StartOf(e Epoch) time.Time {
	return c.genesis.Add(time.Duration(e) * c.length)
}

// EndOf implements Clock.
func (c *ManualClock) EndOf(e Epoch) time.Time { return c.StartOf(e + 1) }
