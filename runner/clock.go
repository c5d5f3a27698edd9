package runner

import (
	"sync"
	"time"
)

// Clock supplies virtual time in nanoseconds. The engine only requires
// monotonicity; the runner reads the clock once per critical section.
type Clock interface {
	Now() int64
}

// WallClock measures nanoseconds elapsed since its creation, so runs
// start at virtual time zero regardless of wall time.
type WallClock struct {
	start time.Time
}

// NewWallClock creates a WallClock anchored at the current instant.
func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

func (c *WallClock) Now() int64 {
	return time.Since(c.start).Nanoseconds()
}

// ManualClock is a hand-advanced clock for deterministic tests.
type ManualClock struct {
	mu sync.Mutex
	t  int64
}

// NewManualClock creates a ManualClock at time zero.
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

func (c *ManualClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d nanoseconds.
func (c *ManualClock) Advance(d int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t += d
}
