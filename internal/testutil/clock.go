package testutil

import (
	"sync"
	"time"
)

// StubClock is a filer.Clock that only moves when told to.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

// FixedClock starts at 2024-01-15T10:30:00Z, which makes default restore
// paths end in _20240115T103000Z.
func FixedClock() *StubClock {
	return NewStubClock(time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC))
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d, so consecutive snapshots get
// distinct timestamps.
func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
