package graph

import (
	"sync"
	"time"
)

// Clock supplies post timestamps.
type Clock interface {
	Now() time.Time
}

// MonotonicClock returns wall-clock time, bumped forward by a nanosecond
// whenever the system clock would repeat or go back. Successive calls
// therefore always return strictly increasing times.
type MonotonicClock struct {
	mu   sync.Mutex
	last time.Time
}

// NewMonotonicClock creates a MonotonicClock.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{}
}

// Now implements Clock.
func (c *MonotonicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if !now.After(c.last) {
		now = c.last.Add(time.Nanosecond)
	}
	c.last = now
	return now
}

var defaultClock = NewMonotonicClock()

// DefaultClock returns the process-wide clock used by NewUser.
func DefaultClock() Clock {
	return defaultClock
}
