package testfixtures

import (
	"sync"
	"time"
)

// Clock is a deterministic time source for tests. Each call to Now advances
// it by one second so recorded timestamps stay distinct and ordered.
type Clock struct {
	mu   sync.Mutex
	next time.Time
}

// NewClock creates a clock starting at the given instant.
func NewClock(start time.Time) *Clock {
	return &Clock{next: start}
}

// Now returns the next instant in the sequence.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(time.Second)
	return now
}
