package utils

import "time"

// Clock abstracts the current time so expiry logic can be tested without
// sleeping
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RealClock returns a Clock backed by time.Now
func RealClock() Clock { return realClock{} }

// FakeClock is a manually advanced Clock for tests
type FakeClock struct {
	Current time.Time
}

// NewFakeClock returns a FakeClock starting at t
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{Current: t}
}

func (c *FakeClock) Now() time.Time { return c.Current }

// Advance moves the fake clock forward by d
func (c *FakeClock) Advance(d time.Duration) {
	c.Current = c.Current.Add(d)
}
