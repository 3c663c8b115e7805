// Package uptime measures how long the process has been running.
//
// The firmware this service mirrors reports uptime from a millisecond tick
// counter that wraps after about 49 days. Here uptime comes from Go's monotonic
// clock: time.Duration holds int64 nanoseconds, which overflows after roughly
// 292 years, so no wraparound handling is performed.
package uptime

import "time"

// Source reports whole seconds elapsed since process start.
type Source interface {
	Seconds() int64
}

// Clock is a Source anchored at the moment it was created.
type Clock struct {
	start time.Time
	now   func() time.Time
}

// NewClock returns a Clock starting now.
func NewClock() *Clock {
	return &Clock{start: time.Now(), now: time.Now}
}

// Seconds returns whole seconds elapsed since the clock started.
func (c *Clock) Seconds() int64 {
	return int64(c.now().Sub(c.start) / time.Second)
}

// Started returns the wall-clock start time.
func (c *Clock) Started() time.Time {
	return c.start
}

// Fixed is a Source that always reports the same value.
type Fixed int64

// Seconds returns the fixed value.
func (f Fixed) Seconds() int64 {
	return int64(f)
}
