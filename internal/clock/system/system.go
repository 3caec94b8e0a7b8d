// Package system provides the wall clock used for snapshot capture and
// next-check scheduling.
package system

import "time"

// Clock implements monitor.Clock using time.Now. All persisted
// timestamps (captured_at, notified_at, next_check_at) come through
// here, always in UTC.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current UTC time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
