package domain

import "time"

// Clock resolves "today" under a fixed minute offset from UTC. This is a
// deliberate constant shift, not a timezone conversion: no tz database, no
// DST. Every date the system works with lives on this shifted scale.
type Clock struct {
	offset time.Duration
	now    func() time.Time
}

// NewClock builds a Clock with the given UTC offset in minutes.
func NewClock(offsetMin int) Clock {
	return NewClockAt(offsetMin, time.Now)
}

// NewClockAt is NewClock with an injectable wall-clock source for tests.
func NewClockAt(offsetMin int, now func() time.Time) Clock {
	return Clock{offset: time.Duration(offsetMin) * time.Minute, now: now}
}

// Now returns the current offset-shifted instant.
func (c Clock) Now() time.Time { return c.now().UTC().Add(c.offset) }

// Today returns the current calendar date on the shifted scale.
func (c Clock) Today() Date { return DateOf(c.Now()) }
