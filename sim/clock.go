package sim

import (
	"errors"
	"time"
)

var ErrInvalidStep = errors.New("clock step must be positive")

// Clock is a deterministic simulated time source. It never reads wall time;
// two clocks built with the same start and step yield the same sequence.
type Clock struct {
	now  time.Time
	step time.Duration
}

// NewClock returns a clock at start that advances by step. A zero start is
// the Unix epoch in UTC.
func NewClock(start time.Time, step time.Duration) (*Clock, error) {
	if step <= 0 {
		return nil, ErrInvalidStep
	}
	if start.IsZero() {
		start = time.Unix(0, 0).UTC()
	}
	return &Clock{now: start, step: step}, nil
}

func (c *Clock) Now() time.Time { return c.now }

func (c *Clock) Step() time.Duration { return c.step }

// Advance moves the clock forward one step and returns the new time.
func (c *Clock) Advance() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}
