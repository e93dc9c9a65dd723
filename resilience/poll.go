package resilience

import (
	"context"
	"errors"
	"time"
)

// ErrPollTimeout is returned by Poll when the deadline passes before the
// check reports done.
var ErrPollTimeout = errors.New("poll timeout")

// PollConfig configures a deadline-bounded polling loop.
type PollConfig struct {
	// Interval is the delay after the first unsuccessful check.
	Interval time.Duration
	// MaxInterval caps the delay between checks.
	MaxInterval time.Duration
	// Factor multiplies the delay after each check. Defaults to 2.
	Factor float64
	// Timeout is the wall-clock budget measured from the first check.
	Timeout time.Duration
	// OnPoll is called after every unsuccessful check.
	OnPoll func(attempt int, elapsed time.Duration)
}

// Poll calls check until it reports done or returns an error. Between
// checks it sleeps, starting at Interval and multiplying by Factor up to
// MaxInterval; a sleep never overshoots the deadline. When a check that is
// not done completes after the deadline, Poll returns the last value
// together with ErrPollTimeout. The elapsed time since the first check is
// always returned.
func Poll[T any](ctx context.Context, cfg PollConfig, check func(ctx context.Context) (T, bool, error)) (T, time.Duration, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 2 * time.Second
	}
	if cfg.Factor <= 0 {
		cfg.Factor = 2
	}

	start := time.Now()
	interval := cfg.Interval

	for attempt := 1; ; attempt++ {
		value, done, err := check(ctx)
		elapsed := time.Since(start)
		if err != nil || done {
			return value, elapsed, err
		}
		if cfg.Timeout > 0 && elapsed >= cfg.Timeout {
			return value, elapsed, ErrPollTimeout
		}
		if cfg.OnPoll != nil {
			cfg.OnPoll(attempt, elapsed)
		}

		wait := interval
		if cfg.Timeout > 0 {
			if remaining := cfg.Timeout - elapsed; remaining < wait {
				wait = remaining
			}
		}
		if err := sleep(ctx, wait); err != nil {
			return value, time.Since(start), err
		}

		interval = time.Duration(float64(interval) * cfg.Factor)
		if interval > cfg.MaxInterval {
			interval = cfg.MaxInterval
		}
	}
}
