package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/XavierBriggs/Ares/pkg/clock"
)

const (
	minuteWindow = 60 * time.Second
	hourWindow   = 3600 * time.Second
)

// RateLimiter throttles outbound calls for one source across two fixed
// windows, per-minute and per-hour. Callers over quota are delayed until the
// binding window rolls over, never rejected.
type RateLimiter struct {
	requestsPerMinute int
	requestsPerHour   int

	mu          sync.Mutex
	minuteCount int
	hourCount   int
	minuteStart time.Time
	hourStart   time.Time

	clock   clock.Clock
	onLimit func(limitType string, wait time.Duration)
}

// NewRateLimiter creates a limiter with the given per-minute and per-hour
// quotas. onLimit fires before each quota wait and may be nil.
func NewRateLimiter(perMinute, perHour int, clk clock.Clock, onLimit func(limitType string, wait time.Duration)) *RateLimiter {
	now := clk.Now()
	return &RateLimiter{
		requestsPerMinute: perMinute,
		requestsPerHour:   perHour,
		minuteStart:       now,
		hourStart:         now,
		clock:             clk,
		onLimit:           onLimit,
	}
}

// Acquire blocks until a call slot is available in both windows, then
// reserves one slot in each. The only error it returns is a context
// cancellation during the wait.
func (l *RateLimiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.clock.Now()
		l.rollWindows(now)

		if l.minuteCount < l.requestsPerMinute && l.hourCount < l.requestsPerHour {
			l.minuteCount++
			l.hourCount++
			l.mu.Unlock()
			return nil
		}

		// When both windows are exhausted the longer wait is binding.
		limitType := "minute"
		wait := minuteWindow - now.Sub(l.minuteStart)
		if l.hourCount >= l.requestsPerHour {
			if hourWait := hourWindow - now.Sub(l.hourStart); l.minuteCount < l.requestsPerMinute || hourWait > wait {
				limitType = "hour"
				wait = hourWait
			}
		}
		l.mu.Unlock()

		if l.onLimit != nil {
			l.onLimit(limitType, wait)
		}

		if err := l.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// rollWindows resets any window whose duration has elapsed. Caller holds mu.
func (l *RateLimiter) rollWindows(now time.Time) {
	if now.Sub(l.minuteStart) >= minuteWindow {
		l.minuteCount = 0
		l.minuteStart = now
	}
	if now.Sub(l.hourStart) >= hourWindow {
		l.hourCount = 0
		l.hourStart = now
	}
}

// Counters returns a consistent snapshot of both windows: calls used and
// calls remaining in the current minute and hour.
func (l *RateLimiter) Counters() (minuteCount, minuteRemaining, hourCount, hourRemaining int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollWindows(l.clock.Now())
	return l.minuteCount, l.requestsPerMinute - l.minuteCount,
		l.hourCount, l.requestsPerHour - l.hourCount
}
