package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/XavierBriggs/Ares/pkg/clock"
	"github.com/XavierBriggs/Ares/pkg/models"
)

// RetryPolicy wraps an operation with bounded, jittered exponential backoff
// for transient failures
type RetryPolicy struct {
	maxRetries        int
	baseDelay         time.Duration
	backoffMultiplier float64
	maxBackoff        time.Duration

	clock   clock.Clock
	onRetry func(attempt, maxRetries int, backoff time.Duration)
}

// NewRetryPolicy creates a policy allowing maxRetries retries after the
// initial attempt. onRetry fires before each backoff sleep and may be nil.
func NewRetryPolicy(maxRetries int, baseDelay time.Duration, multiplier float64, maxBackoff time.Duration, clk clock.Clock, onRetry func(attempt, maxRetries int, backoff time.Duration)) *RetryPolicy {
	return &RetryPolicy{
		maxRetries:        maxRetries,
		baseDelay:         baseDelay,
		backoffMultiplier: multiplier,
		maxBackoff:        maxBackoff,
		clock:             clk,
		onRetry:           onRetry,
	}
}

// Execute invokes fn, retrying transient failures up to maxRetries times.
// Fatal failures propagate immediately; exhausting the budget wraps the last
// error so callers can still unwrap the underlying cause.
func (p *RetryPolicy) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := p.backoffFor(attempt)
			if p.onRetry != nil {
				p.onRetry(attempt, p.maxRetries, backoff)
			}
			if err := p.clock.Sleep(ctx, backoff); err != nil {
				return err
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// backoffFor computes the delay before retry attempt n (n >= 1):
// baseDelay * multiplier^(n-1) plus up to 10% jitter, capped at maxBackoff.
func (p *RetryPolicy) backoffFor(attempt int) time.Duration {
	delay := float64(p.baseDelay) * math.Pow(p.backoffMultiplier, float64(attempt-1))
	jitter := rand.Float64() * 0.1 * delay
	total := time.Duration(delay + jitter)
	if total > p.maxBackoff {
		return p.maxBackoff
	}
	return total
}

// isRetryable classifies an error. Transport failures with no HTTP response
// count as transient, as do 5xx and 429 responses. Other HTTP statuses mean
// the upstream understood us and disagreed, so retrying cannot help.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrCircuitOpen) {
		return false
	}
	var httpErr *models.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500 || httpErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}
