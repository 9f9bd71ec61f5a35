// Package pipeline composes the outbound-request resilience layer: a dual
// window rate limiter, a circuit breaker, and a retry policy wrapped around
// every call to an upstream odds source.
package pipeline

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/XavierBriggs/Ares/pkg/clock"
	"github.com/XavierBriggs/Ares/pkg/contracts"
	"github.com/XavierBriggs/Ares/pkg/models"
)

// Config bounds one source's outbound behavior
type Config struct {
	SourceID          string
	RequestsPerMinute int
	RequestsPerHour   int
	MaxRetries        int
	BaseDelay         time.Duration
	BackoffMultiplier float64
	MaxBackoff        time.Duration
	FailureThreshold  int
	ResetTimeout      time.Duration
}

// Pipeline wires the resilience primitives around a transport for one
// source. The retry policy is outermost; every physical attempt first
// reserves a rate-limit slot, then clears the circuit breaker, then sends.
type Pipeline struct {
	sourceID  string
	limiter   *RateLimiter
	breaker   *CircuitBreaker
	retry     *RetryPolicy
	transport contracts.Transport
}

var _ contracts.RequestPipeline = (*Pipeline)(nil)

// New builds the pipeline for one source. Resilience events are forwarded to
// notifier with the source id attached; notifier may be nil.
func New(cfg Config, transport contracts.Transport, clk clock.Clock, notifier contracts.Notifier) *Pipeline {
	onLimit := func(limitType string, wait time.Duration) {
		if notifier != nil {
			notifier.RateLimitHit(cfg.SourceID, limitType, wait)
		}
	}
	onChange := func(from, to State) {
		if notifier != nil {
			notifier.CircuitBreakerStateChange(cfg.SourceID, string(from), string(to))
		}
	}
	onRetry := func(attempt, maxRetries int, backoff time.Duration) {
		if notifier != nil {
			notifier.RetryAttempt(cfg.SourceID, attempt, maxRetries, backoff)
		}
	}

	return &Pipeline{
		sourceID:  cfg.SourceID,
		limiter:   NewRateLimiter(cfg.RequestsPerMinute, cfg.RequestsPerHour, clk, onLimit),
		breaker:   NewCircuitBreaker(cfg.FailureThreshold, cfg.ResetTimeout, clk, onChange),
		retry:     NewRetryPolicy(cfg.MaxRetries, cfg.BaseDelay, cfg.BackoffMultiplier, cfg.MaxBackoff, clk, onRetry),
		transport: transport,
	}
}

// Do executes one logical request. Each retry attempt is a full physical
// attempt: it consumes a rate-limit slot and re-checks the breaker, so a
// half-open trial can never fan out into multiple probes.
func (p *Pipeline) Do(ctx context.Context, req *models.SourceRequest) (*models.SourceResponse, error) {
	var resp *models.SourceResponse

	err := p.retry.Execute(ctx, func(ctx context.Context) error {
		r, attemptErr := p.attempt(ctx, req)
		if attemptErr != nil {
			return attemptErr
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// attempt is one physical call: acquire a slot, clear the breaker, send,
// record the outcome.
func (p *Pipeline) attempt(ctx context.Context, req *models.SourceRequest) (*models.SourceResponse, error) {
	if err := p.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	if err := p.breaker.BeforeCall(); err != nil {
		return nil, err
	}

	resp, err := p.transport.Send(ctx, req)
	if err != nil {
		if isUpstreamFault(err) {
			p.breaker.OnFailure()
		} else {
			p.breaker.OnSuccess()
		}
		return nil, err
	}

	p.breaker.OnSuccess()
	return resp, nil
}

// isUpstreamFault reports whether an error counts against the breaker: no
// response at all, a 5xx, or a 429. Any other HTTP status proves the
// upstream is answering.
func isUpstreamFault(err error) bool {
	var httpErr *models.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500 || httpErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}

// Status returns the source's health snapshot for the ops surface
func (p *Pipeline) Status() models.SourceStatus {
	state, failures := p.breaker.Snapshot()
	minuteCount, minuteRemaining, hourCount, hourRemaining := p.limiter.Counters()
	return models.SourceStatus{
		SourceID:        p.sourceID,
		CircuitState:    string(state),
		FailureCount:    failures,
		MinuteCount:     minuteCount,
		MinuteRemaining: minuteRemaining,
		HourCount:       hourCount,
		HourRemaining:   hourRemaining,
	}
}

// ResetBreaker forces the circuit closed
func (p *Pipeline) ResetBreaker() {
	p.breaker.Reset()
}
