package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/XavierBriggs/Ares/pkg/contracts"
	"github.com/XavierBriggs/Ares/pkg/models"
)

// RateLimitHit is one recorded rate-limit notification
type RateLimitHit struct {
	SourceID  string
	LimitType string
	Wait      time.Duration
}

// StateChange is one recorded circuit breaker transition
type StateChange struct {
	SourceID string
	From     string
	To       string
}

// RetryEvent is one recorded retry notification
type RetryEvent struct {
	SourceID   string
	Attempt    int
	MaxRetries int
	Backoff    time.Duration
}

// CaptureNotifier records every notification for assertions
type CaptureNotifier struct {
	mu            sync.Mutex
	rateLimitHits []RateLimitHit
	stateChanges  []StateChange
	retries       []RetryEvent
	movements     []models.MovementAlert
	arbitrages    []models.ArbitrageOpportunity
}

var _ contracts.Notifier = (*CaptureNotifier)(nil)

func NewCaptureNotifier() *CaptureNotifier {
	return &CaptureNotifier{}
}

func (c *CaptureNotifier) RateLimitHit(sourceID, limitType string, wait time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rateLimitHits = append(c.rateLimitHits, RateLimitHit{sourceID, limitType, wait})
}

func (c *CaptureNotifier) CircuitBreakerStateChange(sourceID, from, to string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateChanges = append(c.stateChanges, StateChange{sourceID, from, to})
}

func (c *CaptureNotifier) RetryAttempt(sourceID string, attempt, maxRetries int, backoff time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retries = append(c.retries, RetryEvent{sourceID, attempt, maxRetries, backoff})
}

func (c *CaptureNotifier) OddsMovement(alert models.MovementAlert) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.movements = append(c.movements, alert)
}

func (c *CaptureNotifier) ArbitrageDetected(opp models.ArbitrageOpportunity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.arbitrages = append(c.arbitrages, opp)
}

func (c *CaptureNotifier) RateLimitHits() []RateLimitHit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]RateLimitHit(nil), c.rateLimitHits...)
}

func (c *CaptureNotifier) StateChanges() []StateChange {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]StateChange(nil), c.stateChanges...)
}

func (c *CaptureNotifier) Retries() []RetryEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]RetryEvent(nil), c.retries...)
}

func (c *CaptureNotifier) Movements() []models.MovementAlert {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.MovementAlert(nil), c.movements...)
}

func (c *CaptureNotifier) Arbitrages() []models.ArbitrageOpportunity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.ArbitrageOpportunity(nil), c.arbitrages...)
}

// TransportStep is one scripted transport outcome: a response or an error
type TransportStep struct {
	Response *models.SourceResponse
	Err      error
}

// RespondOK builds a step returning HTTP 200 with the given body
func RespondOK(body string) TransportStep {
	return TransportStep{Response: &models.SourceResponse{StatusCode: 200, Body: []byte(body)}}
}

// RespondStatus builds a step failing with the given HTTP error status
func RespondStatus(status int, message string) TransportStep {
	return TransportStep{Err: &models.HTTPError{StatusCode: status, Message: message}}
}

// FailWith builds a step failing with a non-HTTP transport error
func FailWith(message string) TransportStep {
	return TransportStep{Err: errors.New(message)}
}

// ScriptedTransport plays back queued outcomes in order. Once the script is
// exhausted the final step repeats, so "always failing" scripts need only
// one step.
type ScriptedTransport struct {
	mu    sync.Mutex
	steps []TransportStep
	calls int
}

var _ contracts.Transport = (*ScriptedTransport)(nil)

func NewScriptedTransport(steps ...TransportStep) *ScriptedTransport {
	return &ScriptedTransport{steps: steps}
}

func (t *ScriptedTransport) Send(ctx context.Context, req *models.SourceRequest) (*models.SourceResponse, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.steps) == 0 {
		return nil, errors.New("scripted transport: no steps configured")
	}

	idx := t.calls
	if idx >= len(t.steps) {
		idx = len(t.steps) - 1
	}
	t.calls++

	step := t.steps[idx]
	if step.Err != nil {
		return nil, step.Err
	}
	return step.Response, nil
}

// Calls returns how many times Send was invoked
func (t *ScriptedTransport) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// CaptureSink records writes instead of persisting them
type CaptureSink struct {
	mu         sync.Mutex
	fights     []models.Fight
	snapshots  []models.OddsSnapshot
	alerts     []models.MovementAlert
	arbitrages []models.ArbitrageOpportunity
}

var _ contracts.Sink = (*CaptureSink)(nil)

func NewCaptureSink() *CaptureSink {
	return &CaptureSink{}
}

func (s *CaptureSink) WriteSnapshots(ctx context.Context, fights []models.Fight, snaps []models.OddsSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fights = append(s.fights, fights...)
	s.snapshots = append(s.snapshots, snaps...)
	return nil
}

func (s *CaptureSink) WriteMovementAlert(ctx context.Context, alert models.MovementAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, alert)
	return nil
}

func (s *CaptureSink) WriteArbitrageOpportunity(ctx context.Context, opp models.ArbitrageOpportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.arbitrages = append(s.arbitrages, opp)
	return nil
}

func (s *CaptureSink) Fights() []models.Fight {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Fight(nil), s.fights...)
}

func (s *CaptureSink) Snapshots() []models.OddsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.OddsSnapshot(nil), s.snapshots...)
}

func (s *CaptureSink) Alerts() []models.MovementAlert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.MovementAlert(nil), s.alerts...)
}

func (s *CaptureSink) Arbitrages() []models.ArbitrageOpportunity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ArbitrageOpportunity(nil), s.arbitrages...)
}
