package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/Ares/pkg/contracts"
	"github.com/XavierBriggs/Ares/pkg/models"
)

// Stream names for downstream Fortuna consumers
const (
	movementStream  = "fights.movements"
	arbitrageStream = "fights.arbitrage"
	telemetryStream = "ares.telemetry"
)

const publishTimeout = 5 * time.Second

// Stream publishes events to Redis Streams. Movement alerts and arbitrage
// opportunities go to their own streams with full payloads; pipeline events
// go to a telemetry stream as compact records.
type Stream struct {
	redis *redis.Client
}

var _ contracts.Notifier = (*Stream)(nil)

// NewStream creates a stream notifier. A nil client disables publishing.
func NewStream(redisClient *redis.Client) *Stream {
	return &Stream{redis: redisClient}
}

type telemetryEvent struct {
	Event      string    `json:"event"`
	SourceID   string    `json:"source_id"`
	LimitType  string    `json:"limit_type,omitempty"`
	WaitMs     int64     `json:"wait_ms,omitempty"`
	FromState  string    `json:"from_state,omitempty"`
	ToState    string    `json:"to_state,omitempty"`
	Attempt    int       `json:"attempt,omitempty"`
	MaxRetries int       `json:"max_retries,omitempty"`
	BackoffMs  int64     `json:"backoff_ms,omitempty"`
	At         time.Time `json:"at"`
}

func (s *Stream) RateLimitHit(sourceID, limitType string, wait time.Duration) {
	s.publish(telemetryStream, telemetryEvent{
		Event:     "rate_limit_hit",
		SourceID:  sourceID,
		LimitType: limitType,
		WaitMs:    wait.Milliseconds(),
		At:        time.Now().UTC(),
	})
}

func (s *Stream) CircuitBreakerStateChange(sourceID, from, to string) {
	s.publish(telemetryStream, telemetryEvent{
		Event:     "circuit_breaker_state_change",
		SourceID:  sourceID,
		FromState: from,
		ToState:   to,
		At:        time.Now().UTC(),
	})
}

func (s *Stream) RetryAttempt(sourceID string, attempt, maxRetries int, backoff time.Duration) {
	s.publish(telemetryStream, telemetryEvent{
		Event:      "retry_attempt",
		SourceID:   sourceID,
		Attempt:    attempt,
		MaxRetries: maxRetries,
		BackoffMs:  backoff.Milliseconds(),
		At:         time.Now().UTC(),
	})
}

func (s *Stream) OddsMovement(alert models.MovementAlert) {
	s.publish(movementStream, alert)
}

func (s *Stream) ArbitrageDetected(opp models.ArbitrageOpportunity) {
	s.publish(arbitrageStream, opp)
}

func (s *Stream) publish(stream string, payload interface{}) {
	if s.redis == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		fmt.Printf("⚠ [Notify] Failed to marshal %s event: %v\n", stream, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err = s.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{"data": string(data)},
	}).Err()
	if err != nil {
		fmt.Printf("⚠ [Notify] Failed to publish to %s: %v\n", stream, err)
	}
}
