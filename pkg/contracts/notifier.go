package contracts

import (
	"time"

	"github.com/XavierBriggs/Ares/pkg/models"
)

// Notifier receives named events emitted by the ingestion core. The core
// never knows who is listening; console output, Redis streams, and test
// capture all hang off this interface.
type Notifier interface {
	// RateLimitHit fires when an outbound call is delayed by a quota.
	// limitType is "minute" or "hour".
	RateLimitHit(sourceID, limitType string, wait time.Duration)

	// CircuitBreakerStateChange fires on every breaker transition
	CircuitBreakerStateChange(sourceID, from, to string)

	// RetryAttempt fires before each retry backoff sleep
	RetryAttempt(sourceID string, attempt, maxRetries int, backoff time.Duration)

	// OddsMovement fires when the movement detector raises an alert
	OddsMovement(alert models.MovementAlert)

	// ArbitrageDetected fires when the arbitrage scanner finds an opportunity
	ArbitrageDetected(opp models.ArbitrageOpportunity)
}
