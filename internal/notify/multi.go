package notify

import (
	"time"

	"github.com/XavierBriggs/Ares/pkg/contracts"
	"github.com/XavierBriggs/Ares/pkg/models"
)

// Multi fans each event out to every wrapped notifier in order
type Multi struct {
	notifiers []contracts.Notifier
}

var _ contracts.Notifier = (*Multi)(nil)

// NewMulti combines notifiers into one. Nil entries are skipped.
func NewMulti(notifiers ...contracts.Notifier) *Multi {
	m := &Multi{}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

func (m *Multi) RateLimitHit(sourceID, limitType string, wait time.Duration) {
	for _, n := range m.notifiers {
		n.RateLimitHit(sourceID, limitType, wait)
	}
}

func (m *Multi) CircuitBreakerStateChange(sourceID, from, to string) {
	for _, n := range m.notifiers {
		n.CircuitBreakerStateChange(sourceID, from, to)
	}
}

func (m *Multi) RetryAttempt(sourceID string, attempt, maxRetries int, backoff time.Duration) {
	for _, n := range m.notifiers {
		n.RetryAttempt(sourceID, attempt, maxRetries, backoff)
	}
}

func (m *Multi) OddsMovement(alert models.MovementAlert) {
	for _, n := range m.notifiers {
		n.OddsMovement(alert)
	}
}

func (m *Multi) ArbitrageDetected(opp models.ArbitrageOpportunity) {
	for _, n := range m.notifiers {
		n.ArbitrageDetected(opp)
	}
}
