package notify

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/Ares/pkg/models"
	"github.com/XavierBriggs/Ares/pkg/testutil"
)

func TestConsoleRateLimitHit(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)

	c.RateLimitHit("fight-odds-api", "minute", 12*time.Second)

	out := buf.String()
	assert.Contains(t, out, "[fight-odds-api]")
	assert.Contains(t, out, "minute quota reached")
	assert.Contains(t, out, "12s")
}

func TestConsoleBreakerTransitions(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)

	c.CircuitBreakerStateChange("fight-odds-api", "closed", "open")
	c.CircuitBreakerStateChange("fight-odds-api", "half-open", "closed")

	out := buf.String()
	assert.Contains(t, out, "⚠ [fight-odds-api] circuit breaker closed -> open")
	assert.Contains(t, out, "✓ [fight-odds-api] circuit breaker half-open -> closed")
}

func TestConsoleRetryAttempt(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)

	c.RetryAttempt("octagon-feed", 2, 3, 4*time.Second)

	out := buf.String()
	assert.Contains(t, out, "[octagon-feed]")
	assert.Contains(t, out, "attempt 2/3 failed")
	assert.Contains(t, out, "4s")
}

func TestConsoleOddsMovement(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)

	prev := testutil.NewTestSnapshot("ufc-320-01", "draftkings", -150, 130)
	curr := testutil.NewTestSnapshot("ufc-320-01", "draftkings", -120, 160)

	c.OddsMovement(models.MovementAlert{
		AlertID:        "alert-1",
		FightID:        "ufc-320-01",
		Bookmaker:      "draftkings",
		MovementType:   models.MovementSteam,
		Fighter1Change: 20.0,
		Fighter2Change: 23.1,
		MaxChange:      23.1,
		Previous:       prev,
		Current:        curr,
		DetectedAt:     time.Now().UTC(),
	})

	out := buf.String()
	assert.Contains(t, out, "📈 [draftkings] steam movement on Ilia Topuria vs Max Holloway")
	assert.Contains(t, out, "-150 -> -120 (+20.0%)")
	assert.Contains(t, out, "+130 -> +160 (+23.1%)")
}

func TestConsoleArbitrageRendersLegs(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)

	now := time.Now().UTC()
	c.ArbitrageDetected(models.ArbitrageOpportunity{
		OpportunityID: "opp-1",
		FightID:       "ufc-320-01",
		Legs: []models.ArbitrageLeg{
			{Fighter: "Ilia Topuria", Bookmaker: "draftkings", Price: 120, ImpliedProb: 0.4545, Stake: 500.00},
			{Fighter: "Max Holloway", Bookmaker: "fanduel", Price: 120, ImpliedProb: 0.4545, Stake: 500.00},
		},
		TotalImplied:   0.9091,
		ProfitPercent:  10.0,
		ReferenceStake: 1000.0,
		DetectedAt:     now,
		ExpiresAt:      now.Add(5 * time.Minute),
	})

	out := buf.String()
	assert.Contains(t, out, "💰 [ufc-320-01] arbitrage: 10.00% guaranteed")
	assert.Contains(t, out, "implied sum 0.9091")
	assert.Contains(t, out, "Ilia Topuria")
	assert.Contains(t, out, "Max Holloway")
	assert.Contains(t, out, "draftkings")
	assert.Contains(t, out, "fanduel")
	assert.Contains(t, out, "+120")
	assert.Contains(t, out, "$500.00")
	assert.Contains(t, out, "$1000 split across 2 books")
}

func TestFormatAmerican(t *testing.T) {
	assert.Equal(t, "+160", formatAmerican(160))
	assert.Equal(t, "-185", formatAmerican(-185))
	assert.Equal(t, "0", formatAmerican(0))
}

func TestMultiFansOutAllEvents(t *testing.T) {
	first := testutil.NewCaptureNotifier()
	second := testutil.NewCaptureNotifier()
	m := NewMulti(first, nil, second)

	m.RateLimitHit("fight-odds-api", "hour", time.Minute)
	m.CircuitBreakerStateChange("fight-odds-api", "closed", "open")
	m.RetryAttempt("fight-odds-api", 1, 3, time.Second)
	m.OddsMovement(models.MovementAlert{FightID: "ufc-320-01"})
	m.ArbitrageDetected(models.ArbitrageOpportunity{FightID: "ufc-320-01"})

	for _, n := range []*testutil.CaptureNotifier{first, second} {
		require.Len(t, n.RateLimitHits(), 1)
		require.Len(t, n.StateChanges(), 1)
		require.Len(t, n.Retries(), 1)
		require.Len(t, n.Movements(), 1)
		require.Len(t, n.Arbitrages(), 1)
	}

	assert.Equal(t, "hour", first.RateLimitHits()[0].LimitType)
	assert.Equal(t, "open", second.StateChanges()[0].To)
}

func TestStreamNilRedisIsNoOp(t *testing.T) {
	s := NewStream(nil)

	s.RateLimitHit("fight-odds-api", "minute", time.Second)
	s.CircuitBreakerStateChange("fight-odds-api", "closed", "open")
	s.RetryAttempt("fight-odds-api", 1, 3, time.Second)
	s.OddsMovement(models.MovementAlert{FightID: "ufc-320-01"})
	s.ArbitrageDetected(models.ArbitrageOpportunity{FightID: "ufc-320-01"})
}
