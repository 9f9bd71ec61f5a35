// Package arbitrage scans moneyline prices across bookmakers for
// guaranteed-profit combinations on a single fight.
package arbitrage

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/XavierBriggs/Ares/pkg/models"
	"github.com/XavierBriggs/Ares/pkg/oddsmath"
)

const (
	DefaultMinProfitPercent = 2.0
	DefaultReferenceStake   = 1000.0
	DefaultOpportunityTTL   = 5 * time.Minute
)

// Config bounds arbitrage detection
type Config struct {
	// MinProfitPercent filters out opportunities too thin to act on
	MinProfitPercent float64
	// ReferenceStake is the total bankroll the stake split is computed for
	ReferenceStake float64
	// OpportunityTTL is how long a detected opportunity stays actionable
	OpportunityTTL time.Duration
}

// Scanner finds the best price per fighter across a batch of snapshots and
// reports an opportunity when backing both fighters locks in a profit.
type Scanner struct {
	cfg Config
}

// NewScanner creates a scanner. Zero config fields fall back to defaults.
func NewScanner(cfg Config) *Scanner {
	if cfg.MinProfitPercent <= 0 {
		cfg.MinProfitPercent = DefaultMinProfitPercent
	}
	if cfg.ReferenceStake <= 0 {
		cfg.ReferenceStake = DefaultReferenceStake
	}
	if cfg.OpportunityTTL <= 0 {
		cfg.OpportunityTTL = DefaultOpportunityTTL
	}
	return &Scanner{cfg: cfg}
}

// Scan inspects one fight's snapshots across bookmakers. It returns nil
// unless the best prices for the two fighters come from different books and
// their combined implied probability leaves at least the configured margin
// under 1.0. Prices failing validation are skipped, not fatal.
func (s *Scanner) Scan(snaps []models.OddsSnapshot) *models.ArbitrageOpportunity {
	var best1, best2 *models.OddsSnapshot
	for i := range snaps {
		snap := &snaps[i]
		// Higher American odds always pay the bettor more.
		if oddsmath.IsValidPrice(snap.Fighter1Price) && (best1 == nil || snap.Fighter1Price > best1.Fighter1Price) {
			best1 = snap
		}
		if oddsmath.IsValidPrice(snap.Fighter2Price) && (best2 == nil || snap.Fighter2Price > best2.Fighter2Price) {
			best2 = snap
		}
	}

	if best1 == nil || best2 == nil {
		return nil
	}
	if best1.Bookmaker == best2.Bookmaker {
		return nil
	}

	prob1 := oddsmath.ImpliedProbability(best1.Fighter1Price)
	prob2 := oddsmath.ImpliedProbability(best2.Fighter2Price)
	totalImplied := prob1 + prob2
	if totalImplied >= 1.0 {
		return nil
	}

	profit := (1.0/totalImplied - 1.0) * 100.0
	if profit < s.cfg.MinProfitPercent {
		return nil
	}

	detectedAt := best1.CapturedAt
	if best2.CapturedAt.After(detectedAt) {
		detectedAt = best2.CapturedAt
	}

	return &models.ArbitrageOpportunity{
		OpportunityID: uuid.New().String(),
		FightID:       best1.FightID,
		Legs: []models.ArbitrageLeg{
			{
				Fighter:     best1.Fighter1,
				Bookmaker:   best1.Bookmaker,
				Price:       best1.Fighter1Price,
				ImpliedProb: prob1,
				Stake:       roundCents(s.cfg.ReferenceStake * prob1 / totalImplied),
			},
			{
				Fighter:     best2.Fighter2,
				Bookmaker:   best2.Bookmaker,
				Price:       best2.Fighter2Price,
				ImpliedProb: prob2,
				Stake:       roundCents(s.cfg.ReferenceStake * prob2 / totalImplied),
			},
		},
		TotalImplied:   totalImplied,
		ProfitPercent:  profit,
		ReferenceStake: s.cfg.ReferenceStake,
		DetectedAt:     detectedAt,
		ExpiresAt:      detectedAt.Add(s.cfg.OpportunityTTL),
	}
}

// roundCents rounds a stake to the nearest cent
func roundCents(v float64) float64 {
	return math.Round(v*100.0) / 100.0
}
