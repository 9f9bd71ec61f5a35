package models

import "time"

// MovementType classifies how a fight's moneyline moved between two
// consecutive snapshots from the same bookmaker
type MovementType string

const (
	// MovementSteam is both prices moving the same direction, hard
	MovementSteam MovementType = "steam"
	// MovementReverse is the two prices moving in opposite directions
	MovementReverse MovementType = "reverse"
	// MovementSignificant is any other move at or above the alert floor
	MovementSignificant MovementType = "significant"
	// MovementMinor is below the alert floor and never emitted
	MovementMinor MovementType = "minor"
)

// MovementAlert describes one detected odds movement
type MovementAlert struct {
	AlertID        string       `json:"alert_id"`
	FightID        string       `json:"fight_id"`
	Bookmaker      string       `json:"bookmaker"`
	MovementType   MovementType `json:"movement_type"`
	Fighter1Change float64      `json:"fighter1_change_pct"`
	Fighter2Change float64      `json:"fighter2_change_pct"`
	MaxChange      float64      `json:"max_change_pct"`
	Previous       OddsSnapshot `json:"previous"`
	Current        OddsSnapshot `json:"current"`
	DetectedAt     time.Time    `json:"detected_at"`
}

// ArbitrageLeg is one side of an arbitrage stake split
type ArbitrageLeg struct {
	Fighter     string  `json:"fighter"`
	Bookmaker   string  `json:"bookmaker"`
	Price       int     `json:"price"`
	ImpliedProb float64 `json:"implied_prob"`
	Stake       float64 `json:"stake"`
}

// ArbitrageOpportunity is a guaranteed-profit price combination across
// bookmakers for one fight
type ArbitrageOpportunity struct {
	OpportunityID  string         `json:"opportunity_id"`
	FightID        string         `json:"fight_id"`
	Legs           []ArbitrageLeg `json:"legs"`
	TotalImplied   float64        `json:"total_implied"`
	ProfitPercent  float64        `json:"profit_pct"`
	ReferenceStake float64        `json:"reference_stake"`
	DetectedAt     time.Time      `json:"detected_at"`
	ExpiresAt      time.Time      `json:"expires_at"`
}
