package mma_ufc

import "strings"

// SportKey is the canonical identifier for MMA across Fortuna services
const SportKey = "mma_mixed_martial_arts"

// Market keys for MMA fight odds
const (
	MarketMoneyline = "h2h"
	MarketMethod    = "fight_method"
	MarketRounds    = "fight_rounds"
)

// Canonical method-of-victory keys
const (
	MethodKO         = "ko_tko"
	MethodSubmission = "submission"
	MethodDecision   = "decision"
)

// Markets returns the markets Ares polls for MMA fights
func Markets() []string {
	return []string{MarketMoneyline, MarketMethod, MarketRounds}
}

// MapVendorMarketKey translates vendor market keys to internal keys.
// Vendors disagree on market naming; the internal schema does not.
func MapVendorMarketKey(vendorKey string) string {
	switch strings.ToLower(vendorKey) {
	case "h2h", "moneyline", "fight_winner":
		return MarketMoneyline
	case "fight_method", "method_of_victory", "victory_method", "method":
		return MarketMethod
	case "fight_rounds", "total_rounds", "round_betting", "round":
		return MarketRounds
	default:
		return vendorKey
	}
}

// CanonicalMethod maps a vendor method-of-victory outcome label to the
// canonical method key. ok is false for labels Ares does not track, such as
// draw or disqualification props.
func CanonicalMethod(label string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "ko/tko", "ko", "tko", "ko_tko", "knockout":
		return MethodKO, true
	case "submission", "sub":
		return MethodSubmission, true
	case "decision", "dec", "points", "decision_points":
		return MethodDecision, true
	default:
		return "", false
	}
}
