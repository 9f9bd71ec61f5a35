// Package oddsmath converts between American odds, decimal odds, and
// implied probabilities.
package oddsmath

import "math"

// AmericanToDecimal converts American odds to decimal odds.
// +150 -> 2.50, -200 -> 1.50.
func AmericanToDecimal(american int) float64 {
	if american > 0 {
		return 1.0 + float64(american)/100.0
	}
	return 1.0 + 100.0/math.Abs(float64(american))
}

// ImpliedProbability converts American odds to the implied win probability,
// bookmaker margin included. Positive odds: 100 / (odds + 100). Negative
// odds: |odds| / (|odds| + 100).
func ImpliedProbability(american int) float64 {
	if american > 0 {
		return 100.0 / (float64(american) + 100.0)
	}
	abs := math.Abs(float64(american))
	return abs / (abs + 100.0)
}

// MarketVig returns the bookmaker margin on a two-sided market: how far the
// summed implied probabilities sit above 1.0. A negative vig means the book
// is quoting a theoretically free market, almost always a stale price.
func MarketVig(price1, price2 int) float64 {
	return ImpliedProbability(price1) + ImpliedProbability(price2) - 1.0
}

// IsValidPrice reports whether a price is a well-formed American odds value.
// Valid prices are >= +100 or <= -100; 0 is the missing-market sentinel.
func IsValidPrice(american int) bool {
	return american >= 100 || american <= -100
}
