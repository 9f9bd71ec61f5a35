package models

import "time"

// Fight represents a scheduled bout between two fighters
type Fight struct {
	FightID      string    `json:"fight_id"`
	SportKey     string    `json:"sport_key"`
	Fighter1     string    `json:"fighter1"`
	Fighter2     string    `json:"fighter2"`
	EventName    string    `json:"event_name,omitempty"` // e.g. "UFC 320: Topuria vs Holloway"
	WeightClass  string    `json:"weight_class,omitempty"`
	CommenceTime time.Time `json:"commence_time"`
	FightStatus  string    `json:"fight_status"` // upcoming, live, completed, cancelled
}

// MethodPrices holds the method-of-victory market prices in American odds.
// A price of 0 means the market was not offered in the payload.
type MethodPrices struct {
	KO         int `json:"ko"`
	Submission int `json:"submission"`
	Decision   int `json:"decision"`
}

// RoundPrice is a single round-betting outcome price
type RoundPrice struct {
	Outcome string `json:"outcome"` // e.g. "Over 2.5"
	Price   int    `json:"price"`
}

// OddsSnapshot is an immutable capture of one bookmaker's prices for one
// fight at a point in time
type OddsSnapshot struct {
	FightID          string       `json:"fight_id"`
	SportKey         string       `json:"sport_key"`
	Bookmaker        string       `json:"bookmaker"`
	Fighter1         string       `json:"fighter1"`
	Fighter2         string       `json:"fighter2"`
	Fighter1Price    int          `json:"fighter1_price"` // American odds
	Fighter2Price    int          `json:"fighter2_price"`
	Method           MethodPrices `json:"method"`
	Rounds           []RoundPrice `json:"rounds,omitempty"`
	VendorLastUpdate time.Time    `json:"vendor_last_update"`
	CapturedAt       time.Time    `json:"captured_at"`
}

// FetchResult contains fights, snapshots, and payload findings from one
// odds fetch
type FetchResult struct {
	Fights    []Fight
	Snapshots []OddsSnapshot
	Findings  []Finding
}
