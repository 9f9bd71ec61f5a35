package testutil

import (
	"context"
	"time"

	"github.com/XavierBriggs/Ares/pkg/contracts"
	"github.com/XavierBriggs/Ares/pkg/models"
)

// NewTestFight creates a test fight
func NewTestFight(fightID, fighter1, fighter2 string, hoursUntilStart float64) models.Fight {
	return models.Fight{
		FightID:      fightID,
		SportKey:     "mma_mixed_martial_arts",
		Fighter1:     fighter1,
		Fighter2:     fighter2,
		EventName:    "UFC 320",
		CommenceTime: time.Now().UTC().Add(time.Duration(hoursUntilStart * float64(time.Hour))),
		FightStatus:  "upcoming",
	}
}

// NewTestSnapshot creates a test odds snapshot with a two-sided moneyline
func NewTestSnapshot(fightID, bookmaker string, fighter1Price, fighter2Price int) models.OddsSnapshot {
	now := time.Now().UTC()
	return models.OddsSnapshot{
		FightID:          fightID,
		SportKey:         "mma_mixed_martial_arts",
		Bookmaker:        bookmaker,
		Fighter1:         "Ilia Topuria",
		Fighter2:         "Max Holloway",
		Fighter1Price:    fighter1Price,
		Fighter2Price:    fighter2Price,
		VendorLastUpdate: now,
		CapturedAt:       now,
	}
}

// SnapshotAt fixes a snapshot's capture time, for deterministic assertions
func SnapshotAt(snap models.OddsSnapshot, capturedAt time.Time) models.OddsSnapshot {
	snap.VendorLastUpdate = capturedAt
	snap.CapturedAt = capturedAt
	return snap
}

// WithMethod attaches method-of-victory prices to a snapshot
func WithMethod(snap models.OddsSnapshot, ko, submission, decision int) models.OddsSnapshot {
	snap.Method = models.MethodPrices{KO: ko, Submission: submission, Decision: decision}
	return snap
}

// MockVendorAdapter is a test adapter that returns predetermined results
type MockVendorAdapter struct {
	FetchOddsFunc      func() (*models.FetchResult, error)
	FetchFightsFunc    func() ([]models.Fight, error)
	SupportsMarketFunc func(market string) bool
}

var _ contracts.VendorAdapter = (*MockVendorAdapter)(nil)

func (m *MockVendorAdapter) FetchOdds(ctx context.Context) (*models.FetchResult, error) {
	if m.FetchOddsFunc != nil {
		return m.FetchOddsFunc()
	}
	return &models.FetchResult{}, nil
}

func (m *MockVendorAdapter) FetchFights(ctx context.Context) ([]models.Fight, error) {
	if m.FetchFightsFunc != nil {
		return m.FetchFightsFunc()
	}
	return []models.Fight{}, nil
}

func (m *MockVendorAdapter) SupportsMarket(market string) bool {
	if m.SupportsMarketFunc != nil {
		return m.SupportsMarketFunc(market)
	}
	return true
}
