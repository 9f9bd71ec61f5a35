package arbitrage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/Ares/pkg/models"
	"github.com/XavierBriggs/Ares/pkg/testutil"
)

func TestScanFindsOpportunity(t *testing.T) {
	s := NewScanner(Config{})

	capturedAt := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	snaps := []models.OddsSnapshot{
		testutil.SnapshotAt(testutil.NewTestSnapshot("ufc-320-01", "draftkings", 120, -160), capturedAt),
		testutil.SnapshotAt(testutil.NewTestSnapshot("ufc-320-01", "fanduel", -160, 120), capturedAt),
	}

	opp := s.Scan(snaps)

	require.NotNil(t, opp)
	assert.Equal(t, "ufc-320-01", opp.FightID)
	assert.NotEmpty(t, opp.OpportunityID)

	// Both legs at +120: implied 0.4545 each, 9.1% total under 1.0.
	assert.InDelta(t, 0.9091, opp.TotalImplied, 0.001)
	assert.InDelta(t, 10.0, opp.ProfitPercent, 0.1)

	require.Len(t, opp.Legs, 2)
	assert.Equal(t, "draftkings", opp.Legs[0].Bookmaker)
	assert.Equal(t, 120, opp.Legs[0].Price)
	assert.Equal(t, "Ilia Topuria", opp.Legs[0].Fighter)
	assert.Equal(t, "fanduel", opp.Legs[1].Bookmaker)
	assert.Equal(t, 120, opp.Legs[1].Price)
	assert.Equal(t, "Max Holloway", opp.Legs[1].Fighter)

	// Equal odds split the bankroll evenly.
	assert.InDelta(t, 500.0, opp.Legs[0].Stake, 0.01)
	assert.InDelta(t, 500.0, opp.Legs[1].Stake, 0.01)
	assert.Equal(t, 1000.0, opp.ReferenceStake)

	assert.Equal(t, capturedAt, opp.DetectedAt)
	assert.Equal(t, capturedAt.Add(5*time.Minute), opp.ExpiresAt)
}

func TestScanPicksBestPricePerSide(t *testing.T) {
	s := NewScanner(Config{})

	snaps := []models.OddsSnapshot{
		testutil.NewTestSnapshot("ufc-320-01", "draftkings", 110, -150),
		testutil.NewTestSnapshot("ufc-320-01", "fanduel", 125, -170),
		testutil.NewTestSnapshot("ufc-320-01", "pinnacle", -140, 118),
	}

	opp := s.Scan(snaps)

	require.NotNil(t, opp)
	assert.Equal(t, "fanduel", opp.Legs[0].Bookmaker)
	assert.Equal(t, 125, opp.Legs[0].Price)
	assert.Equal(t, "pinnacle", opp.Legs[1].Bookmaker)
	assert.Equal(t, 118, opp.Legs[1].Price)
}

func TestScanNoArbitrageInNormalMarket(t *testing.T) {
	s := NewScanner(Config{})

	// Standard vigged market everywhere: no free money.
	snaps := []models.OddsSnapshot{
		testutil.NewTestSnapshot("ufc-320-01", "draftkings", -110, -110),
		testutil.NewTestSnapshot("ufc-320-01", "fanduel", -115, -105),
	}

	assert.Nil(t, s.Scan(snaps))
}

func TestScanSameBookIsNotArbitrage(t *testing.T) {
	s := NewScanner(Config{})

	// One book quoting both sides underwater is a stale quote, not an
	// executable opportunity.
	snaps := []models.OddsSnapshot{
		testutil.NewTestSnapshot("ufc-320-01", "draftkings", 120, 120),
		testutil.NewTestSnapshot("ufc-320-01", "fanduel", 100, 100),
	}

	assert.Nil(t, s.Scan(snaps))
}

func TestScanRespectsMinProfit(t *testing.T) {
	tight := NewScanner(Config{MinProfitPercent: 12.0})
	loose := NewScanner(Config{MinProfitPercent: 5.0})

	snaps := []models.OddsSnapshot{
		testutil.NewTestSnapshot("ufc-320-01", "draftkings", 120, -160),
		testutil.NewTestSnapshot("ufc-320-01", "fanduel", -160, 120),
	}

	// The pair yields about 10%.
	assert.Nil(t, tight.Scan(snaps))
	assert.NotNil(t, loose.Scan(snaps))
}

func TestScanSkipsInvalidPrices(t *testing.T) {
	s := NewScanner(Config{})

	snaps := []models.OddsSnapshot{
		// Missing fighter2 side (0 sentinel).
		testutil.NewTestSnapshot("ufc-320-01", "draftkings", 120, 0),
		testutil.NewTestSnapshot("ufc-320-01", "fanduel", -160, 120),
	}

	opp := s.Scan(snaps)

	require.NotNil(t, opp)
	assert.Equal(t, "draftkings", opp.Legs[0].Bookmaker)
	assert.Equal(t, "fanduel", opp.Legs[1].Bookmaker)
}

func TestScanAllInvalidOneSide(t *testing.T) {
	s := NewScanner(Config{})

	snaps := []models.OddsSnapshot{
		testutil.NewTestSnapshot("ufc-320-01", "draftkings", 120, 0),
		testutil.NewTestSnapshot("ufc-320-01", "fanduel", 125, 0),
	}

	assert.Nil(t, s.Scan(snaps))
}

func TestScanEmptyBatch(t *testing.T) {
	s := NewScanner(Config{})
	assert.Nil(t, s.Scan(nil))
}

func TestScanDetectedAtUsesNewerSnapshot(t *testing.T) {
	s := NewScanner(Config{OpportunityTTL: 2 * time.Minute})

	older := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	newer := older.Add(45 * time.Second)
	snaps := []models.OddsSnapshot{
		testutil.SnapshotAt(testutil.NewTestSnapshot("ufc-320-01", "draftkings", 120, -160), older),
		testutil.SnapshotAt(testutil.NewTestSnapshot("ufc-320-01", "fanduel", -160, 120), newer),
	}

	opp := s.Scan(snaps)

	require.NotNil(t, opp)
	assert.Equal(t, newer, opp.DetectedAt)
	assert.Equal(t, newer.Add(2*time.Minute), opp.ExpiresAt)
}

func TestScanStakeSplitCoversBothOutcomes(t *testing.T) {
	s := NewScanner(Config{ReferenceStake: 1000})

	snaps := []models.OddsSnapshot{
		testutil.NewTestSnapshot("ufc-320-01", "draftkings", 150, -200),
		testutil.NewTestSnapshot("ufc-320-01", "fanduel", -150, 140),
	}

	opp := s.Scan(snaps)
	require.NotNil(t, opp)

	// Payout if fighter1 wins: stake1 * decimal odds of +150.
	payout1 := opp.Legs[0].Stake * 2.5
	// Payout if fighter2 wins: stake2 * decimal odds of +140.
	payout2 := opp.Legs[1].Stake * 2.4

	// Both payouts exceed the bankroll and match each other: that is
	// what makes it arbitrage.
	assert.Greater(t, payout1, 1000.0)
	assert.Greater(t, payout2, 1000.0)
	assert.InDelta(t, payout1, payout2, 1.0)
	assert.InDelta(t, 1000.0, opp.Legs[0].Stake+opp.Legs[1].Stake, 0.02)
}
