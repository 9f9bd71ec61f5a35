package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/Ares/internal/arbitrage"
	"github.com/XavierBriggs/Ares/internal/movement"
	"github.com/XavierBriggs/Ares/internal/pipeline"
	"github.com/XavierBriggs/Ares/pkg/clock"
	"github.com/XavierBriggs/Ares/pkg/models"
	"github.com/XavierBriggs/Ares/pkg/testutil"
	"github.com/XavierBriggs/Ares/sports/mma_ufc"
)

func newTestConnector(adapter *testutil.MockVendorAdapter) *Connector {
	clk := clock.NewMock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	pl := pipeline.New(pipeline.Config{
		SourceID:          "fight-odds-api",
		RequestsPerMinute: 30,
		RequestsPerHour:   500,
		MaxRetries:        3,
		BaseDelay:         time.Millisecond,
		BackoffMultiplier: 2.0,
		MaxBackoff:        time.Second,
		FailureThreshold:  5,
		ResetTimeout:      time.Minute,
	}, testutil.NewScriptedTransport(testutil.RespondOK("[]")), clk, testutil.NewCaptureNotifier())

	return NewConnector("fight-odds-api", "Fight Odds API", adapter, pl, mma_ufc.NewModule())
}

func newTestIngestor(adapter *testutil.MockVendorAdapter) (*Ingestor, *testutil.CaptureSink, *testutil.CaptureNotifier) {
	sink := testutil.NewCaptureSink()
	notifier := testutil.NewCaptureNotifier()
	ing := NewIngestor(
		[]*Connector{newTestConnector(adapter)},
		sink,
		movement.NewDetector(movement.Config{}),
		arbitrage.NewScanner(arbitrage.Config{}),
		notifier,
	)
	return ing, sink, notifier
}

func TestConnectorStatusIncludesDisplayName(t *testing.T) {
	conn := newTestConnector(&testutil.MockVendorAdapter{})

	status := conn.Status()
	assert.Equal(t, "fight-odds-api", status.SourceID)
	assert.Equal(t, "Fight Odds API", status.DisplayName)
	assert.Equal(t, "closed", status.CircuitState)
}

func TestFetchAndProcessPersistsSnapshots(t *testing.T) {
	adapter := &testutil.MockVendorAdapter{
		FetchOddsFunc: func() (*models.FetchResult, error) {
			return &models.FetchResult{
				Fights: []models.Fight{testutil.NewTestFight("ufc-320-01", "Ilia Topuria", "Max Holloway", 48)},
				Snapshots: []models.OddsSnapshot{
					testutil.NewTestSnapshot("ufc-320-01", "draftkings", -150, 130),
					testutil.NewTestSnapshot("ufc-320-01", "fanduel", -155, 135),
				},
			}, nil
		},
	}
	ing, sink, notifier := newTestIngestor(adapter)

	require.NoError(t, ing.fetchAndProcess(context.Background(), ing.connectors[0]))

	assert.Len(t, sink.Fights(), 1)
	assert.Len(t, sink.Snapshots(), 2)

	// First observation is the baseline, never an alert
	assert.Empty(t, notifier.Movements())
	assert.Empty(t, sink.Alerts())
}

func TestFetchAndProcessDropsInvalidSnapshots(t *testing.T) {
	bad := testutil.NewTestSnapshot("ufc-320-01", "draftkings", 50, 130)
	good := testutil.NewTestSnapshot("ufc-320-01", "fanduel", -155, 135)

	adapter := &testutil.MockVendorAdapter{
		FetchOddsFunc: func() (*models.FetchResult, error) {
			return &models.FetchResult{
				Fights:    []models.Fight{testutil.NewTestFight("ufc-320-01", "Ilia Topuria", "Max Holloway", 48)},
				Snapshots: []models.OddsSnapshot{bad, good},
			}, nil
		},
	}
	ing, sink, _ := newTestIngestor(adapter)

	require.NoError(t, ing.fetchAndProcess(context.Background(), ing.connectors[0]))

	snaps := sink.Snapshots()
	require.Len(t, snaps, 1)
	assert.Equal(t, "fanduel", snaps[0].Bookmaker)
}

func TestFetchAndProcessRaisesMovementAlert(t *testing.T) {
	adapter := &testutil.MockVendorAdapter{}
	ing, sink, notifier := newTestIngestor(adapter)
	conn := ing.connectors[0]

	fight := testutil.NewTestFight("ufc-320-01", "Ilia Topuria", "Max Holloway", 48)

	adapter.FetchOddsFunc = func() (*models.FetchResult, error) {
		return &models.FetchResult{
			Fights:    []models.Fight{fight},
			Snapshots: []models.OddsSnapshot{testutil.NewTestSnapshot("ufc-320-01", "draftkings", -150, 130)},
		}, nil
	}
	require.NoError(t, ing.fetchAndProcess(context.Background(), conn))
	require.Empty(t, notifier.Movements())

	// Both sides shorten toward fighter1 by more than the steam threshold
	adapter.FetchOddsFunc = func() (*models.FetchResult, error) {
		return &models.FetchResult{
			Fights:    []models.Fight{fight},
			Snapshots: []models.OddsSnapshot{testutil.NewTestSnapshot("ufc-320-01", "draftkings", -120, 160)},
		}, nil
	}
	require.NoError(t, ing.fetchAndProcess(context.Background(), conn))

	movements := notifier.Movements()
	require.Len(t, movements, 1)
	assert.Equal(t, models.MovementSteam, movements[0].MovementType)
	assert.Equal(t, "draftkings", movements[0].Bookmaker)

	require.Len(t, sink.Alerts(), 1)
	assert.Equal(t, movements[0].AlertID, sink.Alerts()[0].AlertID)
}

func TestFetchAndProcessDetectsArbitrage(t *testing.T) {
	adapter := &testutil.MockVendorAdapter{
		FetchOddsFunc: func() (*models.FetchResult, error) {
			return &models.FetchResult{
				Fights: []models.Fight{testutil.NewTestFight("ufc-320-02", "Ilia Topuria", "Max Holloway", 48)},
				Snapshots: []models.OddsSnapshot{
					testutil.NewTestSnapshot("ufc-320-02", "draftkings", 120, -150),
					testutil.NewTestSnapshot("ufc-320-02", "fanduel", -150, 120),
				},
			}, nil
		},
	}
	ing, sink, notifier := newTestIngestor(adapter)

	require.NoError(t, ing.fetchAndProcess(context.Background(), ing.connectors[0]))

	opps := notifier.Arbitrages()
	require.Len(t, opps, 1)
	assert.Equal(t, "ufc-320-02", opps[0].FightID)
	assert.InDelta(t, 10.0, opps[0].ProfitPercent, 0.01)
	require.Len(t, opps[0].Legs, 2)
	assert.Equal(t, "draftkings", opps[0].Legs[0].Bookmaker)
	assert.Equal(t, "fanduel", opps[0].Legs[1].Bookmaker)

	require.Len(t, sink.Arbitrages(), 1)
}

func TestFetchAndProcessPropagatesFetchError(t *testing.T) {
	adapter := &testutil.MockVendorAdapter{
		FetchOddsFunc: func() (*models.FetchResult, error) {
			return nil, assert.AnError
		},
	}
	ing, sink, _ := newTestIngestor(adapter)

	err := ing.fetchAndProcess(context.Background(), ing.connectors[0])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch odds")
	assert.Empty(t, sink.Snapshots())
}

func TestDiscoverFightsFiltersWindow(t *testing.T) {
	adapter := &testutil.MockVendorAdapter{
		FetchFightsFunc: func() ([]models.Fight, error) {
			return []models.Fight{
				testutil.NewTestFight("ufc-320-01", "Ilia Topuria", "Max Holloway", 24),
				testutil.NewTestFight("ufc-321-01", "Tom Aspinall", "Ciryl Gane", 100),
				testutil.NewTestFight("ufc-319-01", "Dricus du Plessis", "Khamzat Chimaev", -2),
			}, nil
		},
	}
	ing, sink, _ := newTestIngestor(adapter)

	require.NoError(t, ing.discoverFights(context.Background(), ing.connectors[0]))

	fights := sink.Fights()
	require.Len(t, fights, 1)
	assert.Equal(t, "ufc-320-01", fights[0].FightID)
}

func TestStartStopRunsInitialPoll(t *testing.T) {
	adapter := &testutil.MockVendorAdapter{
		FetchOddsFunc: func() (*models.FetchResult, error) {
			return &models.FetchResult{
				Fights:    []models.Fight{testutil.NewTestFight("ufc-320-01", "Ilia Topuria", "Max Holloway", 48)},
				Snapshots: []models.OddsSnapshot{testutil.NewTestSnapshot("ufc-320-01", "draftkings", -150, 130)},
			}, nil
		},
	}
	ing, sink, _ := newTestIngestor(adapter)

	require.NoError(t, ing.Start(context.Background()))
	time.Sleep(100 * time.Millisecond)
	ing.Stop()

	assert.NotEmpty(t, sink.Snapshots())
}

func TestStartWithoutConnectorsFails(t *testing.T) {
	ing := NewIngestor(nil, testutil.NewCaptureSink(),
		movement.NewDetector(movement.Config{}), arbitrage.NewScanner(arbitrage.Config{}),
		testutil.NewCaptureNotifier())

	require.Error(t, ing.Start(context.Background()))
}

func TestGroupByFightPreservesOrder(t *testing.T) {
	snaps := []models.OddsSnapshot{
		testutil.NewTestSnapshot("ufc-320-01", "draftkings", -150, 130),
		testutil.NewTestSnapshot("ufc-320-02", "draftkings", 110, -130),
		testutil.NewTestSnapshot("ufc-320-01", "fanduel", -155, 135),
	}

	groups := groupByFight(snaps)
	require.Len(t, groups, 2)
	assert.Len(t, groups[0], 2)
	assert.Equal(t, "ufc-320-01", groups[0][0].FightID)
	assert.Len(t, groups[1], 1)
	assert.Equal(t, "ufc-320-02", groups[1][0].FightID)
}
