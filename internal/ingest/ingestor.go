package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/XavierBriggs/Ares/internal/arbitrage"
	"github.com/XavierBriggs/Ares/internal/movement"
	"github.com/XavierBriggs/Ares/pkg/contracts"
	"github.com/XavierBriggs/Ares/pkg/models"
)

// Ingestor orchestrates polling for all configured sources. Each source runs
// two loops: an odds poll at the sport's poll interval and a discovery sweep
// that upserts upcoming fights before any odds exist for them.
type Ingestor struct {
	connectors []*Connector
	sink       contracts.Sink
	detector   *movement.Detector
	scanner    *arbitrage.Scanner
	notifier   contracts.Notifier
	stopChan   chan struct{}
	wg         sync.WaitGroup
}

// NewIngestor creates the polling orchestrator
func NewIngestor(
	connectors []*Connector,
	sink contracts.Sink,
	detector *movement.Detector,
	scanner *arbitrage.Scanner,
	notifier contracts.Notifier,
) *Ingestor {
	return &Ingestor{
		connectors: connectors,
		sink:       sink,
		detector:   detector,
		scanner:    scanner,
		notifier:   notifier,
		stopChan:   make(chan struct{}),
	}
}

// Start begins polling for every connector
func (i *Ingestor) Start(ctx context.Context) error {
	if len(i.connectors) == 0 {
		return fmt.Errorf("no sources configured")
	}

	for _, conn := range i.connectors {
		i.wg.Add(1)
		go func(conn *Connector) {
			defer i.wg.Done()
			i.pollOdds(ctx, conn)
		}(conn)

		i.wg.Add(1)
		go func(conn *Connector) {
			defer i.wg.Done()
			i.sweepDiscovery(ctx, conn)
		}(conn)

		fmt.Printf("✓ Started polling %s for %s\n", conn.DisplayName(), conn.Sport().GetDisplayName())
	}

	return nil
}

// Stop gracefully shuts down all polling loops
func (i *Ingestor) Stop() {
	close(i.stopChan)
	i.wg.Wait()
}

// pollOdds fetches odds for one source on the sport's poll interval
func (i *Ingestor) pollOdds(ctx context.Context, conn *Connector) {
	if err := i.fetchAndProcess(ctx, conn); err != nil {
		fmt.Printf("[%s] initial odds poll error: %v\n", conn.SourceID(), err)
	}

	ticker := time.NewTicker(conn.Sport().GetPollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := i.fetchAndProcess(ctx, conn); err != nil {
				fmt.Printf("[%s] odds poll error: %v\n", conn.SourceID(), err)
			}
		case <-i.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// sweepDiscovery looks for newly announced fights on the discovery interval
func (i *Ingestor) sweepDiscovery(ctx context.Context, conn *Connector) {
	if err := i.discoverFights(ctx, conn); err != nil {
		fmt.Printf("[%s] initial discovery sweep error: %v\n", conn.SourceID(), err)
	}

	ticker := time.NewTicker(conn.Sport().GetDiscoveryInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := i.discoverFights(ctx, conn); err != nil {
				fmt.Printf("[%s] discovery sweep error: %v\n", conn.SourceID(), err)
			}
		case <-i.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// discoverFights upserts upcoming fights within the discovery window.
// Registering a fight before its first odds snapshot lets page warming
// start early.
func (i *Ingestor) discoverFights(ctx context.Context, conn *Connector) error {
	fights, err := conn.FetchFights(ctx)
	if err != nil {
		return fmt.Errorf("fetch fights: %w", err)
	}

	now := time.Now()
	windowEnd := now.Add(time.Duration(conn.Sport().GetDiscoveryWindowHours()) * time.Hour)

	inWindow := make([]models.Fight, 0, len(fights))
	for _, fight := range fights {
		if fight.CommenceTime.After(now) && fight.CommenceTime.Before(windowEnd) {
			inWindow = append(inWindow, fight)
		}
	}

	if len(inWindow) == 0 {
		return nil
	}

	if err := i.sink.WriteSnapshots(ctx, inWindow, nil); err != nil {
		return fmt.Errorf("upsert discovered fights: %w", err)
	}

	fmt.Printf("[%s] discovered %d fights in next %dhr window\n",
		conn.SourceID(), len(inWindow), conn.Sport().GetDiscoveryWindowHours())
	return nil
}

// fetchAndProcess executes the full cycle for one source: fetch, validate,
// persist, then run movement detection and arbitrage scanning
func (i *Ingestor) fetchAndProcess(ctx context.Context, conn *Connector) error {
	start := time.Now()

	result, err := conn.FetchOdds(ctx)
	if err != nil {
		return fmt.Errorf("fetch odds: %w", err)
	}

	for _, finding := range result.Findings {
		fmt.Printf("⚠ [%s] %s: %s\n", conn.SourceID(), finding.Field, finding.Message)
	}

	if len(result.Snapshots) == 0 {
		return nil
	}

	fetchDuration := time.Since(start)

	valid, dropped := i.validateSnapshots(conn, result.Snapshots)
	if len(valid) == 0 {
		return nil
	}

	if err := i.sink.WriteSnapshots(ctx, result.Fights, valid); err != nil {
		return fmt.Errorf("write snapshots: %w", err)
	}

	writeDuration := time.Since(start) - fetchDuration

	alerts := i.detectMovements(ctx, conn, valid)
	opportunities := i.scanArbitrage(ctx, conn, valid)

	analyzeDuration := time.Since(start) - fetchDuration - writeDuration
	totalDuration := time.Since(start)

	fmt.Printf("[%s] poll complete: %d fights, %d snapshots (%d dropped), %d alerts, %d arbs, fetch=%v write=%v analyze=%v total=%v\n",
		conn.SourceID(), len(result.Fights), len(valid), dropped, alerts, opportunities,
		fetchDuration, writeDuration, analyzeDuration, totalDuration)

	return nil
}

// validateSnapshots applies sport validation. Error findings drop the
// snapshot; warnings are logged and the snapshot kept.
func (i *Ingestor) validateSnapshots(conn *Connector, snaps []models.OddsSnapshot) ([]models.OddsSnapshot, int) {
	sport := conn.Sport()
	valid := make([]models.OddsSnapshot, 0, len(snaps))
	dropped := 0

	for _, snap := range snaps {
		keep := true
		for _, finding := range sport.ValidateSnapshot(snap) {
			fmt.Printf("⚠ [%s] %s %s %s: %s\n",
				conn.SourceID(), snap.FightID, snap.Bookmaker, finding.Field, finding.Message)
			if finding.Severity == models.SeverityError {
				keep = false
			}
		}
		if keep {
			valid = append(valid, snap)
		} else {
			dropped++
		}
	}

	return valid, dropped
}

// detectMovements feeds each snapshot to the movement detector and fans any
// alert out to the notifier and the sink. Returns the alert count.
func (i *Ingestor) detectMovements(ctx context.Context, conn *Connector, snaps []models.OddsSnapshot) int {
	alerts := 0
	for _, snap := range snaps {
		alert := i.detector.Observe(snap)
		if alert == nil {
			continue
		}
		alerts++

		i.notifier.OddsMovement(*alert)
		if err := i.sink.WriteMovementAlert(ctx, *alert); err != nil {
			fmt.Printf("⚠ [%s] write movement alert error: %v\n", conn.SourceID(), err)
		}
	}
	return alerts
}

// scanArbitrage groups the batch by fight and scans each group for a
// cross-book arbitrage. Returns the opportunity count.
func (i *Ingestor) scanArbitrage(ctx context.Context, conn *Connector, snaps []models.OddsSnapshot) int {
	opportunities := 0
	for _, group := range groupByFight(snaps) {
		opp := i.scanner.Scan(group)
		if opp == nil {
			continue
		}
		opportunities++

		i.notifier.ArbitrageDetected(*opp)
		if err := i.sink.WriteArbitrageOpportunity(ctx, *opp); err != nil {
			fmt.Printf("⚠ [%s] write arbitrage error: %v\n", conn.SourceID(), err)
		}
	}
	return opportunities
}

// groupByFight splits a batch into per-fight groups, preserving the order
// fights first appear in the batch
func groupByFight(snaps []models.OddsSnapshot) [][]models.OddsSnapshot {
	byFight := make(map[string][]models.OddsSnapshot)
	order := make([]string, 0)

	for _, snap := range snaps {
		if _, seen := byFight[snap.FightID]; !seen {
			order = append(order, snap.FightID)
		}
		byFight[snap.FightID] = append(byFight[snap.FightID], snap)
	}

	groups := make([][]models.OddsSnapshot, 0, len(order))
	for _, fightID := range order {
		groups = append(groups, byFight[fightID])
	}
	return groups
}
