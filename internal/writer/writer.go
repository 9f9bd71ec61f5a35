// Package writer persists fights and odds snapshots to Alexandria, analysis
// artifacts to Holocron, and publishes snapshot updates to Redis Streams with
// a write-through latest-odds cache.
package writer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/Ares/internal/talos"
	"github.com/XavierBriggs/Ares/pkg/contracts"
	"github.com/XavierBriggs/Ares/pkg/models"
)

const (
	defaultBatchSize     = 100
	defaultFlushInterval = 5 * time.Second
	warmWindow           = 72 * time.Hour

	streamKeyFormat = "odds.fights.%s"          // odds.fights.mma_mixed_martial_arts
	cacheKeyFormat  = "fight:odds:latest:%s:%s" // fight:odds:latest:<fight_id>:<bookmaker>
)

// Writer batches Alexandria snapshot writes and publishes to Redis Streams.
// Fights upsert immediately so discovery is never delayed by the batch window.
type Writer struct {
	alexandria *sql.DB
	holocron   *sql.DB
	redis      *redis.Client
	talos      *talos.Client // Optional Talos client for page warming

	cacheTTL      time.Duration
	batchSize     int
	flushInterval time.Duration

	buffer []models.OddsSnapshot
	mu     sync.Mutex

	flushTicker *time.Ticker
	stopChan    chan struct{}
	wg          sync.WaitGroup

	// Track seen fights to only warm new ones
	seenFights   map[string]bool
	seenFightsMu sync.RWMutex
}

// Ensure Writer implements Sink
var _ contracts.Sink = (*Writer)(nil)

// NewWriter creates a new batching writer. The redis client may be nil, in
// which case stream publishing and caching are skipped.
func NewWriter(alexandria, holocron *sql.DB, redisClient *redis.Client, cacheTTL time.Duration) *Writer {
	return &Writer{
		alexandria:    alexandria,
		holocron:      holocron,
		redis:         redisClient,
		cacheTTL:      cacheTTL,
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
		buffer:        make([]models.OddsSnapshot, 0, defaultBatchSize),
		stopChan:      make(chan struct{}),
		seenFights:    make(map[string]bool),
	}
}

// SetTalosClient sets the Talos client for page warming
func (w *Writer) SetTalosClient(client *talos.Client) {
	w.talos = client
}

// Start begins the background flush ticker
func (w *Writer) Start(ctx context.Context) {
	w.flushTicker = time.NewTicker(w.flushInterval)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-w.flushTicker.C:
				if err := w.Flush(ctx); err != nil {
					fmt.Printf("flush error: %v\n", err)
				}
			case <-w.stopChan:
				w.flushTicker.Stop()
				// Final flush on shutdown
				_ = w.Flush(ctx)
				return
			case <-ctx.Done():
				w.flushTicker.Stop()
				return
			}
		}
	}()
}

// Stop gracefully shuts down the writer
func (w *Writer) Stop() {
	close(w.stopChan)
	w.wg.Wait()
}

// WriteSnapshots upserts fights immediately and buffers snapshots for the
// next batch flush. New fights trigger Talos page warming.
func (w *Writer) WriteSnapshots(ctx context.Context, fights []models.Fight, snaps []models.OddsSnapshot) error {
	if len(fights) == 0 && len(snaps) == 0 {
		return nil
	}

	// Identify new fights (not seen before) for page warming
	newFights := w.identifyNewFights(fights)

	if len(fights) > 0 {
		if err := w.upsertFights(ctx, fights); err != nil {
			return fmt.Errorf("upsert fights: %w", err)
		}
	}

	if len(snaps) > 0 {
		w.mu.Lock()
		w.buffer = append(w.buffer, snaps...)
		shouldFlush := len(w.buffer) >= w.batchSize
		w.mu.Unlock()

		if shouldFlush {
			if err := w.Flush(ctx); err != nil {
				return err
			}
		}
	}

	// Warm fight pages for new fights (after successful DB write)
	if len(newFights) > 0 {
		w.warmFightPages(newFights)
	}

	return nil
}

// Flush writes buffered snapshots to Alexandria and publishes to Redis
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	if len(w.buffer) == 0 {
		w.mu.Unlock()
		return nil
	}

	// Swap buffer
	snaps := w.buffer
	w.buffer = make([]models.OddsSnapshot, 0, w.batchSize)
	w.mu.Unlock()

	// Execute write in transaction
	tx, err := w.alexandria.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Step 1: Retire previous rows (set is_latest = false)
	if err := w.updatePreviousSnapshots(ctx, tx, snaps); err != nil {
		return fmt.Errorf("update previous snapshots: %w", err)
	}

	// Step 2: Insert new rows (with is_latest = true)
	if err := w.insertSnapshots(ctx, tx, snaps); err != nil {
		return fmt.Errorf("insert snapshots: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	// Step 3: Publish to Redis Streams and cache (after successful DB write)
	if err := w.publishAndCache(ctx, snaps); err != nil {
		// Log but don't fail - DB is source of truth
		fmt.Printf("publish to stream error: %v\n", err)
	}

	return nil
}

// WriteMovementAlert persists one detected movement to Holocron
func (w *Writer) WriteMovementAlert(ctx context.Context, alert models.MovementAlert) error {
	prevJSON, err := json.Marshal(alert.Previous)
	if err != nil {
		return fmt.Errorf("marshal previous snapshot: %w", err)
	}
	currJSON, err := json.Marshal(alert.Current)
	if err != nil {
		return fmt.Errorf("marshal current snapshot: %w", err)
	}

	query := `
		INSERT INTO movement_alerts (
			alert_id, fight_id, bookmaker, movement_type,
			fighter1_change, fighter2_change, max_change,
			previous_snapshot, current_snapshot, detected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = w.holocron.ExecContext(ctx, query,
		alert.AlertID, alert.FightID, alert.Bookmaker, string(alert.MovementType),
		alert.Fighter1Change, alert.Fighter2Change, alert.MaxChange,
		prevJSON, currJSON, alert.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("insert movement alert: %w", err)
	}

	return nil
}

// WriteArbitrageOpportunity persists one opportunity and its legs to Holocron
func (w *Writer) WriteArbitrageOpportunity(ctx context.Context, opp models.ArbitrageOpportunity) error {
	tx, err := w.holocron.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	oppQuery := `
		INSERT INTO arb_opportunities (
			opportunity_id, fight_id, total_implied, profit_percent,
			reference_stake, detected_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if _, err := tx.ExecContext(ctx, oppQuery,
		opp.OpportunityID, opp.FightID, opp.TotalImplied, opp.ProfitPercent,
		opp.ReferenceStake, opp.DetectedAt, opp.ExpiresAt,
	); err != nil {
		return fmt.Errorf("insert opportunity: %w", err)
	}

	oppIDs := make([]string, len(opp.Legs))
	fighters := make([]string, len(opp.Legs))
	bookmakers := make([]string, len(opp.Legs))
	prices := make([]int, len(opp.Legs))
	impliedProbs := make([]float64, len(opp.Legs))
	stakes := make([]float64, len(opp.Legs))

	for i, leg := range opp.Legs {
		oppIDs[i] = opp.OpportunityID
		fighters[i] = leg.Fighter
		bookmakers[i] = leg.Bookmaker
		prices[i] = leg.Price
		impliedProbs[i] = leg.ImpliedProb
		stakes[i] = leg.Stake
	}

	legQuery := `
		INSERT INTO arb_legs (
			opportunity_id, fighter, bookmaker, price, implied_prob, stake
		)
		SELECT * FROM UNNEST(
			$1::text[], $2::text[], $3::text[], $4::int[], $5::decimal[], $6::decimal[]
		)
	`

	if _, err := tx.ExecContext(ctx, legQuery,
		pq.Array(oppIDs), pq.Array(fighters), pq.Array(bookmakers),
		pq.Array(prices), pq.Array(impliedProbs), pq.Array(stakes),
	); err != nil {
		return fmt.Errorf("insert legs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// upsertFights inserts or updates fights. A completed fight never reverts to
// an earlier status from a late discovery sweep.
func (w *Writer) upsertFights(ctx context.Context, fights []models.Fight) error {
	query := `
		INSERT INTO fights (
			fight_id, sport_key, fighter1, fighter2, event_name,
			weight_class, commence_time, fight_status
		)
		SELECT UNNEST($1::text[]), UNNEST($2::text[]), UNNEST($3::text[]),
		       UNNEST($4::text[]), UNNEST($5::text[]), UNNEST($6::text[]),
		       UNNEST($7::timestamptz[]), UNNEST($8::text[])
		ON CONFLICT (fight_id)
		DO UPDATE SET
			fighter1 = EXCLUDED.fighter1,
			fighter2 = EXCLUDED.fighter2,
			event_name = EXCLUDED.event_name,
			weight_class = EXCLUDED.weight_class,
			commence_time = EXCLUDED.commence_time,
			fight_status = CASE
				WHEN fights.fight_status = 'completed' THEN fights.fight_status
				ELSE EXCLUDED.fight_status
			END
	`

	fightIDs := make([]string, len(fights))
	sportKeys := make([]string, len(fights))
	fighter1s := make([]string, len(fights))
	fighter2s := make([]string, len(fights))
	eventNames := make([]string, len(fights))
	weightClasses := make([]string, len(fights))
	commenceTimes := make([]time.Time, len(fights))
	statuses := make([]string, len(fights))

	for i, f := range fights {
		fightIDs[i] = f.FightID
		sportKeys[i] = f.SportKey
		fighter1s[i] = f.Fighter1
		fighter2s[i] = f.Fighter2
		eventNames[i] = f.EventName
		weightClasses[i] = f.WeightClass
		commenceTimes[i] = f.CommenceTime
		statuses[i] = f.FightStatus
	}

	_, err := w.alexandria.ExecContext(ctx, query,
		pq.Array(fightIDs), pq.Array(sportKeys), pq.Array(fighter1s),
		pq.Array(fighter2s), pq.Array(eventNames), pq.Array(weightClasses),
		pq.Array(commenceTimes), pq.Array(statuses),
	)

	return err
}

// updatePreviousSnapshots sets is_latest = false for superseded rows
func (w *Writer) updatePreviousSnapshots(ctx context.Context, tx *sql.Tx, snaps []models.OddsSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	query := `
		UPDATE odds_snapshots
		SET is_latest = false
		WHERE is_latest = true
		  AND (fight_id, bookmaker) IN (
			SELECT UNNEST($1::text[]), UNNEST($2::text[])
		  )
	`

	fightIDs := make([]string, len(snaps))
	bookmakers := make([]string, len(snaps))

	for i, snap := range snaps {
		fightIDs[i] = snap.FightID
		bookmakers[i] = snap.Bookmaker
	}

	_, err := tx.ExecContext(ctx, query, pq.Array(fightIDs), pq.Array(bookmakers))
	return err
}

// insertSnapshots inserts new snapshot rows with is_latest = true
func (w *Writer) insertSnapshots(ctx context.Context, tx *sql.Tx, snaps []models.OddsSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	query := `
		INSERT INTO odds_snapshots (
			fight_id, sport_key, bookmaker, fighter1, fighter2,
			fighter1_price, fighter2_price,
			method_ko_price, method_sub_price, method_dec_price,
			rounds, vendor_last_update, captured_at, is_latest
		)
		SELECT * FROM UNNEST(
			$1::text[], $2::text[], $3::text[], $4::text[], $5::text[],
			$6::int[], $7::int[],
			$8::int[], $9::int[], $10::int[],
			$11::jsonb[], $12::timestamptz[], $13::timestamptz[], $14::boolean[]
		)
	`

	fightIDs := make([]string, len(snaps))
	sportKeys := make([]string, len(snaps))
	bookmakers := make([]string, len(snaps))
	fighter1s := make([]string, len(snaps))
	fighter2s := make([]string, len(snaps))
	fighter1Prices := make([]int, len(snaps))
	fighter2Prices := make([]int, len(snaps))
	koPrices := make([]int, len(snaps))
	subPrices := make([]int, len(snaps))
	decPrices := make([]int, len(snaps))
	roundsJSON := make([]string, len(snaps))
	vendorUpdates := make([]time.Time, len(snaps))
	capturedAts := make([]time.Time, len(snaps))
	isLatests := make([]bool, len(snaps))

	for i, snap := range snaps {
		fightIDs[i] = snap.FightID
		sportKeys[i] = snap.SportKey
		bookmakers[i] = snap.Bookmaker
		fighter1s[i] = snap.Fighter1
		fighter2s[i] = snap.Fighter2
		fighter1Prices[i] = snap.Fighter1Price
		fighter2Prices[i] = snap.Fighter2Price
		koPrices[i] = snap.Method.KO
		subPrices[i] = snap.Method.Submission
		decPrices[i] = snap.Method.Decision
		vendorUpdates[i] = snap.VendorLastUpdate
		capturedAts[i] = snap.CapturedAt
		isLatests[i] = true

		if len(snap.Rounds) == 0 {
			roundsJSON[i] = "[]"
			continue
		}
		data, err := json.Marshal(snap.Rounds)
		if err != nil {
			return fmt.Errorf("marshal rounds for %s/%s: %w", snap.FightID, snap.Bookmaker, err)
		}
		roundsJSON[i] = string(data)
	}

	_, err := tx.ExecContext(ctx, query,
		pq.Array(fightIDs), pq.Array(sportKeys), pq.Array(bookmakers),
		pq.Array(fighter1s), pq.Array(fighter2s),
		pq.Array(fighter1Prices), pq.Array(fighter2Prices),
		pq.Array(koPrices), pq.Array(subPrices), pq.Array(decPrices),
		pq.Array(roundsJSON), pq.Array(vendorUpdates), pq.Array(capturedAts),
		pq.Array(isLatests),
	)

	return err
}

// publishAndCache publishes snapshots to per-sport Redis Streams and refreshes
// the latest-odds cache keys in the same pipeline
func (w *Writer) publishAndCache(ctx context.Context, snaps []models.OddsSnapshot) error {
	if w.redis == nil || len(snaps) == 0 {
		return nil
	}

	// Group by sport for separate streams
	bySport := make(map[string][]models.OddsSnapshot)
	for _, snap := range snaps {
		bySport[snap.SportKey] = append(bySport[snap.SportKey], snap)
	}

	for sportKey, sportSnaps := range bySport {
		streamKey := fmt.Sprintf(streamKeyFormat, sportKey)

		pipe := w.redis.Pipeline()

		for _, snap := range sportSnaps {
			msgJSON, err := json.Marshal(snap)
			if err != nil {
				return fmt.Errorf("marshal stream message: %w", err)
			}

			pipe.XAdd(ctx, &redis.XAddArgs{
				Stream: streamKey,
				Values: map[string]interface{}{
					"data": msgJSON,
				},
			})

			cacheKey := fmt.Sprintf(cacheKeyFormat, snap.FightID, snap.Bookmaker)
			pipe.Set(ctx, cacheKey, msgJSON, w.cacheTTL)
		}

		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("redis pipeline exec for stream: %w", err)
		}
	}

	return nil
}

// identifyNewFights returns fights that haven't been seen before.
// This is used to trigger page warming only for genuinely new fights.
func (w *Writer) identifyNewFights(fights []models.Fight) []models.Fight {
	if len(fights) == 0 {
		return nil
	}

	w.seenFightsMu.Lock()
	defer w.seenFightsMu.Unlock()

	newFights := make([]models.Fight, 0)
	for _, f := range fights {
		if !w.seenFights[f.FightID] {
			w.seenFights[f.FightID] = true
			newFights = append(newFights, f)
		}
	}

	return newFights
}

// warmFightPages sends OpenFightPage requests to Talos for new fights.
// Only warms fights within 72 hours (sportsbooks rarely list MMA earlier).
// Rate limited to 1 second between requests to avoid overwhelming Talos.
func (w *Writer) warmFightPages(fights []models.Fight) {
	if w.talos == nil || !w.talos.IsEnabled() {
		return
	}

	now := time.Now()

	var toWarm []models.Fight
	var skippedFuture int

	for _, f := range fights {
		// Only warm pages for upcoming fights (not live or completed)
		if f.FightStatus != "" && f.FightStatus != "upcoming" {
			continue
		}

		// Skip if the walkouts are already past
		if f.CommenceTime.Before(now) {
			continue
		}

		// Skip if the fight is too far out (sportsbook won't have it listed)
		if f.CommenceTime.After(now.Add(warmWindow)) {
			skippedFuture++
			continue
		}

		toWarm = append(toWarm, f)
	}

	if len(toWarm) == 0 {
		if skippedFuture > 0 {
			fmt.Printf("[Writer] Skipped %d fights beyond 72h window\n", skippedFuture)
		}
		return
	}

	if skippedFuture > 0 {
		fmt.Printf("[Writer] Warming %d fight pages (skipped %d beyond 72h window)\n", len(toWarm), skippedFuture)
	} else {
		fmt.Printf("[Writer] Warming %d new fight pages...\n", len(toWarm))
	}

	go w.warmLoop(toWarm)
}

// warmLoop sends warm requests one per second so Talos is never flooded
func (w *Writer) warmLoop(fights []models.Fight) {
	for i, f := range fights {
		warmCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

		if err := w.talos.OpenFightPage(warmCtx, f.Fighter1, f.Fighter2, f.CommenceTime); err != nil {
			fmt.Printf("[Writer] Page warm failed for %s vs %s: %v\n", f.Fighter1, f.Fighter2, err)
		}

		cancel()

		// Rate limit: 1 second between requests, except after last
		if i < len(fights)-1 {
			time.Sleep(1 * time.Second)
		}
	}
}

// ClearSeenFights clears the seen fights cache (useful for testing or restarts)
func (w *Writer) ClearSeenFights() {
	w.seenFightsMu.Lock()
	defer w.seenFightsMu.Unlock()
	w.seenFights = make(map[string]bool)
}

// LoadSeenFights loads existing fight IDs from the database.
// Call this on startup to prevent re-warming fights that are already in DB.
func (w *Writer) LoadSeenFights(ctx context.Context) error {
	query := `
		SELECT fight_id FROM fights
		WHERE fight_status IN ('upcoming', 'live')
	`

	rows, err := w.alexandria.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query seen fights: %w", err)
	}
	defer rows.Close()

	w.seenFightsMu.Lock()
	defer w.seenFightsMu.Unlock()

	count := 0
	for rows.Next() {
		var fightID string
		if err := rows.Scan(&fightID); err != nil {
			continue
		}
		w.seenFights[fightID] = true
		count++
	}

	fmt.Printf("[Writer] Loaded %d existing fights into seenFights cache\n", count)
	return nil
}

// WarmUpcomingFights sends OpenFightPage requests for ALL upcoming fights on
// startup. This ensures pages are warmed even if Talos was down when Ares
// discovered the fights. Talos deduplicates at the bot level, so repeat
// requests are safe.
func (w *Writer) WarmUpcomingFights(ctx context.Context) error {
	if w.talos == nil || !w.talos.IsEnabled() {
		fmt.Println("[Writer] Talos client not enabled, skipping warm-up")
		return nil
	}

	query := `
		SELECT fight_id, sport_key, fighter1, fighter2, commence_time
		FROM fights
		WHERE fight_status = 'upcoming'
		  AND commence_time > NOW()
		  AND commence_time < NOW() + INTERVAL '72 hours'
		ORDER BY commence_time ASC
	`

	rows, err := w.alexandria.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query upcoming fights: %w", err)
	}
	defer rows.Close()

	var toWarm []models.Fight
	for rows.Next() {
		var f models.Fight
		if err := rows.Scan(&f.FightID, &f.SportKey, &f.Fighter1, &f.Fighter2, &f.CommenceTime); err != nil {
			fmt.Printf("[Writer] Scan warning: %v\n", err)
			continue
		}
		f.FightStatus = "upcoming"
		toWarm = append(toWarm, f)
	}

	if len(toWarm) == 0 {
		fmt.Println("[Writer] No upcoming fights within 72h window to warm")
		return nil
	}

	// Mark as seen so polling doesn't re-warm these
	w.seenFightsMu.Lock()
	for _, f := range toWarm {
		w.seenFights[f.FightID] = true
	}
	w.seenFightsMu.Unlock()

	fmt.Printf("[Writer] Startup warm-up: sending %d fights to Talos...\n", len(toWarm))
	go w.warmLoop(toWarm)

	return nil
}
