// Package closer owns fight lifecycle transitions: flipping statuses as
// fights start and finish, and freezing closing odds the moment a fight
// goes live.
package closer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const closingStream = "closing_odds.captured"

// Capturer monitors fights and captures closing odds when they go live.
// The closing line is the last is_latest snapshot per bookmaker at the
// moment the fight starts.
type Capturer struct {
	db           *sql.DB
	redisClient  *redis.Client
	pollInterval time.Duration
	stopChan     chan struct{}
}

// NewCapturer creates a closing odds capturer over the Alexandria DB
func NewCapturer(db *sql.DB, redisClient *redis.Client, pollInterval time.Duration) *Capturer {
	return &Capturer{
		db:           db,
		redisClient:  redisClient,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
	}
}

// Start begins monitoring for fights going live
func (c *Capturer) Start(ctx context.Context) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	fmt.Println("✓ Closing odds capturer started")

	if err := c.captureClosingOdds(ctx); err != nil {
		fmt.Printf("[Closer] initial capture error: %v\n", err)
	}

	for {
		select {
		case <-ticker.C:
			if err := c.captureClosingOdds(ctx); err != nil {
				fmt.Printf("[Closer] capture error: %v\n", err)
			}
		case <-c.stopChan:
			fmt.Println("✓ Closing odds capturer stopped")
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop gracefully stops the capturer
func (c *Capturer) Stop() {
	close(c.stopChan)
}

// captureClosingOdds finds fights that just went live and freezes their
// closing odds. Cards run long, so the lookback window is generous.
func (c *Capturer) captureClosingOdds(ctx context.Context) error {
	query := `
		SELECT f.fight_id
		FROM fights f
		WHERE f.fight_status = 'live'
		  AND f.fight_id NOT IN (SELECT DISTINCT fight_id FROM closing_odds)
		  AND f.commence_time > NOW() - INTERVAL '30 minutes'
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query live fights: %w", err)
	}
	defer rows.Close()

	var liveFights []string
	for rows.Next() {
		var fightID string
		if err := rows.Scan(&fightID); err != nil {
			return fmt.Errorf("scan fight: %w", err)
		}
		liveFights = append(liveFights, fightID)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}

	for _, fightID := range liveFights {
		if err := c.captureFightClosingOdds(ctx, fightID); err != nil {
			fmt.Printf("[Closer] error capturing closing odds for fight %s: %v\n", fightID, err)
			continue
		}
	}

	return nil
}

// captureFightClosingOdds freezes the latest snapshot per bookmaker as the
// fight's closing line
func (c *Capturer) captureFightClosingOdds(ctx context.Context, fightID string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertQuery := `
		INSERT INTO closing_odds (
			fight_id, sport_key, bookmaker, fighter1, fighter2,
			fighter1_price, fighter2_price,
			method_ko_price, method_sub_price, method_dec_price,
			rounds, vendor_last_update, closed_at
		)
		SELECT
			fight_id, sport_key, bookmaker, fighter1, fighter2,
			fighter1_price, fighter2_price,
			method_ko_price, method_sub_price, method_dec_price,
			rounds, vendor_last_update, NOW()
		FROM odds_snapshots
		WHERE fight_id = $1 AND is_latest = true
		ON CONFLICT (fight_id, bookmaker) DO NOTHING
	`

	result, err := tx.ExecContext(ctx, insertQuery, fightID)
	if err != nil {
		return fmt.Errorf("insert closing odds: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	// Fights with no snapshots yet stay eligible for the next sweep
	if rowsAffected == 0 {
		return nil
	}

	if err := c.publishClosingEvent(ctx, fightID, rowsAffected); err != nil {
		// Log but don't fail, the closing odds are already captured
		fmt.Printf("[Closer] warning: failed to publish stream event: %v\n", err)
	}

	fmt.Printf("[Closer] captured %d closing lines for fight %s\n", rowsAffected, fightID)

	return nil
}

// publishClosingEvent announces a captured closing line on Redis
func (c *Capturer) publishClosingEvent(ctx context.Context, fightID string, count int64) error {
	if c.redisClient == nil {
		return nil
	}

	values := map[string]interface{}{
		"fight_id":    fightID,
		"bookmakers":  count,
		"captured_at": time.Now().UTC().Format(time.RFC3339),
	}

	_, err := c.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: closingStream,
		Values: values,
	}).Result()

	if err != nil {
		return fmt.Errorf("xadd to stream: %w", err)
	}

	return nil
}
