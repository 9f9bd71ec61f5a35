package closer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/XavierBriggs/Ares/internal/talos"
)

// liveDuration is how long after its scheduled start a fight counts as
// live. Fights run 25 minutes at most, but commence times are card
// position estimates that slip as cards run long.
const liveDuration = 2 * time.Hour

// StatusUpdater moves fights through the upcoming -> live -> completed
// lifecycle based on commence_time. Completed fights get their warmed
// sportsbook pages released and their movement baselines cleared through
// the onCompleted hook.
type StatusUpdater struct {
	db           *sql.DB
	talos        *talos.Client
	pollInterval time.Duration
	stopChan     chan struct{}
	onCompleted  func(fightID string)
}

// NewStatusUpdater creates a fight status updater over the Alexandria DB
func NewStatusUpdater(db *sql.DB, pollInterval time.Duration) *StatusUpdater {
	return &StatusUpdater{
		db:           db,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
	}
}

// SetTalosClient enables page release for completed fights
func (s *StatusUpdater) SetTalosClient(client *talos.Client) {
	s.talos = client
}

// SetOnCompleted registers a hook called once per completed fight
func (s *StatusUpdater) SetOnCompleted(hook func(fightID string)) {
	s.onCompleted = hook
}

// Start begins monitoring and updating fight statuses
func (s *StatusUpdater) Start(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	fmt.Println("✓ Fight status updater started")

	if err := s.updateStatuses(ctx); err != nil {
		fmt.Printf("[StatusUpdater] initial update error: %v\n", err)
	}

	for {
		select {
		case <-ticker.C:
			if err := s.updateStatuses(ctx); err != nil {
				fmt.Printf("[StatusUpdater] update error: %v\n", err)
			}
		case <-s.stopChan:
			fmt.Println("✓ Fight status updater stopped")
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop gracefully stops the updater
func (s *StatusUpdater) Stop() {
	close(s.stopChan)
}

// updateStatuses advances fight statuses based on the current time
func (s *StatusUpdater) updateStatuses(ctx context.Context) error {
	// upcoming -> live for fights whose scheduled start has passed
	liveQuery := `
		UPDATE fights
		SET fight_status = 'live'
		WHERE fight_status = 'upcoming'
		  AND commence_time <= NOW()
		  AND commence_time > NOW() - INTERVAL '2 hours'
	`

	liveResult, err := s.db.ExecContext(ctx, liveQuery)
	if err != nil {
		return fmt.Errorf("update to live: %w", err)
	}

	liveCount, _ := liveResult.RowsAffected()
	if liveCount > 0 {
		fmt.Printf("[StatusUpdater] marked %d fight(s) as LIVE\n", liveCount)
	}

	// live or stale upcoming -> completed once the live window lapses.
	// The upcoming case covers fights whose start was missed during
	// downtime.
	completedQuery := `
		UPDATE fights
		SET fight_status = 'completed'
		WHERE fight_status IN ('upcoming', 'live')
		  AND commence_time < NOW() - INTERVAL '2 hours'
		RETURNING fight_id, fighter1, fighter2, commence_time
	`

	rows, err := s.db.QueryContext(ctx, completedQuery)
	if err != nil {
		return fmt.Errorf("update to completed: %w", err)
	}
	defer rows.Close()

	type completedFight struct {
		fightID      string
		fighter1     string
		fighter2     string
		commenceTime time.Time
	}

	var completed []completedFight
	for rows.Next() {
		var f completedFight
		if err := rows.Scan(&f.fightID, &f.fighter1, &f.fighter2, &f.commenceTime); err != nil {
			return fmt.Errorf("scan completed fight: %w", err)
		}
		completed = append(completed, f)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}

	if len(completed) == 0 {
		return nil
	}

	fmt.Printf("[StatusUpdater] marked %d fight(s) as COMPLETED\n", len(completed))

	for _, f := range completed {
		if s.onCompleted != nil {
			s.onCompleted(f.fightID)
		}

		if s.talos != nil && s.talos.IsEnabled() {
			if err := s.talos.CloseFightPage(ctx, f.fighter1, f.fighter2, f.commenceTime); err != nil {
				fmt.Printf("[StatusUpdater] close page error for %s: %v\n", f.fightID, err)
			}
		}
	}

	return nil
}
