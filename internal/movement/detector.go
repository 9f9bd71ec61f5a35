// Package movement detects odds line movement by comparing each incoming
// snapshot against the previous snapshot for the same fight and bookmaker.
package movement

import (
	"math"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/XavierBriggs/Ares/pkg/models"
)

const (
	DefaultMinPercentageChange = 5.0
	DefaultSteamThreshold      = 10.0
	DefaultMaxBaselines        = 10000
)

// Config bounds movement detection
type Config struct {
	// MinPercentageChange is the alert floor: moves below it are ignored
	MinPercentageChange float64
	// SteamThreshold promotes same-direction moves to steam
	SteamThreshold float64
	// MaxBaselines caps the baseline table; oldest keys are evicted first
	MaxBaselines int
}

// Detector keeps the last snapshot seen per (fight, bookmaker) key and
// classifies each new snapshot's moneyline move against that baseline.
type Detector struct {
	cfg Config

	mu        sync.Mutex
	baselines map[string]models.OddsSnapshot
	keyOrder  []string
}

// NewDetector creates a detector. Zero config fields fall back to defaults.
func NewDetector(cfg Config) *Detector {
	if cfg.MinPercentageChange <= 0 {
		cfg.MinPercentageChange = DefaultMinPercentageChange
	}
	if cfg.SteamThreshold <= 0 {
		cfg.SteamThreshold = DefaultSteamThreshold
	}
	if cfg.MaxBaselines <= 0 {
		cfg.MaxBaselines = DefaultMaxBaselines
	}
	return &Detector{
		cfg:       cfg,
		baselines: make(map[string]models.OddsSnapshot),
	}
}

// Observe installs snap as the new baseline for its key and returns an
// alert when the moneyline moved by at least the alert floor. The first
// snapshot for a key never alerts; it only seeds the baseline.
func (d *Detector) Observe(snap models.OddsSnapshot) *models.MovementAlert {
	key := baselineKey(snap.FightID, snap.Bookmaker)

	d.mu.Lock()
	prev, exists := d.baselines[key]
	if !exists {
		d.trackKey(key)
	}
	d.baselines[key] = snap
	d.mu.Unlock()

	if !exists {
		return nil
	}

	fighter1Change := percentChange(prev.Fighter1Price, snap.Fighter1Price)
	fighter2Change := percentChange(prev.Fighter2Price, snap.Fighter2Price)
	maxChange := math.Max(math.Abs(fighter1Change), math.Abs(fighter2Change))

	if maxChange < d.cfg.MinPercentageChange {
		return nil
	}

	return &models.MovementAlert{
		AlertID:        uuid.New().String(),
		FightID:        snap.FightID,
		Bookmaker:      snap.Bookmaker,
		MovementType:   classify(fighter1Change, fighter2Change, maxChange, d.cfg.SteamThreshold),
		Fighter1Change: fighter1Change,
		Fighter2Change: fighter2Change,
		MaxChange:      maxChange,
		Previous:       prev,
		Current:        snap,
		DetectedAt:     snap.CapturedAt,
	}
}

// ClearFight drops every baseline for a fight. Called when a fight
// completes so dead keys stop occupying the table. Returns how many
// baselines were removed.
func (d *Detector) ClearFight(fightID string) int {
	prefix := fightID + "|"

	d.mu.Lock()
	defer d.mu.Unlock()

	removed := 0
	for key := range d.baselines {
		if strings.HasPrefix(key, prefix) {
			delete(d.baselines, key)
			removed++
		}
	}
	if removed > 0 {
		kept := d.keyOrder[:0]
		for _, key := range d.keyOrder {
			if !strings.HasPrefix(key, prefix) {
				kept = append(kept, key)
			}
		}
		d.keyOrder = kept
	}
	return removed
}

// Size returns the number of tracked baselines
func (d *Detector) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.baselines)
}

// trackKey records insertion order for a new key and evicts the oldest
// baselines once the table is full. Caller holds mu.
func (d *Detector) trackKey(key string) {
	d.keyOrder = append(d.keyOrder, key)
	for len(d.keyOrder) > 0 && len(d.baselines) >= d.cfg.MaxBaselines {
		oldest := d.keyOrder[0]
		d.keyOrder = d.keyOrder[1:]
		delete(d.baselines, oldest)
	}
}

func baselineKey(fightID, bookmaker string) string {
	return fightID + "|" + bookmaker
}

// percentChange computes (new - old) / |old| * 100. A missing (0) old price
// yields no measurable change.
func percentChange(oldPrice, newPrice int) float64 {
	if oldPrice == 0 {
		return 0
	}
	return float64(newPrice-oldPrice) / math.Abs(float64(oldPrice)) * 100.0
}

// classify applies the movement taxonomy. Same-direction moves at or above
// the steam threshold are steam, opposite-direction moves are reverse, and
// anything else over the alert floor is significant.
func classify(fighter1Change, fighter2Change, maxChange, steamThreshold float64) models.MovementType {
	switch {
	case fighter1Change*fighter2Change > 0 && maxChange >= steamThreshold:
		return models.MovementSteam
	case fighter1Change*fighter2Change < 0:
		return models.MovementReverse
	default:
		return models.MovementSignificant
	}
}
