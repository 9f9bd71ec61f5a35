package contracts

import (
	"time"

	"github.com/XavierBriggs/Ares/pkg/models"
)

// SportModule defines the interface for sport-specific polling and
// validation logic. This keeps Ares open to combat sports beyond the UFC.
type SportModule interface {
	// GetSportKey returns the unique identifier for this sport
	// (e.g., "mma_mixed_martial_arts")
	GetSportKey() string

	// GetDisplayName returns the human-readable name (e.g., "MMA / UFC")
	GetDisplayName() string

	// GetMarkets returns the markets to poll for this sport
	GetMarkets() []string

	// GetPollInterval returns how often to poll odds
	GetPollInterval() time.Duration

	// GetDiscoveryInterval returns how often to sweep for new fights
	GetDiscoveryInterval() time.Duration

	// GetDiscoveryWindowHours returns how many hours ahead to discover fights
	GetDiscoveryWindowHours() int

	// ShouldCaptureClosing returns whether closing lines are captured when
	// fights go live
	ShouldCaptureClosing() bool

	// ValidateSnapshot performs sport-specific validation on a normalized
	// snapshot. Error-severity findings drop the snapshot.
	ValidateSnapshot(snap models.OddsSnapshot) []models.Finding
}
