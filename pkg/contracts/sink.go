package contracts

import (
	"context"

	"github.com/XavierBriggs/Ares/pkg/models"
)

// Sink records snapshots and derived facts. Implementations own storage and
// serialization; the ingestion core only hands over domain models.
type Sink interface {
	// WriteSnapshots upserts fights and records their odds snapshots
	WriteSnapshots(ctx context.Context, fights []models.Fight, snaps []models.OddsSnapshot) error

	// WriteMovementAlert records a detected odds movement
	WriteMovementAlert(ctx context.Context, alert models.MovementAlert) error

	// WriteArbitrageOpportunity records a detected arbitrage opportunity
	WriteArbitrageOpportunity(ctx context.Context, opp models.ArbitrageOpportunity) error
}

// SourceConnector is the registry's view of one upstream source: identity,
// health, and the administrative overrides the ops surface exposes.
type SourceConnector interface {
	SourceID() string
	DisplayName() string
	Status() models.SourceStatus
	ResetCircuitBreaker()
}
