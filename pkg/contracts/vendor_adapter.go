package contracts

import (
	"context"

	"github.com/XavierBriggs/Ares/pkg/models"
)

// VendorAdapter defines the interface for fetching fight odds from external
// vendors. Adapters own the vendor wire format; everything downstream sees
// canonical snapshots only.
type VendorAdapter interface {
	// FetchOdds retrieves current odds for the configured markets.
	// Returns fights alongside snapshots to enable proper fight upsertion.
	FetchOdds(ctx context.Context) (*models.FetchResult, error)

	// FetchFights retrieves upcoming fights without odds (for discovery)
	FetchFights(ctx context.Context) ([]models.Fight, error)

	// SupportsMarket checks if this adapter supports a given market
	SupportsMarket(market string) bool
}
