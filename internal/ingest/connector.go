// Package ingest runs the polling loops that pull odds from configured
// sources, persist them, and feed the market analysis stages.
package ingest

import (
	"context"

	"github.com/XavierBriggs/Ares/internal/pipeline"
	"github.com/XavierBriggs/Ares/pkg/contracts"
	"github.com/XavierBriggs/Ares/pkg/models"
)

// Connector binds one configured source: the vendor adapter that speaks its
// wire format, the request pipeline guarding it, and the sport whose markets
// it polls.
type Connector struct {
	sourceID    string
	displayName string
	adapter     contracts.VendorAdapter
	pipeline    *pipeline.Pipeline
	sport       contracts.SportModule
}

var _ contracts.SourceConnector = (*Connector)(nil)

// NewConnector creates a connector for one configured source
func NewConnector(sourceID, displayName string, adapter contracts.VendorAdapter, pl *pipeline.Pipeline, sport contracts.SportModule) *Connector {
	return &Connector{
		sourceID:    sourceID,
		displayName: displayName,
		adapter:     adapter,
		pipeline:    pl,
		sport:       sport,
	}
}

func (c *Connector) SourceID() string    { return c.sourceID }
func (c *Connector) DisplayName() string { return c.displayName }

// Status reports the source's pipeline health for the ops surface
func (c *Connector) Status() models.SourceStatus {
	status := c.pipeline.Status()
	status.DisplayName = c.displayName
	return status
}

// ResetCircuitBreaker forces the source's circuit closed
func (c *Connector) ResetCircuitBreaker() {
	c.pipeline.ResetBreaker()
}

// Sport returns the sport module this source polls
func (c *Connector) Sport() contracts.SportModule {
	return c.sport
}

// FetchOdds pulls current odds through the vendor adapter
func (c *Connector) FetchOdds(ctx context.Context) (*models.FetchResult, error) {
	return c.adapter.FetchOdds(ctx)
}

// FetchFights pulls upcoming fights for discovery
func (c *Connector) FetchFights(ctx context.Context) ([]models.Fight, error) {
	return c.adapter.FetchFights(ctx)
}
