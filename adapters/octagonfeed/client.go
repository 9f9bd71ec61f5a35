// Package octagonfeed adapts the OctagonFeed quote stream, a flat feed where
// every price arrives as an independent quote line keyed by bout and book.
// The feed carries moneyline and method-of-victory markets only.
package octagonfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/XavierBriggs/Ares/config"
	"github.com/XavierBriggs/Ares/pkg/contracts"
	"github.com/XavierBriggs/Ares/pkg/models"
	"github.com/XavierBriggs/Ares/sports/mma_ufc"
)

// Client implements the VendorAdapter interface for OctagonFeed
type Client struct {
	cfg      *config.SourceConfig
	pipeline contracts.RequestPipeline
	sport    contracts.SportModule
}

// Ensure Client implements VendorAdapter
var _ contracts.VendorAdapter = (*Client)(nil)

// NewClient creates an OctagonFeed client. All requests go through the
// source's resilience pipeline.
func NewClient(cfg *config.SourceConfig, pl contracts.RequestPipeline, sport contracts.SportModule) *Client {
	return &Client{
		cfg:      cfg,
		pipeline: pl,
		sport:    sport,
	}
}

// FetchOdds retrieves the full quote list and regroups it into snapshots
func (c *Client) FetchOdds(ctx context.Context) (*models.FetchResult, error) {
	endpoint, err := c.cfg.Endpoint("odds", map[string]string{"league": leagueFor(c.sport.GetSportKey())})
	if err != nil {
		return nil, err
	}

	resp, err := c.pipeline.Do(ctx, &models.SourceRequest{
		URL:    endpoint,
		Header: map[string]string{"X-Api-Key": c.cfg.APIKey},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch odds failed: %w", err)
	}

	var feed quoteFeed
	if err := json.Unmarshal(resp.Body, &feed); err != nil {
		return nil, fmt.Errorf("parse quote feed: %w", err)
	}

	fights, snaps, findings := Normalize(&feed, time.Now().UTC())
	return &models.FetchResult{
		Fights:    fights,
		Snapshots: snaps,
		Findings:  findings,
	}, nil
}

// FetchFights retrieves upcoming bouts without odds (for discovery)
func (c *Client) FetchFights(ctx context.Context) ([]models.Fight, error) {
	endpoint, err := c.cfg.Endpoint("events", map[string]string{"league": leagueFor(c.sport.GetSportKey())})
	if err != nil {
		return nil, err
	}

	resp, err := c.pipeline.Do(ctx, &models.SourceRequest{
		URL:    endpoint,
		Header: map[string]string{"X-Api-Key": c.cfg.APIKey},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch fights failed: %w", err)
	}

	var feed eventFeed
	if err := json.Unmarshal(resp.Body, &feed); err != nil {
		return nil, fmt.Errorf("parse event feed: %w", err)
	}

	return NormalizeFights(&feed, time.Now().UTC()), nil
}

// SupportsMarket checks if this adapter supports a given market.
// OctagonFeed does not quote round totals.
func (c *Client) SupportsMarket(market string) bool {
	switch market {
	case mma_ufc.MarketMoneyline, mma_ufc.MarketMethod:
		return true
	}
	return false
}

// leagueFor maps a sport key to the feed's league slug
func leagueFor(sportKey string) string {
	switch sportKey {
	case mma_ufc.SportKey:
		return "ufc"
	default:
		return sportKey
	}
}
