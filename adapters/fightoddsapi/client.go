// Package fightoddsapi adapts the Fight Odds API, an event-centric feed
// where each fight arrives with its bookmakers and markets nested inside.
package fightoddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/XavierBriggs/Ares/config"
	"github.com/XavierBriggs/Ares/pkg/contracts"
	"github.com/XavierBriggs/Ares/pkg/models"
	"github.com/XavierBriggs/Ares/sports/mma_ufc"
)

// Client implements the VendorAdapter interface for the Fight Odds API
type Client struct {
	cfg      *config.SourceConfig
	pipeline contracts.RequestPipeline
	sport    contracts.SportModule
}

// Ensure Client implements VendorAdapter
var _ contracts.VendorAdapter = (*Client)(nil)

// NewClient creates a Fight Odds API client. All requests go through the
// source's resilience pipeline.
func NewClient(cfg *config.SourceConfig, pl contracts.RequestPipeline, sport contracts.SportModule) *Client {
	return &Client{
		cfg:      cfg,
		pipeline: pl,
		sport:    sport,
	}
}

// FetchOdds retrieves current odds for the sport's configured markets
func (c *Client) FetchOdds(ctx context.Context) (*models.FetchResult, error) {
	endpoint, err := c.cfg.Endpoint("odds", map[string]string{"sport": c.sport.GetSportKey()})
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("apiKey", c.cfg.APIKey)
	params.Set("markets", strings.Join(c.sport.GetMarkets(), ","))
	params.Set("oddsFormat", "american")
	params.Set("dateFormat", "iso")

	fullURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	resp, err := c.pipeline.Do(ctx, &models.SourceRequest{URL: fullURL})
	if err != nil {
		return nil, fmt.Errorf("fetch odds failed: %w", err)
	}

	var apiResp []oddsResponse
	if err := json.Unmarshal(resp.Body, &apiResp); err != nil {
		return nil, fmt.Errorf("parse odds response: %w", err)
	}

	fights, snaps, findings := Normalize(apiResp, time.Now().UTC())
	return &models.FetchResult{
		Fights:    fights,
		Snapshots: snaps,
		Findings:  findings,
	}, nil
}

// FetchFights retrieves upcoming fights without odds (for discovery)
func (c *Client) FetchFights(ctx context.Context) ([]models.Fight, error) {
	endpoint, err := c.cfg.Endpoint("events", map[string]string{"sport": c.sport.GetSportKey()})
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("apiKey", c.cfg.APIKey)
	params.Set("dateFormat", "iso")

	fullURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	resp, err := c.pipeline.Do(ctx, &models.SourceRequest{URL: fullURL})
	if err != nil {
		return nil, fmt.Errorf("fetch fights failed: %w", err)
	}

	var apiResp []eventResponse
	if err := json.Unmarshal(resp.Body, &apiResp); err != nil {
		return nil, fmt.Errorf("parse fights response: %w", err)
	}

	return NormalizeFights(apiResp, time.Now().UTC()), nil
}

// SupportsMarket checks if this adapter supports a given market
func (c *Client) SupportsMarket(market string) bool {
	supportedMarkets := map[string]bool{
		mma_ufc.MarketMoneyline: true,
		mma_ufc.MarketMethod:    true,
		mma_ufc.MarketRounds:    true,
	}
	return supportedMarkets[market]
}
