// Package talos provides an HTTP client for communicating with Talos Bot
// Manager to warm and close sportsbook fight pages based on fight lifecycle.
package talos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Client handles HTTP communication with Talos Bot Manager for page warming
type Client struct {
	baseURL    string
	httpClient *http.Client
	enabled    bool
	books      []string // List of book keys to warm pages for
}

// Config holds configuration for the Talos client
type Config struct {
	BaseURL string   // e.g., "http://localhost:5008"
	Enabled bool     // Whether page warming is enabled
	Books   []string // List of books to warm, e.g., ["draftkings", "fanduel", "betmgm"]
	Timeout time.Duration
}

// OpenPageRequest is the request format for warming a fight page.
// Talos serves every Fortuna sport, so the wire keys stay team1/team2.
type OpenPageRequest struct {
	Team1       string   `json:"team1"`
	Team2       string   `json:"team2"`
	Sport       string   `json:"sport"`
	League      string   `json:"league,omitempty"`
	BetPeriod   string   `json:"bet_period"`
	EventDate   string   `json:"event_date"` // YYYY-MM-DD format - always required
	TargetBooks []string `json:"target_books,omitempty"`
}

// ClosePageRequest is the request format for closing a fight page
type ClosePageRequest struct {
	Book        string   `json:"book"`
	GameKey     string   `json:"game_key"`
	TargetBooks []string `json:"target_books,omitempty"`
}

// PageActionResponse is the response from open/close page endpoints
type PageActionResponse struct {
	AllOK   bool                   `json:"all_ok"`
	AnyOK   bool                   `json:"any_ok"`
	Results map[string]interface{} `json:"results"`
}

// NewClient creates a new Talos client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		enabled: cfg.Enabled,
		books:   cfg.Books,
	}
}

// IsEnabled returns whether page warming is enabled
func (c *Client) IsEnabled() bool {
	return c.enabled && c.baseURL != ""
}

// OpenFightPage warms a fight page across all configured books.
// Called when a new fight is discovered with odds. Red corner first.
func (c *Client) OpenFightPage(ctx context.Context, fighter1, fighter2 string, commenceTime time.Time) error {
	if !c.IsEnabled() {
		return nil
	}

	req := OpenPageRequest{
		Team1:       fighter1,
		Team2:       fighter2,
		Sport:       "mma",
		League:      "ufc",
		BetPeriod:   "fight",
		EventDate:   commenceTime.Format("2006-01-02"),
		TargetBooks: c.books,
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	log.Printf("[Talos] Opening fight page: %s vs %s (date: %s)", fighter1, fighter2, req.EventDate)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/open-game-page", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var pageResp PageActionResponse
	if err := json.Unmarshal(body, &pageResp); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !pageResp.AnyOK {
		log.Printf("[Talos] Warning: No bots warmed page for %s vs %s", fighter1, fighter2)
	} else {
		log.Printf("[Talos] Fight page warmed: %s vs %s (all_ok=%v)", fighter1, fighter2, pageResp.AllOK)
	}

	return nil
}

// CloseFightPage closes fight pages across all configured books.
// Called when a fight is marked as completed. The page key format is
// book:sport:league:date:fighter1:fighter2:period with fighters in
// alphabetical slug order.
func (c *Client) CloseFightPage(ctx context.Context, fighter1, fighter2 string, commenceTime time.Time) error {
	if !c.IsEnabled() {
		return nil
	}

	dateStr := commenceTime.Format("20060102")

	slug1 := slugName(fighter1)
	slug2 := slugName(fighter2)
	if slug1 > slug2 {
		slug1, slug2 = slug2, slug1
	}

	for _, book := range c.books {
		pageKey := fmt.Sprintf("%s:mma:ufc:%s:%s:%s:fight", book, dateStr, slug1, slug2)
		if err := c.closePage(ctx, book, pageKey); err != nil {
			log.Printf("[Talos] Warning: Failed to close page %s: %v", pageKey, err)
		}
	}

	return nil
}

// closePage sends a single close request for one book's page
func (c *Client) closePage(ctx context.Context, book, pageKey string) error {
	req := ClosePageRequest{
		Book:    book,
		GameKey: pageKey,
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal close request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/close-game-page", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create close request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("close request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("close page failed (status %d)", resp.StatusCode)
	}

	return nil
}

// slugName converts a fighter name to slug format for the page key
func slugName(name string) string {
	result := ""
	for _, c := range name {
		if c >= 'A' && c <= 'Z' {
			result += string(c + 32) // lowercase
		} else if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' {
			result += string(c)
		} else if c == ' ' {
			result += "_"
		}
	}
	return result
}
