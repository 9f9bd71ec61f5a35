package mma_ufc

import (
	"fmt"
	"time"

	"github.com/XavierBriggs/Ares/pkg/models"
	"github.com/XavierBriggs/Ares/pkg/oddsmath"
)

// Module implements the SportModule interface for MMA / UFC
type Module struct {
	config *Config
}

// NewModule creates a new MMA sport module
func NewModule() *Module {
	return &Module{
		config: DefaultConfig(),
	}
}

// GetSportKey returns the sport identifier
func (m *Module) GetSportKey() string {
	return m.config.SportKey
}

// GetDisplayName returns the human-readable name
func (m *Module) GetDisplayName() string {
	return m.config.DisplayName
}

// GetMarkets returns the markets to poll
func (m *Module) GetMarkets() []string {
	return Markets()
}

// GetPollInterval returns the odds poll interval
func (m *Module) GetPollInterval() time.Duration {
	return m.config.Odds.PollInterval
}

// GetDiscoveryInterval returns how often to sweep for new fights
func (m *Module) GetDiscoveryInterval() time.Duration {
	return m.config.Discovery.SweepInterval
}

// GetDiscoveryWindowHours returns the discovery window in hours
func (m *Module) GetDiscoveryWindowHours() int {
	return m.config.Discovery.WindowHours
}

// ShouldCaptureClosing returns whether closing lines are captured
func (m *Module) ShouldCaptureClosing() bool {
	return m.config.CaptureClosing
}

// ValidateSnapshot performs MMA-specific validation on a normalized
// snapshot. Error findings drop the snapshot; warnings are logged and kept.
func (m *Module) ValidateSnapshot(snap models.OddsSnapshot) []models.Finding {
	var findings []models.Finding

	if snap.SportKey != m.config.SportKey {
		findings = append(findings, models.Finding{
			Field:    "sport_key",
			Severity: models.SeverityError,
			Message:  fmt.Sprintf("expected %s, got %s", m.config.SportKey, snap.SportKey),
		})
	}

	if snap.FightID == "" {
		findings = append(findings, models.Finding{
			Field:    "fight_id",
			Severity: models.SeverityError,
			Message:  "fight_id cannot be empty",
		})
	}

	if snap.Bookmaker == "" {
		findings = append(findings, models.Finding{
			Field:    "bookmaker",
			Severity: models.SeverityError,
			Message:  "bookmaker cannot be empty",
		})
	}

	if !oddsmath.IsValidPrice(snap.Fighter1Price) {
		findings = append(findings, models.Finding{
			Field:    "fighter1_price",
			Severity: models.SeverityError,
			Message:  fmt.Sprintf("invalid American odds: %d", snap.Fighter1Price),
		})
	}

	if !oddsmath.IsValidPrice(snap.Fighter2Price) {
		findings = append(findings, models.Finding{
			Field:    "fighter2_price",
			Severity: models.SeverityError,
			Message:  fmt.Sprintf("invalid American odds: %d", snap.Fighter2Price),
		})
	}

	// Method prices are optional; 0 is the missing-market sentinel.
	findings = append(findings, validateOptionalPrice("method.ko", snap.Method.KO)...)
	findings = append(findings, validateOptionalPrice("method.submission", snap.Method.Submission)...)
	findings = append(findings, validateOptionalPrice("method.decision", snap.Method.Decision)...)

	for i, round := range snap.Rounds {
		findings = append(findings, validateOptionalPrice(fmt.Sprintf("rounds[%d]", i), round.Price)...)
	}

	// Margin sanity on the moneyline. Suspicious margins are warnings:
	// the snapshot is still a fact, just probably a stale one.
	if oddsmath.IsValidPrice(snap.Fighter1Price) && oddsmath.IsValidPrice(snap.Fighter2Price) {
		vig := oddsmath.MarketVig(snap.Fighter1Price, snap.Fighter2Price)
		if vig < 0 {
			findings = append(findings, models.Finding{
				Field:    "moneyline",
				Severity: models.SeverityWarning,
				Message:  fmt.Sprintf("negative margin %.4f at %s, likely stale quote", vig, snap.Bookmaker),
			})
		} else if vig > 0.20 {
			findings = append(findings, models.Finding{
				Field:    "moneyline",
				Severity: models.SeverityWarning,
				Message:  fmt.Sprintf("margin %.4f above 20%% at %s", vig, snap.Bookmaker),
			})
		}
	}

	return findings
}

// validateOptionalPrice flags a present-but-malformed optional price
func validateOptionalPrice(field string, price int) []models.Finding {
	if price == 0 || oddsmath.IsValidPrice(price) {
		return nil
	}
	return []models.Finding{{
		Field:    field,
		Severity: models.SeverityWarning,
		Message:  fmt.Sprintf("invalid American odds: %d", price),
	}}
}
