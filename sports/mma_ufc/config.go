package mma_ufc

import (
	"time"
)

// Config contains MMA-specific polling configuration
type Config struct {
	// Sport identification
	SportKey    string
	DisplayName string

	// Odds polling configuration
	Odds OddsConfig

	// Fight discovery configuration
	Discovery DiscoveryConfig

	// Capture closing lines when fights go live
	CaptureClosing bool
}

// OddsConfig defines polling for fight odds markets
type OddsConfig struct {
	// Default polling interval (used by the ingestor)
	PollInterval time.Duration

	// Pre-fight polling interval (>6hr from the card)
	PreMatchInterval time.Duration

	// How many hours before the card to begin ramping
	RampWithinHours float64

	// Target interval near the walkouts
	RampTargetInterval time.Duration

	// In-play polling interval
	InPlayInterval time.Duration
}

// DiscoveryConfig defines the fight discovery sweep
type DiscoveryConfig struct {
	// How often to sweep for newly announced fights
	SweepInterval time.Duration

	// How many hours ahead to discover fights. Cards are announced weeks
	// out but odds rarely firm up more than a few days early.
	WindowHours int
}

// DefaultConfig returns the UFC polling configuration
func DefaultConfig() *Config {
	return &Config{
		SportKey:    SportKey,
		DisplayName: "MMA / UFC",

		Odds: OddsConfig{
			PollInterval:       60 * time.Second,
			PreMatchInterval:   60 * time.Second,
			RampWithinHours:    6.0,
			RampTargetInterval: 30 * time.Second,
			InPlayInterval:     30 * time.Second,
		},

		Discovery: DiscoveryConfig{
			SweepInterval: 6 * time.Hour,
			WindowHours:   72,
		},

		CaptureClosing: true,
	}
}

// GetOddsInterval returns the appropriate polling interval based on hours
// until the fight card starts
func (c *Config) GetOddsInterval(hoursUntilStart float64, isLive bool) time.Duration {
	if isLive {
		return c.Odds.InPlayInterval
	}

	if hoursUntilStart > c.Odds.RampWithinHours {
		return c.Odds.PreMatchInterval
	}

	// Linear ramp from PreMatchInterval to RampTargetInterval
	rampFactor := hoursUntilStart / c.Odds.RampWithinHours
	diff := c.Odds.PreMatchInterval - c.Odds.RampTargetInterval
	return c.Odds.RampTargetInterval + time.Duration(float64(diff)*rampFactor)
}
