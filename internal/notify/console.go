// Package notify fans ingestion events out to operators and downstream
// services: console output, Redis streams, or both.
package notify

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/XavierBriggs/Ares/pkg/contracts"
	"github.com/XavierBriggs/Ares/pkg/models"
)

// Console writes human-readable event lines to a writer
type Console struct {
	out io.Writer
}

// Ensure Console implements Notifier
var _ contracts.Notifier = (*Console)(nil)

// NewConsole creates a notifier that writes to stdout
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter creates a notifier that writes to w, for tests
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

func (c *Console) RateLimitHit(sourceID, limitType string, wait time.Duration) {
	fmt.Fprintf(c.out, "⚠ [%s] %s quota reached, next slot in %v\n",
		sourceID, limitType, wait.Round(time.Millisecond))
}

func (c *Console) CircuitBreakerStateChange(sourceID, from, to string) {
	icon := "⚠"
	if to == "closed" {
		icon = "✓"
	}
	fmt.Fprintf(c.out, "%s [%s] circuit breaker %s -> %s\n", icon, sourceID, from, to)
}

func (c *Console) RetryAttempt(sourceID string, attempt, maxRetries int, backoff time.Duration) {
	fmt.Fprintf(c.out, "⚠ [%s] attempt %d/%d failed, retrying in %v\n",
		sourceID, attempt, maxRetries, backoff.Round(time.Millisecond))
}

func (c *Console) OddsMovement(alert models.MovementAlert) {
	fmt.Fprintf(c.out, "📈 [%s] %s movement on %s vs %s: %s -> %s (%+.1f%%) / %s -> %s (%+.1f%%)\n",
		alert.Bookmaker, alert.MovementType,
		alert.Current.Fighter1, alert.Current.Fighter2,
		formatAmerican(alert.Previous.Fighter1Price), formatAmerican(alert.Current.Fighter1Price), alert.Fighter1Change,
		formatAmerican(alert.Previous.Fighter2Price), formatAmerican(alert.Current.Fighter2Price), alert.Fighter2Change)
}

func (c *Console) ArbitrageDetected(opp models.ArbitrageOpportunity) {
	fmt.Fprintf(c.out, "💰 [%s] arbitrage: %.2f%% guaranteed (implied sum %.4f, expires %s)\n",
		opp.FightID, opp.ProfitPercent, opp.TotalImplied,
		opp.ExpiresAt.Format("15:04:05"))

	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"Fighter", "Book", "Price", "Implied", "Stake"})

	for _, leg := range opp.Legs {
		table.Append([]string{
			leg.Fighter,
			leg.Bookmaker,
			formatAmerican(leg.Price),
			fmt.Sprintf("%.4f", leg.ImpliedProb),
			fmt.Sprintf("$%.2f", leg.Stake),
		})
	}

	table.Render()
	fmt.Fprintf(c.out, "  $%.0f split across %d books\n", opp.ReferenceStake, len(opp.Legs))
}

// formatAmerican renders American odds with their sign, e.g. +160 and -185
func formatAmerican(price int) string {
	if price > 0 {
		return "+" + strconv.Itoa(price)
	}
	return strconv.Itoa(price)
}
