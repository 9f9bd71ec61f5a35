package octagonfeed

import (
	"fmt"
	"time"

	"github.com/XavierBriggs/Ares/pkg/models"
	"github.com/XavierBriggs/Ares/sports/mma_ufc"
)

// Normalize regroups a flat quote list into canonical fights and snapshots.
// It is pure: same feed and receivedAt, same output. Quotes sharing a
// (bout_id, book) pair fold into one snapshot, in first-seen order. A book
// quoting fewer than both moneyline sides yields no snapshot and a warning
// finding.
func Normalize(feed *quoteFeed, receivedAt time.Time) ([]models.Fight, []models.OddsSnapshot, []models.Finding) {
	var fights []models.Fight
	var findings []models.Finding

	generatedAt, err := time.Parse(time.RFC3339, feed.GeneratedAt)
	if err != nil {
		generatedAt = receivedAt
	}

	type groupKey struct {
		boutID string
		book   string
	}

	var groupOrder []groupKey
	groups := make(map[groupKey][]quote)
	seenBouts := make(map[string]bool)

	for _, q := range feed.Quotes {
		if q.BoutID == "" || q.Book == "" {
			findings = append(findings, models.Finding{
				Field:    "quote",
				Severity: models.SeverityWarning,
				Message:  "quote missing bout_id or book, skipped",
			})
			continue
		}

		if !seenBouts[q.BoutID] {
			fights = append(fights, buildFight(q, receivedAt, &findings))
			seenBouts[q.BoutID] = true
		}

		key := groupKey{boutID: q.BoutID, book: q.Book}
		if _, ok := groups[key]; !ok {
			groupOrder = append(groupOrder, key)
		}
		groups[key] = append(groups[key], q)
	}

	fightNames := make(map[string][2]string, len(fights))
	for _, f := range fights {
		fightNames[f.FightID] = [2]string{f.Fighter1, f.Fighter2}
	}

	var snaps []models.OddsSnapshot
	for _, key := range groupOrder {
		names := fightNames[key.boutID]
		snap, groupFindings := buildSnapshot(key.boutID, key.book, groups[key], names[0], names[1], generatedAt, receivedAt)
		findings = append(findings, groupFindings...)
		if snap != nil {
			snaps = append(snaps, *snap)
		}
	}

	return fights, snaps, findings
}

// NormalizeFights converts a discovery payload into fights
func NormalizeFights(feed *eventFeed, receivedAt time.Time) []models.Fight {
	fights := make([]models.Fight, 0, len(feed.Events))

	for _, evt := range feed.Events {
		commenceTime, err := time.Parse(time.RFC3339, evt.StartsAt)
		if err != nil {
			continue // Skip invalid bouts
		}

		fightStatus := "upcoming"
		if receivedAt.After(commenceTime) {
			fightStatus = "live"
		}

		fights = append(fights, models.Fight{
			FightID:      evt.BoutID,
			SportKey:     mma_ufc.SportKey,
			Fighter1:     mma_ufc.NormalizeFighterName(evt.Red),
			Fighter2:     mma_ufc.NormalizeFighterName(evt.Blue),
			EventName:    evt.Card,
			CommenceTime: commenceTime,
			FightStatus:  fightStatus,
		})
	}

	return fights
}

// buildFight extracts the fight identity from the first quote seen for a bout
func buildFight(q quote, receivedAt time.Time, findings *[]models.Finding) models.Fight {
	commenceTime, err := time.Parse(time.RFC3339, q.StartsAt)
	if err != nil {
		commenceTime = receivedAt // Fallback
		*findings = append(*findings, models.Finding{
			Field:    "starts_at",
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("bout %s: unparseable starts_at %q", q.BoutID, q.StartsAt),
		})
	}

	fightStatus := "upcoming"
	if receivedAt.After(commenceTime) {
		fightStatus = "live"
	}

	return models.Fight{
		FightID:      q.BoutID,
		SportKey:     mma_ufc.SportKey,
		Fighter1:     mma_ufc.NormalizeFighterName(q.Red),
		Fighter2:     mma_ufc.NormalizeFighterName(q.Blue),
		EventName:    q.Card,
		CommenceTime: commenceTime,
		FightStatus:  fightStatus,
	}
}

// buildSnapshot folds one book's quotes for one bout into a snapshot.
// Returns nil when the book did not quote both moneyline sides.
func buildSnapshot(boutID, book string, quotes []quote, fighter1, fighter2 string, generatedAt, receivedAt time.Time) (*models.OddsSnapshot, []models.Finding) {
	var findings []models.Finding

	snap := models.OddsSnapshot{
		FightID:          boutID,
		SportKey:         mma_ufc.SportKey,
		Bookmaker:        book,
		Fighter1:         fighter1,
		Fighter2:         fighter2,
		VendorLastUpdate: generatedAt,
		CapturedAt:       receivedAt,
	}

	var gotRed, gotBlue bool
	var latestUpdate time.Time

	for _, q := range quotes {
		if ts, err := time.Parse(time.RFC3339, q.UpdatedAt); err == nil && ts.After(latestUpdate) {
			latestUpdate = ts
		}

		switch mma_ufc.MapVendorMarketKey(q.Market) {
		case mma_ufc.MarketMoneyline:
			switch q.Side {
			case "red":
				snap.Fighter1Price = q.American
				gotRed = true
			case "blue":
				snap.Fighter2Price = q.American
				gotBlue = true
			default:
				findings = append(findings, models.Finding{
					Field:    "h2h",
					Severity: models.SeverityWarning,
					Message:  fmt.Sprintf("bout %s: unknown moneyline side %q", boutID, q.Side),
				})
			}

		case mma_ufc.MarketMethod:
			method, ok := mma_ufc.CanonicalMethod(q.Side)
			if !ok {
				findings = append(findings, models.Finding{
					Field:    "fight_method",
					Severity: models.SeverityWarning,
					Message:  fmt.Sprintf("bout %s: unrecognized method side %q", boutID, q.Side),
				})
				continue
			}
			switch method {
			case mma_ufc.MethodKO:
				snap.Method.KO = q.American
			case mma_ufc.MethodSubmission:
				snap.Method.Submission = q.American
			case mma_ufc.MethodDecision:
				snap.Method.Decision = q.American
			}
		}
		// Other markets (round props and similar) are not carried by this
		// feed's contract and are skipped.
	}

	if !latestUpdate.IsZero() {
		snap.VendorLastUpdate = latestUpdate
	}

	if !gotRed || !gotBlue {
		findings = append(findings, models.Finding{
			Field:    "h2h",
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("bout %s: %s quoted only one moneyline side, snapshot dropped", boutID, book),
		})
		return nil, findings
	}

	return &snap, findings
}

// Feed structures matching the OctagonFeed JSON format

type quoteFeed struct {
	GeneratedAt string  `json:"generated_at"`
	Quotes      []quote `json:"quotes"`
}

type quote struct {
	BoutID    string `json:"bout_id"`
	Card      string `json:"card"`
	Red       string `json:"red"`
	Blue      string `json:"blue"`
	Book      string `json:"book"`
	Market    string `json:"market"`
	Side      string `json:"side"`
	American  int    `json:"american"`
	StartsAt  string `json:"starts_at"`
	UpdatedAt string `json:"updated_at"`
}

type eventFeed struct {
	Events []eventEntry `json:"events"`
}

type eventEntry struct {
	BoutID   string `json:"bout_id"`
	Card     string `json:"card"`
	Red      string `json:"red"`
	Blue     string `json:"blue"`
	StartsAt string `json:"starts_at"`
}
