package fightoddsapi

import (
	"fmt"
	"time"

	"github.com/XavierBriggs/Ares/pkg/models"
	"github.com/XavierBriggs/Ares/sports/mma_ufc"
)

// Normalize converts a vendor odds payload into canonical fights and
// snapshots. It is pure: same payload and receivedAt, same output.
// Bookmakers without a matchable two-sided moneyline yield no snapshot and
// a warning finding; missing method and round markets degrade to the 0
// sentinel on an otherwise complete snapshot.
func Normalize(apiResp []oddsResponse, receivedAt time.Time) ([]models.Fight, []models.OddsSnapshot, []models.Finding) {
	var fights []models.Fight
	var snaps []models.OddsSnapshot
	var findings []models.Finding
	seenFights := make(map[string]bool)

	for _, event := range apiResp {
		fighter1 := mma_ufc.NormalizeFighterName(event.HomeTeam)
		fighter2 := mma_ufc.NormalizeFighterName(event.AwayTeam)

		commenceTime, err := time.Parse(time.RFC3339, event.CommenceTime)
		if err != nil {
			commenceTime = receivedAt // Fallback
			findings = append(findings, models.Finding{
				Field:    "commence_time",
				Severity: models.SeverityWarning,
				Message:  fmt.Sprintf("fight %s: unparseable commence_time %q", event.ID, event.CommenceTime),
			})
		}

		// Extract fight (deduplicate by ID)
		if !seenFights[event.ID] {
			fightStatus := "upcoming"
			if receivedAt.After(commenceTime) {
				fightStatus = "live"
			}

			fights = append(fights, models.Fight{
				FightID:      event.ID,
				SportKey:     event.SportKey,
				Fighter1:     fighter1,
				Fighter2:     fighter2,
				CommenceTime: commenceTime,
				FightStatus:  fightStatus,
			})
			seenFights[event.ID] = true
		}

		for _, bk := range event.Bookmakers {
			snap, bkFindings := normalizeBookmaker(event, bk, fighter1, fighter2, receivedAt)
			findings = append(findings, bkFindings...)
			if snap != nil {
				snaps = append(snaps, *snap)
			}
		}
	}

	return fights, snaps, findings
}

// NormalizeFights converts a discovery payload into fights
func NormalizeFights(apiResp []eventResponse, receivedAt time.Time) []models.Fight {
	fights := make([]models.Fight, 0, len(apiResp))

	for _, evt := range apiResp {
		commenceTime, err := time.Parse(time.RFC3339, evt.CommenceTime)
		if err != nil {
			continue // Skip invalid fights
		}

		fightStatus := "upcoming"
		if receivedAt.After(commenceTime) {
			fightStatus = "live"
		}

		fights = append(fights, models.Fight{
			FightID:      evt.ID,
			SportKey:     evt.SportKey,
			Fighter1:     mma_ufc.NormalizeFighterName(evt.HomeTeam),
			Fighter2:     mma_ufc.NormalizeFighterName(evt.AwayTeam),
			CommenceTime: commenceTime,
			FightStatus:  fightStatus,
		})
	}

	return fights
}

// normalizeBookmaker builds one snapshot from one bookmaker's markets.
// Returns nil when the moneyline cannot be matched to both fighters.
func normalizeBookmaker(event oddsResponse, bk bookmaker, fighter1, fighter2 string, receivedAt time.Time) (*models.OddsSnapshot, []models.Finding) {
	var findings []models.Finding

	vendorUpdate, err := time.Parse(time.RFC3339, bk.LastUpdate)
	if err != nil {
		vendorUpdate = receivedAt
	}

	snap := models.OddsSnapshot{
		FightID:          event.ID,
		SportKey:         event.SportKey,
		Bookmaker:        bk.Key,
		Fighter1:         fighter1,
		Fighter2:         fighter2,
		VendorLastUpdate: vendorUpdate,
		CapturedAt:       receivedAt,
	}

	var gotFighter1, gotFighter2 bool
	for _, mkt := range bk.Markets {
		switch mma_ufc.MapVendorMarketKey(mkt.Key) {
		case mma_ufc.MarketMoneyline:
			for _, out := range mkt.Outcomes {
				switch mma_ufc.NormalizeFighterName(out.Name) {
				case fighter1:
					snap.Fighter1Price = out.Price
					gotFighter1 = true
				case fighter2:
					snap.Fighter2Price = out.Price
					gotFighter2 = true
				default:
					findings = append(findings, models.Finding{
						Field:    "h2h",
						Severity: models.SeverityWarning,
						Message:  fmt.Sprintf("fight %s: outcome %q matches neither fighter", event.ID, out.Name),
					})
				}
			}

		case mma_ufc.MarketMethod:
			for _, out := range mkt.Outcomes {
				method, ok := mma_ufc.CanonicalMethod(out.Name)
				if !ok {
					findings = append(findings, models.Finding{
						Field:    "fight_method",
						Severity: models.SeverityWarning,
						Message:  fmt.Sprintf("fight %s: unrecognized method outcome %q", event.ID, out.Name),
					})
					continue
				}
				switch method {
				case mma_ufc.MethodKO:
					snap.Method.KO = out.Price
				case mma_ufc.MethodSubmission:
					snap.Method.Submission = out.Price
				case mma_ufc.MethodDecision:
					snap.Method.Decision = out.Price
				}
			}

		case mma_ufc.MarketRounds:
			for _, out := range mkt.Outcomes {
				snap.Rounds = append(snap.Rounds, models.RoundPrice{
					Outcome: out.Name,
					Price:   out.Price,
				})
			}
		}
	}

	if !gotFighter1 || !gotFighter2 {
		findings = append(findings, models.Finding{
			Field:    "h2h",
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("fight %s: %s offers no two-sided moneyline, snapshot dropped", event.ID, bk.Key),
		})
		return nil, findings
	}

	return &snap, findings
}

// API response structures matching the Fight Odds API JSON format

type oddsResponse struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title"`
	CommenceTime string      `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []bookmaker `json:"bookmakers"`
}

type bookmaker struct {
	Key        string   `json:"key"`
	Title      string   `json:"title"`
	LastUpdate string   `json:"last_update"`
	Markets    []market `json:"markets"`
}

type market struct {
	Key        string    `json:"key"`
	LastUpdate string    `json:"last_update"`
	Outcomes   []outcome `json:"outcomes"`
}

type outcome struct {
	Name  string `json:"name"`
	Price int    `json:"price"`
}

type eventResponse struct {
	ID           string `json:"id"`
	SportKey     string `json:"sport_key"`
	SportTitle   string `json:"sport_title"`
	CommenceTime string `json:"commence_time"`
	HomeTeam     string `json:"home_team"`
	AwayTeam     string `json:"away_team"`
}
