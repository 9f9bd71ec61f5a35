package octagonfeed

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/Ares/pkg/models"
)

const feedPayload = `{
  "generated_at": "2026-09-12T21:14:00Z",
  "quotes": [
    {"bout_id": "ufc-320-01", "card": "UFC 320", "red": "Ilia Topuria", "blue": "Max Holloway", "book": "draftkings", "market": "moneyline", "side": "red", "american": -185, "starts_at": "2026-09-13T03:00:00Z", "updated_at": "2026-09-12T21:10:00Z"},
    {"bout_id": "ufc-320-01", "card": "UFC 320", "red": "Ilia Topuria", "blue": "Max Holloway", "book": "draftkings", "market": "moneyline", "side": "blue", "american": 160, "starts_at": "2026-09-13T03:00:00Z", "updated_at": "2026-09-12T21:12:00Z"},
    {"bout_id": "ufc-320-01", "card": "UFC 320", "red": "Ilia Topuria", "blue": "Max Holloway", "book": "draftkings", "market": "method", "side": "ko", "american": 150, "starts_at": "2026-09-13T03:00:00Z", "updated_at": "2026-09-12T21:11:00Z"},
    {"bout_id": "ufc-320-01", "card": "UFC 320", "red": "Ilia Topuria", "blue": "Max Holloway", "book": "draftkings", "market": "method", "side": "sub", "american": 450, "starts_at": "2026-09-13T03:00:00Z"},
    {"bout_id": "ufc-320-01", "card": "UFC 320", "red": "Ilia Topuria", "blue": "Max Holloway", "book": "draftkings", "market": "method", "side": "dec", "american": 210, "starts_at": "2026-09-13T03:00:00Z"},
    {"bout_id": "ufc-320-01", "card": "UFC 320", "red": "Ilia Topuria", "blue": "Max Holloway", "book": "fanduel", "market": "moneyline", "side": "red", "american": -190, "starts_at": "2026-09-13T03:00:00Z", "updated_at": "2026-09-12T21:13:00Z"},
    {"bout_id": "ufc-320-01", "card": "UFC 320", "red": "Ilia Topuria", "blue": "Max Holloway", "book": "fanduel", "market": "moneyline", "side": "blue", "american": 165, "starts_at": "2026-09-13T03:00:00Z", "updated_at": "2026-09-12T21:13:00Z"},
    {"bout_id": "ufc-320-02", "card": "UFC 320", "red": "Arman Tsarukyan", "blue": "Dan Hooker", "book": "draftkings", "market": "moneyline", "side": "red", "american": -300, "starts_at": "2026-09-13T04:00:00Z", "updated_at": "2026-09-12T21:09:00Z"},
    {"bout_id": "ufc-320-02", "card": "UFC 320", "red": "Arman Tsarukyan", "blue": "Dan Hooker", "book": "draftkings", "market": "moneyline", "side": "blue", "american": 250, "starts_at": "2026-09-13T04:00:00Z", "updated_at": "2026-09-12T21:09:00Z"}
  ]
}`

func parseFeed(t *testing.T, payload string) *quoteFeed {
	t.Helper()
	var feed quoteFeed
	require.NoError(t, json.Unmarshal([]byte(payload), &feed))
	return &feed
}

func TestNormalizeRegroupsQuotes(t *testing.T) {
	receivedAt := time.Date(2026, 9, 12, 21, 15, 0, 0, time.UTC)

	fights, snaps, findings := Normalize(parseFeed(t, feedPayload), receivedAt)
	assert.Empty(t, findings)

	require.Len(t, fights, 2)
	assert.Equal(t, "ufc-320-01", fights[0].FightID)
	assert.Equal(t, "Ilia Topuria", fights[0].Fighter1)
	assert.Equal(t, "Max Holloway", fights[0].Fighter2)
	assert.Equal(t, "UFC 320", fights[0].EventName)
	assert.Equal(t, "mma_mixed_martial_arts", fights[0].SportKey)
	assert.Equal(t, "upcoming", fights[0].FightStatus)
	assert.Equal(t, "ufc-320-02", fights[1].FightID)

	// One snapshot per (bout, book), in first-seen order.
	require.Len(t, snaps, 3)

	dk := snaps[0]
	assert.Equal(t, "ufc-320-01", dk.FightID)
	assert.Equal(t, "draftkings", dk.Bookmaker)
	assert.Equal(t, -185, dk.Fighter1Price)
	assert.Equal(t, 160, dk.Fighter2Price)
	assert.Equal(t, models.MethodPrices{KO: 150, Submission: 450, Decision: 210}, dk.Method)
	assert.Empty(t, dk.Rounds)
	assert.Equal(t, time.Date(2026, 9, 12, 21, 12, 0, 0, time.UTC), dk.VendorLastUpdate)
	assert.Equal(t, receivedAt, dk.CapturedAt)

	fd := snaps[1]
	assert.Equal(t, "fanduel", fd.Bookmaker)
	assert.Equal(t, -190, fd.Fighter1Price)
	assert.Equal(t, 165, fd.Fighter2Price)
	assert.Equal(t, models.MethodPrices{}, fd.Method)

	assert.Equal(t, "ufc-320-02", snaps[2].FightID)
	assert.Equal(t, "draftkings", snaps[2].Bookmaker)
}

func TestNormalizeIsPure(t *testing.T) {
	receivedAt := time.Date(2026, 9, 12, 21, 15, 0, 0, time.UTC)
	feed := parseFeed(t, feedPayload)

	_, first, _ := Normalize(feed, receivedAt)
	_, second, _ := Normalize(feed, receivedAt)

	assert.Equal(t, first, second)
}

func TestNormalizeOneSidedMoneylineDropsSnapshot(t *testing.T) {
	payload := `{
	  "generated_at": "2026-09-12T21:14:00Z",
	  "quotes": [
	    {"bout_id": "ufc-320-03", "card": "UFC 320", "red": "Merab Dvalishvili", "blue": "Petr Yan", "book": "betmgm", "market": "moneyline", "side": "red", "american": -240, "starts_at": "2026-09-13T02:00:00Z", "updated_at": "2026-09-12T21:00:00Z"}
	  ]
	}`

	receivedAt := time.Date(2026, 9, 12, 21, 15, 0, 0, time.UTC)
	fights, snaps, findings := Normalize(parseFeed(t, payload), receivedAt)

	assert.Len(t, fights, 1)
	assert.Empty(t, snaps)
	require.Len(t, findings, 1)
	assert.Equal(t, "h2h", findings[0].Field)
	assert.Equal(t, models.SeverityWarning, findings[0].Severity)
	assert.Contains(t, findings[0].Message, "betmgm")
}

func TestNormalizeUnknownSides(t *testing.T) {
	payload := `{
	  "generated_at": "2026-09-12T21:14:00Z",
	  "quotes": [
	    {"bout_id": "ufc-320-04", "card": "UFC 320", "red": "Alex Pereira", "blue": "Magomed Ankalaev", "book": "draftkings", "market": "moneyline", "side": "red", "american": 110, "starts_at": "2026-09-13T02:00:00Z"},
	    {"bout_id": "ufc-320-04", "card": "UFC 320", "red": "Alex Pereira", "blue": "Magomed Ankalaev", "book": "draftkings", "market": "moneyline", "side": "blue", "american": -130, "starts_at": "2026-09-13T02:00:00Z"},
	    {"bout_id": "ufc-320-04", "card": "UFC 320", "red": "Alex Pereira", "blue": "Magomed Ankalaev", "book": "draftkings", "market": "moneyline", "side": "draw", "american": 5000, "starts_at": "2026-09-13T02:00:00Z"},
	    {"bout_id": "ufc-320-04", "card": "UFC 320", "red": "Alex Pereira", "blue": "Magomed Ankalaev", "book": "draftkings", "market": "method", "side": "doctor_stoppage", "american": 2500, "starts_at": "2026-09-13T02:00:00Z"}
	  ]
	}`

	receivedAt := time.Date(2026, 9, 12, 21, 15, 0, 0, time.UTC)
	_, snaps, findings := Normalize(parseFeed(t, payload), receivedAt)

	// Unknown sides warn, the snapshot itself survives.
	require.Len(t, snaps, 1)
	assert.Equal(t, 110, snaps[0].Fighter1Price)
	assert.Equal(t, -130, snaps[0].Fighter2Price)

	require.Len(t, findings, 2)
	assert.Equal(t, "h2h", findings[0].Field)
	assert.Contains(t, findings[0].Message, "draw")
	assert.Equal(t, "fight_method", findings[1].Field)
	assert.Contains(t, findings[1].Message, "doctor_stoppage")
}

func TestNormalizeBadStartsAt(t *testing.T) {
	payload := `{
	  "generated_at": "2026-09-12T21:14:00Z",
	  "quotes": [
	    {"bout_id": "ufc-320-05", "card": "UFC 320", "red": "Ilia Topuria", "blue": "Max Holloway", "book": "draftkings", "market": "moneyline", "side": "red", "american": -185, "starts_at": "saturday night"},
	    {"bout_id": "ufc-320-05", "card": "UFC 320", "red": "Ilia Topuria", "blue": "Max Holloway", "book": "draftkings", "market": "moneyline", "side": "blue", "american": 160, "starts_at": "saturday night"}
	  ]
	}`

	receivedAt := time.Date(2026, 9, 12, 21, 15, 0, 0, time.UTC)
	fights, snaps, findings := Normalize(parseFeed(t, payload), receivedAt)

	require.Len(t, fights, 1)
	assert.Equal(t, receivedAt, fights[0].CommenceTime, "fallback to receivedAt")
	assert.Len(t, snaps, 1)

	// The warning fires once per bout, not once per quote.
	require.Len(t, findings, 1)
	assert.Equal(t, "starts_at", findings[0].Field)
}

func TestNormalizeSkipsUnidentifiedQuotes(t *testing.T) {
	payload := `{
	  "generated_at": "2026-09-12T21:14:00Z",
	  "quotes": [
	    {"bout_id": "", "book": "draftkings", "market": "moneyline", "side": "red", "american": -185},
	    {"bout_id": "ufc-320-06", "card": "UFC 320", "red": "Ilia Topuria", "blue": "Max Holloway", "book": "", "market": "moneyline", "side": "red", "american": -185}
	  ]
	}`

	receivedAt := time.Date(2026, 9, 12, 21, 15, 0, 0, time.UTC)
	fights, snaps, findings := Normalize(parseFeed(t, payload), receivedAt)

	assert.Empty(t, fights)
	assert.Empty(t, snaps)
	require.Len(t, findings, 2)
	for _, f := range findings {
		assert.Equal(t, "quote", f.Field)
		assert.Equal(t, models.SeverityWarning, f.Severity)
	}
}

func TestNormalizeVendorLastUpdateFallsBackToGeneratedAt(t *testing.T) {
	payload := `{
	  "generated_at": "2026-09-12T21:14:00Z",
	  "quotes": [
	    {"bout_id": "ufc-320-07", "card": "UFC 320", "red": "Ilia Topuria", "blue": "Max Holloway", "book": "draftkings", "market": "moneyline", "side": "red", "american": -185, "starts_at": "2026-09-13T03:00:00Z"},
	    {"bout_id": "ufc-320-07", "card": "UFC 320", "red": "Ilia Topuria", "blue": "Max Holloway", "book": "draftkings", "market": "moneyline", "side": "blue", "american": 160, "starts_at": "2026-09-13T03:00:00Z"}
	  ]
	}`

	receivedAt := time.Date(2026, 9, 12, 21, 15, 0, 0, time.UTC)
	_, snaps, _ := Normalize(parseFeed(t, payload), receivedAt)

	require.Len(t, snaps, 1)
	assert.Equal(t, time.Date(2026, 9, 12, 21, 14, 0, 0, time.UTC), snaps[0].VendorLastUpdate)
}

func TestNormalizeReconcilesNameVariantsAcrossBooks(t *testing.T) {
	payload := `{
	  "generated_at": "2026-10-02T20:00:00Z",
	  "quotes": [
	    {"bout_id": "ufc-321-01", "card": "UFC 321", "red": "Alex Volkanovski", "blue": "Movsar Evloev", "book": "draftkings", "market": "moneyline", "side": "red", "american": 135, "starts_at": "2026-10-03T03:00:00Z"},
	    {"bout_id": "ufc-321-01", "card": "UFC 321", "red": "Alexander Volkanovski", "blue": "Movsar Evloev", "book": "fanduel", "market": "moneyline", "side": "red", "american": 140, "starts_at": "2026-10-03T03:00:00Z"},
	    {"bout_id": "ufc-321-01", "card": "UFC 321", "red": "Alex Volkanovski", "blue": "Movsar Evloev", "book": "draftkings", "market": "moneyline", "side": "blue", "american": -155, "starts_at": "2026-10-03T03:00:00Z"},
	    {"bout_id": "ufc-321-01", "card": "UFC 321", "red": "Alexander Volkanovski", "blue": "Movsar Evloev", "book": "fanduel", "market": "moneyline", "side": "blue", "american": -160, "starts_at": "2026-10-03T03:00:00Z"}
	  ]
	}`

	receivedAt := time.Date(2026, 10, 2, 20, 30, 0, 0, time.UTC)
	fights, snaps, findings := Normalize(parseFeed(t, payload), receivedAt)

	assert.Empty(t, findings)
	require.Len(t, fights, 1)
	assert.Equal(t, "Alexander Volkanovski", fights[0].Fighter1)

	require.Len(t, snaps, 2)
	for _, snap := range snaps {
		assert.Equal(t, "Alexander Volkanovski", snap.Fighter1)
	}
}

func TestNormalizeFights(t *testing.T) {
	payload := `{
	  "events": [
	    {"bout_id": "ufc-321-01", "card": "UFC 321", "red": "Alexander Volkanovski", "blue": "Movsar Evloev", "starts_at": "2026-10-03T03:00:00Z"},
	    {"bout_id": "ufc-321-02", "card": "UFC 321", "red": "A", "blue": "B", "starts_at": "not-a-time"}
	  ]
	}`

	var feed eventFeed
	require.NoError(t, json.Unmarshal([]byte(payload), &feed))

	fights := NormalizeFights(&feed, time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC))

	// The unparseable entry is skipped in discovery.
	require.Len(t, fights, 1)
	assert.Equal(t, "ufc-321-01", fights[0].FightID)
	assert.Equal(t, "UFC 321", fights[0].EventName)
	assert.Equal(t, "upcoming", fights[0].FightStatus)
}
