package mma_ufc

import (
	"fmt"
	"strings"
	"time"

	"github.com/XavierBriggs/Ares/pkg/models"
)

// ValidateFight checks if an MMA fight record is well formed
func ValidateFight(fight *models.Fight) error {
	if fight.SportKey != "mma_mixed_martial_arts" {
		return fmt.Errorf("invalid sport key: expected mma_mixed_martial_arts, got %s", fight.SportKey)
	}

	if fight.Fighter1 == "" {
		return fmt.Errorf("fighter1 cannot be empty")
	}

	if fight.Fighter2 == "" {
		return fmt.Errorf("fighter2 cannot be empty")
	}

	if fight.Fighter1 == fight.Fighter2 {
		return fmt.Errorf("a fighter cannot face themselves")
	}

	if fight.CommenceTime.Before(time.Now().Add(-24 * time.Hour)) {
		return fmt.Errorf("fight commence time is too far in the past")
	}

	return nil
}

// NormalizeFighterName standardizes fighter names from vendors. Strips
// quoted nicknames (`Jon "Bones" Jones`), collapses whitespace, and maps
// known vendor spellings to one canonical form.
func NormalizeFighterName(name string) string {
	name = stripNickname(name)
	name = strings.Join(strings.Fields(name), " ")

	replacements := map[string]string{
		"Alex Volkanovski":  "Alexander Volkanovski",
		"Sean OMalley":      "Sean O'Malley",
		"Sean O Malley":     "Sean O'Malley",
		"Jiří Procházka":    "Jiri Prochazka",
		"Magomed Ankalayev": "Magomed Ankalaev",
		"Khamzat Chimayev":  "Khamzat Chimaev",
	}

	if normalized, ok := replacements[name]; ok {
		return normalized
	}

	return name
}

// stripNickname removes segments wrapped in double quotes
func stripNickname(name string) string {
	for {
		start := strings.Index(name, `"`)
		if start < 0 {
			return name
		}
		end := strings.Index(name[start+1:], `"`)
		if end < 0 {
			return name
		}
		name = name[:start] + name[start+1+end+1:]
	}
}

// WeightClasses returns the UFC divisions Ares recognizes
func WeightClasses() []string {
	return []string{
		"flyweight",
		"bantamweight",
		"featherweight",
		"lightweight",
		"welterweight",
		"middleweight",
		"light_heavyweight",
		"heavyweight",
		"womens_strawweight",
		"womens_flyweight",
		"womens_bantamweight",
	}
}

// IsValidWeightClass returns true for a recognized division
func IsValidWeightClass(weightClass string) bool {
	for _, wc := range WeightClasses() {
		if wc == weightClass {
			return true
		}
	}
	return false
}

// IsChampionshipRounds returns true for a five round fight
func IsChampionshipRounds(scheduledRounds int) bool {
	return scheduledRounds == 5
}
