package pulse

import "time"

// StaleAfter is how old a venue's aggregate signal may be before it is
// treated as unreliable. Deliberately distinct from the aggregation trailing
// window (6h) — they answer related but different questions and must not be
// unified.
const StaleAfter = 4 * time.Hour

// Tier is the display heat classification of a venue.
type Tier string

const (
	TierPulsing Tier = "pulsing" // bombando
	TierBusy    Tier = "busy"
	TierCalm    Tier = "calm"
	TierOld     Tier = "old" // stale or no data
)

// weighted score factors: crowd dominates vibe.
const (
	crowdWeight = 0.6
	vibeWeight  = 0.4

	pulsingThreshold = 2.3
	busyThreshold    = 1.6
)

// Classification is the render-ready state of a venue's crowd signal.
type Classification struct {
	Stale bool   `json:"stale"`
	Label string `json:"label"`
	Tier  Tier   `json:"tier"`
}

// Classify derives the display classification for a venue's aggregate signal.
// Pure and idempotent — it runs on every marker placement.
func Classify(avgCrowd, avgVibe float64, lastUpdated *time.Time, now time.Time) Classification {
	if lastUpdated == nil {
		return Classification{Stale: true, Label: "sem dados recentes", Tier: TierOld}
	}

	age := now.Sub(*lastUpdated)
	if age >= StaleAfter {
		return Classification{Stale: true, Label: "sem dados recentes", Tier: TierOld}
	}

	c := Classification{Label: ageLabel(age), Tier: tierFor(avgCrowd, avgVibe)}
	return c
}

func ageLabel(age time.Duration) string {
	switch {
	case age < time.Minute:
		return "agora mesmo"
	case age < time.Hour:
		return "atualizado há menos de 1h"
	default:
		return "atualizado há mais de 1h"
	}
}

func tierFor(avgCrowd, avgVibe float64) Tier {
	if avgCrowd == 0 && avgVibe == 0 {
		return TierOld
	}

	score := crowdWeight*avgCrowd + vibeWeight*avgVibe
	switch {
	case score > pulsingThreshold:
		return TierPulsing
	case score > busyThreshold:
		return TierBusy
	default:
		return TierCalm
	}
}
