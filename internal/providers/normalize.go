package providers

import (
	"fmt"
	"strings"
	"time"

	"pulso/internal/store"
)

// addressUnavailable is the placeholder shown when a source record carries no
// usable address parts at all.
const addressUnavailable = "endereço não disponível"

// categoryRule is one step of the inference decision table. Rules are
// evaluated in order; the first hit wins.
type categoryRule struct {
	name  string
	apply func(tag, venueName string) (store.Category, bool)
}

// exactTagCategories maps unambiguous source tags straight to a category.
var exactTagCategories = map[string]store.Category{
	"nightclub":  store.CategoryNightclub,
	"dance":      store.CategoryNightclub,
	"stripclub":  store.CategoryNightclub,
	"casino":     store.CategoryNightclub,
	"pub":        store.CategoryPub,
	"biergarten": store.CategoryPub,
	"restaurant": store.CategoryRestaurant,
	"food_court": store.CategoryRestaurant,
	"bar":        store.CategoryBar,
	"lounge":     store.CategoryBar,
	"taproom":    store.CategoryBar,
	"beverages":  store.CategoryBar,
	"alcohol":    store.CategoryBar,
	"tobacco":    store.CategoryBar,
}

// ambiguousTags need the venue name to disambiguate.
var ambiguousTags = map[string]bool{
	"fast_food": true,
	"food":      true,
	"cafe":      true,
}

var categoryRules = []categoryRule{
	{
		name: "exact tag",
		apply: func(tag, _ string) (store.Category, bool) {
			c, ok := exactTagCategories[tag]
			return c, ok
		},
	},
	{
		name: "ambiguous tag, name heuristics",
		apply: func(tag, venueName string) (store.Category, bool) {
			if !ambiguousTags[tag] {
				return "", false
			}
			n := strings.ToLower(venueName)
			switch {
			case containsAny(n, "burger", "pizza", "sushi", "lanchonete"):
				return store.CategoryRestaurant, true
			case containsAny(n, "bar", "boteco", "pub", "cervejaria"):
				return store.CategoryBar, true
			case containsAny(n, "snack", "salgado", "pastel"):
				return store.CategoryOther, true
			default:
				return store.CategoryOther, true
			}
		},
	},
	{
		name: "name fallback",
		apply: func(_, venueName string) (store.Category, bool) {
			n := strings.ToLower(venueName)
			switch {
			case containsAny(n, "club", "boate", "balada"):
				return store.CategoryNightclub, true
			case strings.Contains(n, "pub"):
				return store.CategoryPub, true
			case containsAny(n, "bistro", "restaurant", "grill", "pizzeria", "pizzaria", "churrascaria"):
				return store.CategoryRestaurant, true
			default:
				return store.CategoryBar, true
			}
		},
	},
}

// InferCategory runs the ordered decision table over the source tag and the
// venue name. Deterministic: same inputs, same category, always.
func InferCategory(tag, venueName string) store.Category {
	for _, rule := range categoryRules {
		if c, ok := rule.apply(tag, venueName); ok {
			return c
		}
	}
	return store.CategoryBar // unreachable: the last rule always matches
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// addressParts are the pieces a source record may carry.
type addressParts struct {
	Street      string
	HouseNumber string
	District    string
	City        string
}

// composeAddress prefers street+number and appends district or city for
// context; without a street it falls back through district, then city, then
// the placeholder.
func composeAddress(p addressParts) string {
	if p.Street != "" {
		addr := p.Street
		if p.HouseNumber != "" {
			addr = fmt.Sprintf("%s, %s", p.Street, p.HouseNumber)
		}
		switch {
		case p.District != "":
			return fmt.Sprintf("%s - %s", addr, p.District)
		case p.City != "":
			return fmt.Sprintf("%s - %s", addr, p.City)
		default:
			return addr
		}
	}
	if p.District != "" {
		return p.District
	}
	if p.City != "" {
		return p.City
	}
	return addressUnavailable
}

// stockImages is the default image per category, used when the source record
// has none.
var stockImages = map[store.Category]string{
	store.CategoryBar:        "https://images.pulso.app/stock/bar.jpg",
	store.CategoryNightclub:  "https://images.pulso.app/stock/nightclub.jpg",
	store.CategoryPub:        "https://images.pulso.app/stock/pub.jpg",
	store.CategoryRestaurant: "https://images.pulso.app/stock/restaurant.jpg",
	store.CategoryOther:      "https://images.pulso.app/stock/other.jpg",
}

// scheduleWindow is an opening window in local hours; Close < Open means the
// window crosses midnight.
type scheduleWindow struct {
	Open  int
	Close int
}

// categorySchedules is a display heuristic, not authoritative business data:
// typical hours per category, evaluated against the current local hour.
var categorySchedules = map[store.Category][]scheduleWindow{
	store.CategoryNightclub:  {{Open: 22, Close: 6}},
	store.CategoryBar:        {{Open: 17, Close: 2}},
	store.CategoryPub:        {{Open: 17, Close: 2}},
	store.CategoryRestaurant: {{Open: 11, Close: 15}, {Open: 18, Close: 23}},
	store.CategoryOther:      {{Open: 9, Close: 20}},
}

// openNow evaluates the category schedule at the given local time.
func openNow(category store.Category, now time.Time) bool {
	hour := now.Hour()
	for _, w := range categorySchedules[category] {
		if w.Open <= w.Close {
			if hour >= w.Open && hour < w.Close {
				return true
			}
		} else if hour >= w.Open || hour < w.Close {
			return true
		}
	}
	return false
}

// hoursLabel renders the schedule windows as a display string.
func hoursLabel(category store.Category) string {
	windows := categorySchedules[category]
	parts := make([]string, 0, len(windows))
	for _, w := range windows {
		parts = append(parts, fmt.Sprintf("%02d:00–%02d:00", w.Open, w.Close))
	}
	return strings.Join(parts, " / ")
}

// newVenue assembles a normalized, not-yet-persisted venue from source
// pieces. All provider-sourced venues carry a temporary id until the first
// check-in promotes them.
func newVenue(name, tag string, lat, lng float64, addr addressParts, imageURL string, now time.Time) store.Venue {
	category := InferCategory(tag, name)
	if imageURL == "" {
		imageURL = stockImages[category]
	}
	return store.Venue{
		ID:       store.NewTempID(),
		Name:     name,
		Address:  composeAddress(addr),
		Category: category,
		Lat:      lat,
		Lng:      lng,
		ImageURL: imageURL,
		Open:     openNow(category, now),
		Hours:    hoursLabel(category),
	}
}
