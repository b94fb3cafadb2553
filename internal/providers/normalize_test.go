package providers

import (
	"testing"
	"time"

	"pulso/internal/store"
)

func TestInferCategoryDeterminism(t *testing.T) {
	tests := []struct {
		name      string
		tag       string
		venueName string
		want      store.Category
	}{
		{"nightclub tag wins over name", "nightclub", "Restaurante do João", store.CategoryNightclub},
		{"pub tag", "pub", "Whatever", store.CategoryPub},
		{"biergarten is a pub", "biergarten", "Garten", store.CategoryPub},
		{"restaurant tag", "restaurant", "Clube XYZ", store.CategoryRestaurant},
		{"lounge is a bar", "lounge", "Sky Lounge", store.CategoryBar},
		{"fast food named burger", "fast_food", "Big Burger House", store.CategoryRestaurant},
		{"fast food with bar keyword", "fast_food", "Boteco do Pedro", store.CategoryBar},
		{"fast food snack", "fast_food", "Snack Point", store.CategoryOther},
		{"fast food unknown name", "fast_food", "Esquina 21", store.CategoryOther},
		{"unknown tag, pub name", "", "The Old Pub", store.CategoryPub},
		{"unknown tag, boate name", "whatever", "Boate Azul", store.CategoryNightclub},
		{"unknown tag, grill name", "", "Fogo Grill", store.CategoryRestaurant},
		{"unknown tag, plain name defaults to bar", "", "Seu Domingos", store.CategoryBar},
	}
	for _, tt := range tests {
		if got := InferCategory(tt.tag, tt.venueName); got != tt.want {
			t.Errorf("%s: InferCategory(%q, %q) = %s, want %s", tt.name, tt.tag, tt.venueName, got, tt.want)
		}
	}
}

func TestComposeAddress(t *testing.T) {
	tests := []struct {
		name  string
		parts addressParts
		want  string
	}{
		{"street and number with district", addressParts{Street: "Rua Augusta", HouseNumber: "1500", District: "Consolação"}, "Rua Augusta, 1500 - Consolação"},
		{"street without number, city", addressParts{Street: "Av. Paulista", City: "São Paulo"}, "Av. Paulista - São Paulo"},
		{"district only", addressParts{District: "Lapa"}, "Lapa"},
		{"city only", addressParts{City: "Rio de Janeiro"}, "Rio de Janeiro"},
		{"nothing", addressParts{}, addressUnavailable},
	}
	for _, tt := range tests {
		if got := composeAddress(tt.parts); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestOpenNowSchedules(t *testing.T) {
	at := func(hour int) time.Time {
		return time.Date(2025, 6, 14, hour, 30, 0, 0, time.UTC)
	}
	tests := []struct {
		category store.Category
		hour     int
		want     bool
	}{
		{store.CategoryNightclub, 23, true},
		{store.CategoryNightclub, 3, true}, // crosses midnight
		{store.CategoryNightclub, 12, false},
		{store.CategoryBar, 18, true},
		{store.CategoryBar, 1, true},
		{store.CategoryBar, 5, false},
		{store.CategoryRestaurant, 12, true},
		{store.CategoryRestaurant, 16, false}, // between lunch and dinner
		{store.CategoryRestaurant, 20, true},
		{store.CategoryOther, 10, true},
		{store.CategoryOther, 21, false},
	}
	for _, tt := range tests {
		if got := openNow(tt.category, at(tt.hour)); got != tt.want {
			t.Errorf("openNow(%s, %02dh) = %v, want %v", tt.category, tt.hour, got, tt.want)
		}
	}
}

func TestNormalizeOverpassNode(t *testing.T) {
	el := OverpassElement{
		Type: "node",
		ID:   123,
		Lat:  -23.561,
		Lon:  -46.656,
		Tags: map[string]string{
			"name":             "Bar da Dona Onça",
			"amenity":          "bar",
			"addr:street":      "Av. Ipiranga",
			"addr:housenumber": "200",
			"addr:suburb":      "República",
		},
	}

	v, ok := NormalizeOverpass(el, time.Date(2025, 6, 14, 19, 0, 0, 0, time.UTC))
	if !ok {
		t.Fatalf("expected a venue")
	}
	if v.Category != store.CategoryBar {
		t.Errorf("expected bar category, got %s", v.Category)
	}
	if v.Lat != -23.561 || v.Lng != -46.656 {
		t.Errorf("unexpected coordinates: %f, %f", v.Lat, v.Lng)
	}
	if v.Address != "Av. Ipiranga, 200 - República" {
		t.Errorf("unexpected address: %q", v.Address)
	}
	if !store.IsTemporaryID(v.ID) {
		t.Errorf("provider-sourced venue must carry a temporary id, got %q", v.ID)
	}
	if v.ImageURL == "" {
		t.Errorf("expected a stock image")
	}
	if !v.Open {
		t.Errorf("bar at 19h should be open")
	}
}

func TestNormalizeOverpassWayUsesCenter(t *testing.T) {
	el := OverpassElement{
		Type:   "way",
		ID:     55,
		Center: &OverpassCenter{Lat: -23.55, Lon: -46.64},
		Tags:   map[string]string{"name": "Galeria Club", "amenity": "nightclub"},
	}

	v, ok := NormalizeOverpass(el, time.Now())
	if !ok {
		t.Fatalf("expected a venue")
	}
	if v.Lat != -23.55 || v.Lng != -46.64 {
		t.Errorf("way should use center coordinates, got %f, %f", v.Lat, v.Lng)
	}
}

func TestNormalizeOverpassRejectsNameless(t *testing.T) {
	el := OverpassElement{Type: "node", Lat: -23.5, Lon: -46.6, Tags: map[string]string{"amenity": "bar"}}
	if _, ok := NormalizeOverpass(el, time.Now()); ok {
		t.Errorf("nameless records must be dropped")
	}
}

func TestNormalizeGeoapifyCoordinateOrder(t *testing.T) {
	f := GeoapifyFeature{
		Geometry: GeoapifyGeometry{Coordinates: []float64{-46.656, -23.561}}, // [lon, lat]
		Properties: GeoapifyProperties{
			Name:       "Vila Seu Justino",
			Street:     "Rua Harmonia",
			City:       "São Paulo",
			Categories: []string{"catering.bar"},
		},
	}

	v, ok := NormalizeGeoapify(f, time.Now())
	if !ok {
		t.Fatalf("expected a venue")
	}
	if v.Lat != -23.561 || v.Lng != -46.656 {
		t.Errorf("coordinates must be swapped from [lon, lat], got lat=%f lng=%f", v.Lat, v.Lng)
	}
	if v.Category != store.CategoryBar {
		t.Errorf("expected bar, got %s", v.Category)
	}
}
