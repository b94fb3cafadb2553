package geofence_test

import (
	"errors"
	"math"
	"testing"

	"pulso/internal/geo"
	"pulso/internal/geofence"
)

// metersToLatDegrees converts a meridian distance to degrees of latitude.
// Shaved by a micrometer so the exact-boundary fixture lands on the inclusive
// side instead of depending on float rounding direction.
func metersToLatDegrees(m float64) float64 {
	return (m - 1e-6) / (6371000 * math.Pi / 180)
}

func TestGuardBoundary(t *testing.T) {
	guard := geofence.NewGuard()
	venue := geo.Point{Lat: -23.5505, Lng: -46.6333}

	tests := []struct {
		name   string
		meters float64
		want   error
	}{
		{"at 299m", 299, nil},
		{"at 300m", 300, nil},
		{"at 301m", 301, geofence.ErrTooFar},
		{"far away", 5000, geofence.ErrTooFar},
		{"on top of the venue", 0, nil},
	}
	for _, tt := range tests {
		user := geo.Point{Lat: venue.Lat + metersToLatDegrees(tt.meters), Lng: venue.Lng}
		err := guard.Check(&user, venue)
		if !errors.Is(err, tt.want) && err != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestGuardNoPosition(t *testing.T) {
	guard := geofence.NewGuard()
	venue := geo.Point{Lat: -23.5505, Lng: -46.6333}

	err := guard.Check(nil, venue)
	if !errors.Is(err, geofence.ErrNoPosition) {
		t.Fatalf("expected ErrNoPosition, got %v", err)
	}
	if errors.Is(err, geofence.ErrTooFar) {
		t.Errorf("no-position must be distinct from too-far")
	}
	if guard.CanInteract(nil, venue) {
		t.Errorf("CanInteract must deny without a position")
	}
}
