package geo_test

import (
	"math"
	"testing"

	"pulso/internal/geo"
)

func TestDistanceSymmetry(t *testing.T) {
	pairs := [][4]float64{
		{-23.5505, -46.6333, -22.9068, -43.1729}, // São Paulo ↔ Rio
		{0, 0, 0, 1},
		{51.5074, -0.1278, 48.8566, 2.3522}, // London ↔ Paris
		{-33.8688, 151.2093, 35.6762, 139.6503},
	}
	for _, p := range pairs {
		ab := geo.Distance(p[0], p[1], p[2], p[3])
		ba := geo.Distance(p[2], p[3], p[0], p[1])
		if ab != ba {
			t.Errorf("distance not symmetric: %f != %f", ab, ba)
		}
	}
}

func TestDistanceZero(t *testing.T) {
	if d := geo.Distance(-23.5505, -46.6333, -23.5505, -46.6333); d != 0 {
		t.Errorf("expected zero distance for identical points, got %f", d)
	}
}

func TestDistanceKnownFixtures(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64 // meters
	}{
		// 0.01 degree of latitude along a meridian ≈ 1.112 km
		{"meridian 1km", 0, 0, 0.009, 0, 1000.7},
		{"meridian 10km", -23.5, -46.6, -23.59, -46.6, 10007.5},
		// one degree of longitude at the equator ≈ 111.19 km
		{"equator 1deg", 0, 0, 0, 1, 111195.0},
	}
	for _, tt := range tests {
		got := geo.Distance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
		if math.Abs(got-tt.want)/tt.want > 0.01 {
			t.Errorf("%s: expected ~%.1fm (±1%%), got %.1fm", tt.name, tt.want, got)
		}
	}
}

func TestBoundingBoxExpand(t *testing.T) {
	box := geo.BoundingBox{North: -23.5, South: -23.6, East: -46.6, West: -46.7}
	expanded := box.Expand(0.01)

	if expanded.North != -23.49 || expanded.South != -23.61 {
		t.Errorf("unexpected lat expansion: %+v", expanded)
	}
	if expanded.East != -46.59 || expanded.West != -46.71 {
		t.Errorf("unexpected lng expansion: %+v", expanded)
	}

	edge := geo.Point{Lat: -23.605, Lng: -46.705}
	if box.Contains(edge) {
		t.Errorf("original box should not contain edge point")
	}
	if !expanded.Contains(edge) {
		t.Errorf("expanded box should contain edge point")
	}
}
