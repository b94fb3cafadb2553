package main

import "testing"

func floatPtr(f float64) *float64 {
	return &f
}

func TestCheckInPayloadAcceptsZeroSignalLevels(t *testing.T) {
	// An empty venue is a legal observation: all levels at zero.
	payload := CreateCheckInPayload{
		Price: 0,
		Crowd: 0,
		Vibe:  0,
		Lat:   floatPtr(-23.5505),
		Lng:   floatPtr(-46.6333),
	}

	if err := Validate.Struct(payload); err != nil {
		t.Fatalf("zero signal levels should validate, got %v", err)
	}
}

func TestCheckInPayloadRejectsOutOfRangeLevels(t *testing.T) {
	tests := []struct {
		name    string
		payload CreateCheckInPayload
	}{
		{
			name:    "crowd above scale",
			payload: CreateCheckInPayload{Crowd: 4, Lat: floatPtr(-23.55), Lng: floatPtr(-46.63)},
		},
		{
			name:    "negative vibe",
			payload: CreateCheckInPayload{Vibe: -1, Lat: floatPtr(-23.55), Lng: floatPtr(-46.63)},
		},
		{
			name:    "price above scale",
			payload: CreateCheckInPayload{Price: 9, Lat: floatPtr(-23.55), Lng: floatPtr(-46.63)},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := Validate.Struct(tc.payload); err == nil {
				t.Fatalf("expected validation error for %+v", tc.payload)
			}
		})
	}
}

func TestCheckInPayloadAcceptsZeroCoordinates(t *testing.T) {
	// Equator / prime meridian are valid positions; only a missing
	// coordinate is rejected.
	payload := CreateCheckInPayload{
		Crowd: 2,
		Vibe:  1,
		Lat:   floatPtr(0),
		Lng:   floatPtr(0),
	}

	if err := Validate.Struct(payload); err != nil {
		t.Fatalf("zero coordinates should validate, got %v", err)
	}
}

func TestCheckInPayloadRequiresPosition(t *testing.T) {
	payload := CreateCheckInPayload{Crowd: 2, Vibe: 1, Lng: floatPtr(-46.63)}

	if err := Validate.Struct(payload); err == nil {
		t.Fatal("expected validation error for missing latitude")
	}
}

func TestQuickVotePayloadAcceptsZeroSignalLevels(t *testing.T) {
	payload := QuickVotePayload{
		Price: 0,
		Crowd: 0,
		Vibe:  0,
		Lat:   floatPtr(0),
		Lng:   floatPtr(-46.6333),
	}

	if err := Validate.Struct(payload); err != nil {
		t.Fatalf("zero signal levels should validate, got %v", err)
	}
}

func TestCreateVenuePayloadAcceptsZeroCoordinates(t *testing.T) {
	payload := CreateVenuePayload{
		Name:     "Bar Meridiano",
		Address:  "Av. Principal, 1",
		Category: "bar",
		Lat:      floatPtr(0),
		Lng:      floatPtr(0),
	}

	if err := Validate.Struct(payload); err != nil {
		t.Fatalf("zero coordinates should validate, got %v", err)
	}
}
