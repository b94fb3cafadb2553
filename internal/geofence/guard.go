package geofence

import (
	"errors"

	"pulso/internal/geo"
)

// DefaultMaxRadiusMeters is how close a user must be to a venue before a
// check-in, quick vote or verification is allowed.
const DefaultMaxRadiusMeters = 300.0

var (
	// ErrNoPosition means the user's live position is unknown (GPS off or
	// denied). Distinct from ErrTooFar so the client can phrase it
	// differently.
	ErrNoPosition = errors.New("user position unknown")

	// ErrTooFar means the user is outside the allowed interaction radius.
	ErrTooFar = errors.New("too far from venue")
)

// Guard validates proximity before any mutating interaction with a venue.
// It is checked at every action site, not once per screen: the user may have
// walked away between opening a venue and submitting.
type Guard struct {
	MaxRadiusMeters float64
}

func NewGuard() Guard {
	return Guard{MaxRadiusMeters: DefaultMaxRadiusMeters}
}

// Check returns nil when the user may interact with the venue, ErrNoPosition
// when the position is unknown, and ErrTooFar beyond the radius. Exactly at
// the radius is allowed.
func (g Guard) Check(userPos *geo.Point, venuePos geo.Point) error {
	if userPos == nil {
		return ErrNoPosition
	}
	if geo.DistanceBetween(*userPos, venuePos) > g.MaxRadiusMeters {
		return ErrTooFar
	}
	return nil
}

// CanInteract is the boolean view of Check for callers that only need a
// yes/no.
func (g Guard) CanInteract(userPos *geo.Point, venuePos geo.Point) bool {
	return g.Check(userPos, venuePos) == nil
}
