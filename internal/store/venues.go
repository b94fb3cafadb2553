package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pulso/internal/geo"
)

// Category is the closed set of venue kinds the radar knows about.
type Category string

const (
	CategoryBar        Category = "bar"
	CategoryNightclub  Category = "nightclub"
	CategoryPub        Category = "pub"
	CategoryRestaurant Category = "restaurant"
	CategoryOther      Category = "other"
)

// TempIDPrefix marks venues sourced live from an external provider and not
// yet persisted. A temp venue is promoted to a real row the first time any
// check-in targets it.
const TempIDPrefix = "osm-"

// IsTemporaryID reports whether the id belongs to an unpersisted,
// provider-sourced venue.
func IsTemporaryID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// NewTempID mints a synthetic id for a provider-sourced venue.
func NewTempID() string {
	return TempIDPrefix + uuid.NewString()
}

// VenueStats is the rolling aggregate embedded in a venue. Recomputed by the
// aggregation engine, never hand-edited.
type VenueStats struct {
	AvgPrice    float64    `json:"avg_price"`
	AvgCrowd    float64    `json:"avg_crowd"`
	AvgVibe     float64    `json:"avg_vibe"`
	ReviewCount int        `json:"review_count"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

// Venue represents a discoverable place.
type Venue struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Address           string     `json:"address"`
	Category          Category   `json:"category"`
	Lat               float64    `json:"lat"`
	Lng               float64    `json:"lng"`
	ImageURL          string     `json:"image_url,omitempty"`
	Verified          bool       `json:"verified"`
	VerificationCount int        `json:"verification_count"`
	Official          bool       `json:"official"`
	OwnerID           *int64     `json:"owner_id,omitempty"`
	ContactPhone      *string    `json:"contact_phone,omitempty"`
	ContactEmail      *string    `json:"contact_email,omitempty"`
	Stats             VenueStats `json:"stats"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// Derived, never stored.
	Suggestion     bool    `json:"suggestion,omitempty"` // synthetic fallback decoy
	Open           bool    `json:"open"`
	Hours          string  `json:"hours,omitempty"`
	DistanceMeters float64 `json:"distance_meters"`
}

// Position returns the venue's coordinate pair.
func (v *Venue) Position() geo.Point {
	return geo.Point{Lat: v.Lat, Lng: v.Lng}
}

// ClaimInfo is the payload of an approved business claim.
type ClaimInfo struct {
	OwnerID      int64
	ContactPhone string
	ContactEmail string
}

type VenuesStore struct {
	db *pgxpool.Pool
}

const venueColumns = `
	id, name, address, category,
	ST_Y(location::geometry), ST_X(location::geometry),
	image_url, verified, verification_count, official,
	owner_id, contact_phone, contact_email,
	avg_price, avg_crowd, avg_vibe, review_count, stats_updated_at,
	created_at, updated_at`

func (s *VenuesStore) Create(ctx context.Context, venue *Venue) error {
	if venue.ID == "" {
		venue.ID = uuid.NewString()
	}

	query := `
		INSERT INTO venues (id, name, address, category, location, image_url, official, verified, owner_id, contact_phone, contact_email)
		VALUES ($1, $2, $3, $4, ST_SetSRID(ST_MakePoint($5, $6), 4326), $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(
		ctx, query,
		venue.ID,
		venue.Name,
		venue.Address,
		venue.Category,
		venue.Lng, // PostGIS points are (longitude, latitude)
		venue.Lat,
		venue.ImageURL,
		venue.Official,
		venue.Verified,
		venue.OwnerID,
		venue.ContactPhone,
		venue.ContactEmail,
	).Scan(&venue.CreatedAt, &venue.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create venue: %w", err)
	}
	return nil
}

func (s *VenuesStore) GetByID(ctx context.Context, venueID string) (*Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	row := s.db.QueryRow(ctx, query, venueID)
	venue, err := scanVenue(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return venue, nil
}

// ListInBox returns every venue whose coordinates fall inside the box. The
// caller is expected to pass an already-expanded box (discovery adds its own
// buffer so markers on the viewport edge are not clipped).
func (s *VenuesStore) ListInBox(ctx context.Context, box geo.BoundingBox) ([]Venue, error) {
	query := `
		SELECT ` + venueColumns + `
		FROM venues
		WHERE location && ST_MakeEnvelope($1, $2, $3, $4, 4326)
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, box.West, box.South, box.East, box.North)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanVenues(rows)
}

// SearchByName runs a case-insensitive substring search on venue names.
func (s *VenuesStore) SearchByName(ctx context.Context, q string) ([]Venue, error) {
	query := `
		SELECT ` + venueColumns + `
		FROM venues
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY name
		LIMIT 50
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanVenues(rows)
}

// UpdateStats writes back the recomputed rolling aggregate.
func (s *VenuesStore) UpdateStats(ctx context.Context, venueID string, stats VenueStats) error {
	query := `
		UPDATE venues
		SET avg_price = $1, avg_crowd = $2, avg_vibe = $3, review_count = $4, stats_updated_at = $5, updated_at = now()
		WHERE id = $6
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query,
		stats.AvgPrice, stats.AvgCrowd, stats.AvgVibe, stats.ReviewCount, stats.LastUpdated, venueID)
	if err != nil {
		return fmt.Errorf("failed to update venue stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetImage replaces the venue's cover image URL.
func (s *VenuesStore) SetImage(ctx context.Context, venueID, url string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, `UPDATE venues SET image_url = $1, updated_at = now() WHERE id = $2`, url, venueID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkVerified flips the community-verified flag. Called once the vote count
// crosses the threshold; calling it again is harmless.
func (s *VenuesStore) MarkVerified(ctx context.Context, venueID string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.Exec(ctx, `UPDATE venues SET verified = true, updated_at = now() WHERE id = $1`, venueID)
	return err
}

// Claim marks a venue as an official, owner-managed listing.
func (s *VenuesStore) Claim(ctx context.Context, venueID string, info ClaimInfo) error {
	query := `
		UPDATE venues
		SET official = true, verified = true, owner_id = $1, contact_phone = $2, contact_email = $3, updated_at = now()
		WHERE id = $4
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, info.OwnerID, info.ContactPhone, info.ContactEmail, venueID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanVenue(row pgx.Row) (*Venue, error) {
	var v Venue
	err := row.Scan(
		&v.ID, &v.Name, &v.Address, &v.Category,
		&v.Lat, &v.Lng,
		&v.ImageURL, &v.Verified, &v.VerificationCount, &v.Official,
		&v.OwnerID, &v.ContactPhone, &v.ContactEmail,
		&v.Stats.AvgPrice, &v.Stats.AvgCrowd, &v.Stats.AvgVibe, &v.Stats.ReviewCount, &v.Stats.LastUpdated,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func scanVenues(rows pgx.Rows) ([]Venue, error) {
	var venues []Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		venues = append(venues, *v)
	}
	return venues, rows.Err()
}
