package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CheckIn is one user's point-in-time signal about a venue: price, crowd and
// vibe on a 0–3 scale. Rows are never updated; they simply age out of the
// rolling aggregate once the trailing window passes.
type CheckIn struct {
	ID        int64     `json:"id"`
	VenueID   string    `json:"venue_id"`
	UserID    int64     `json:"user_id"`
	Price     int       `json:"price"`
	Crowd     int       `json:"crowd"`
	Vibe      int       `json:"vibe"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// Joined fields
	Username  string `json:"username,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type CheckInsStore struct {
	db *pgxpool.Pool
}

func (s *CheckInsStore) Create(ctx context.Context, checkIn *CheckIn) error {
	query := `
		INSERT INTO checkins (venue_id, user_id, price, crowd, vibe, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.db.QueryRow(ctx, query,
		checkIn.VenueID,
		checkIn.UserID,
		checkIn.Price,
		checkIn.Crowd,
		checkIn.Vibe,
		checkIn.Comment,
	).Scan(&checkIn.ID, &checkIn.CreatedAt)
}

// Exists reports whether this user already checked in at this venue. The
// duplicate policy upstream treats an existing row as success without
// inserting a second one.
func (s *CheckInsStore) Exists(ctx context.Context, venueID string, userID int64) (bool, error) {
	query := `
		SELECT EXISTS (
		  SELECT 1 FROM checkins
		  WHERE venue_id = $1 AND user_id = $2
		)
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var exists bool
	err := s.db.QueryRow(ctx, query, venueID, userID).Scan(&exists)
	return exists, err
}

// ListSince returns the venue's check-ins created at or after the cutoff,
// newest first. The aggregation engine reads the full trailing window fresh
// on every trigger rather than keeping running averages.
func (s *CheckInsStore) ListSince(ctx context.Context, venueID string, since time.Time) ([]CheckIn, error) {
	query := `
		SELECT c.id, c.venue_id, c.user_id, c.price, c.crowd, c.vibe, c.comment, c.created_at,
		       u.username, COALESCE(u.avatar_url, '')
		FROM checkins c
		JOIN users u ON u.id = c.user_id
		WHERE c.venue_id = $1 AND c.created_at >= $2
		ORDER BY c.created_at DESC
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, venueID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checkIns []CheckIn
	for rows.Next() {
		var c CheckIn
		err := rows.Scan(
			&c.ID, &c.VenueID, &c.UserID, &c.Price, &c.Crowd, &c.Vibe, &c.Comment, &c.CreatedAt,
			&c.Username, &c.AvatarURL,
		)
		if err != nil {
			return nil, err
		}
		checkIns = append(checkIns, c)
	}
	return checkIns, rows.Err()
}
