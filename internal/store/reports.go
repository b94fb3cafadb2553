package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Report is a user flag against a venue listing (wrong data, closed down,
// offensive content). Stored for moderation; nothing in the read path acts
// on it.
type Report struct {
	ID        int64     `json:"id"`
	VenueID   string    `json:"venue_id"`
	UserID    int64     `json:"user_id"`
	Reason    string    `json:"reason"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ReportsStore struct {
	db *pgxpool.Pool
}

func (s *ReportsStore) Create(ctx context.Context, report *Report) error {
	query := `
		INSERT INTO reports (venue_id, user_id, reason, detail)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.db.QueryRow(ctx, query, report.VenueID, report.UserID, report.Reason, report.Detail).
		Scan(&report.ID, &report.CreatedAt)
}
