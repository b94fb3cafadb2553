package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// VerifiedVoteThreshold is how many distinct community votes flip a venue to
// verified. Official claimed venues skip the count entirely.
const VerifiedVoteThreshold = 10

type VerificationsStore struct {
	db *pgxpool.Pool
}

// AddVote records one user's verification vote for a venue. Idempotent per
// (venue, user): a repeat vote is absorbed by the unique constraint and
// reported as not-inserted.
func (s *VerificationsStore) AddVote(ctx context.Context, venueID string, userID int64) (bool, error) {
	query := `
		INSERT INTO verifications (venue_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (venue_id, user_id) DO NOTHING
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, venueID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *VerificationsStore) CountVotes(ctx context.Context, venueID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var count int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM verifications WHERE venue_id = $1`, venueID).Scan(&count)
	return count, err
}
