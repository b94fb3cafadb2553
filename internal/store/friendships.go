package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

// Friendship is a single edge between two users. Exactly one edge exists per
// unordered pair; direction is kept so a pending request knows who has to
// answer it.
type Friendship struct {
	ID          int64            `json:"id"`
	RequesterID int64            `json:"requester_id"`
	ReceiverID  int64            `json:"receiver_id"`
	Status      FriendshipStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`

	// Joined fields
	RequesterName string `json:"requester_name,omitempty"`
	ReceiverName  string `json:"receiver_name,omitempty"`
}

// Other returns the user on the far side of the edge from userID.
func (f *Friendship) Other(userID int64) int64 {
	if f.RequesterID == userID {
		return f.ReceiverID
	}
	return f.RequesterID
}

type FriendshipsStore struct {
	db *pgxpool.Pool
}

// GetByPair finds the edge between two users regardless of who sent the
// request. Returns ErrNotFound when no edge exists.
func (s *FriendshipsStore) GetByPair(ctx context.Context, a, b int64) (*Friendship, error) {
	query := `
		SELECT id, requester_id, receiver_id, status, created_at
		FROM friendships
		WHERE (requester_id = $1 AND receiver_id = $2)
		   OR (requester_id = $2 AND receiver_id = $1)
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var f Friendship
	err := s.db.QueryRow(ctx, query, a, b).Scan(&f.ID, &f.RequesterID, &f.ReceiverID, &f.Status, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (s *FriendshipsStore) GetByID(ctx context.Context, id int64) (*Friendship, error) {
	query := `
		SELECT id, requester_id, receiver_id, status, created_at
		FROM friendships
		WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var f Friendship
	err := s.db.QueryRow(ctx, query, id).Scan(&f.ID, &f.RequesterID, &f.ReceiverID, &f.Status, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (s *FriendshipsStore) Create(ctx context.Context, f *Friendship) error {
	query := `
		INSERT INTO friendships (requester_id, receiver_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.db.QueryRow(ctx, query, f.RequesterID, f.ReceiverID, f.Status).
		Scan(&f.ID, &f.CreatedAt)
}

// Accept moves a pending edge to accepted. Accepted edges never go back to
// pending.
func (s *FriendshipsStore) Accept(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx,
		`UPDATE friendships SET status = $1 WHERE id = $2 AND status = $3`,
		FriendshipAccepted, id, FriendshipPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the edge entirely. Declining a request deletes rather than
// marking it, so a fresh request can be sent afterward.
func (s *FriendshipsStore) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, `DELETE FROM friendships WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListForUser returns the user's edges in the given status, matching either
// side of the pair.
func (s *FriendshipsStore) ListForUser(ctx context.Context, userID int64, status FriendshipStatus) ([]Friendship, error) {
	query := `
		SELECT f.id, f.requester_id, f.receiver_id, f.status, f.created_at,
		       req.username, rec.username
		FROM friendships f
		JOIN users req ON req.id = f.requester_id
		JOIN users rec ON rec.id = f.receiver_id
		WHERE (f.requester_id = $1 OR f.receiver_id = $1) AND f.status = $2
		ORDER BY f.created_at DESC
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, userID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var friendships []Friendship
	for rows.Next() {
		var f Friendship
		err := rows.Scan(&f.ID, &f.RequesterID, &f.ReceiverID, &f.Status, &f.CreatedAt,
			&f.RequesterName, &f.ReceiverName)
		if err != nil {
			return nil, err
		}
		friendships = append(friendships, f)
	}
	return friendships, rows.Err()
}
