package store

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Invite is an email invitation to join the radar, sent by an existing user.
type Invite struct {
	ID        int64     `json:"id"`
	SenderID  int64     `json:"sender_id"`
	Email     string    `json:"email"`
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type InvitesStore struct {
	db *pgxpool.Pool
}

func (s *InvitesStore) Create(ctx context.Context, invite *Invite) error {
	query := `
		INSERT INTO invites (sender_id, email, token)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query, invite.SenderID, invite.Email, invite.Token).
		Scan(&invite.ID, &invite.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "invites_sender_id_email_key") {
			return ErrConflict
		}
		return err
	}
	return nil
}
