package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pulso/internal/geo"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource already exists")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Users interface {
		GetByID(context.Context, int64) (*User, error)
		GetByEmail(context.Context, string) (*User, error)
		Create(context.Context, *User) error
		SetAvatar(context.Context, int64, string) error
		GetRefreshToken(context.Context, int64) (string, error)
		SetRefreshToken(context.Context, int64, string) error
		UpdateProfile(context.Context, int64, map[string]interface{}) error
	}
	Venues interface {
		Create(context.Context, *Venue) error
		GetByID(context.Context, string) (*Venue, error)
		ListInBox(context.Context, geo.BoundingBox) ([]Venue, error)
		SearchByName(context.Context, string) ([]Venue, error)
		UpdateStats(context.Context, string, VenueStats) error
		SetImage(ctx context.Context, venueID, url string) error
		MarkVerified(context.Context, string) error
		Claim(context.Context, string, ClaimInfo) error
	}
	CheckIns interface {
		Create(context.Context, *CheckIn) error
		Exists(ctx context.Context, venueID string, userID int64) (bool, error)
		ListSince(ctx context.Context, venueID string, since time.Time) ([]CheckIn, error)
	}
	Friendships interface {
		GetByPair(ctx context.Context, a, b int64) (*Friendship, error)
		GetByID(context.Context, int64) (*Friendship, error)
		Create(context.Context, *Friendship) error
		Accept(context.Context, int64) error
		Delete(context.Context, int64) error
		ListForUser(ctx context.Context, userID int64, status FriendshipStatus) ([]Friendship, error)
	}
	Verifications interface {
		AddVote(ctx context.Context, venueID string, userID int64) (bool, error)
		CountVotes(ctx context.Context, venueID string) (int, error)
	}
	Invites interface {
		Create(context.Context, *Invite) error
	}
	Reports interface {
		Create(context.Context, *Report) error
	}
	PushTokens interface {
		AddOrUpdate(ctx context.Context, userID int64, token string) error
		Remove(ctx context.Context, userID int64, token string) error
		GetTokensByUserIDs(ctx context.Context, userIDs []int64) (map[int64][]string, error)
	}
}

func NewStorage(db *pgxpool.Pool) Storage {
	return Storage{
		Users:         &UsersStore{db},
		Venues:        &VenuesStore{db},
		CheckIns:      &CheckInsStore{db},
		Friendships:   &FriendshipsStore{db},
		Verifications: &VerificationsStore{db},
		Invites:       &InvitesStore{db},
		Reports:       &ReportsStore{db},
		PushTokens:    &PushTokensStore{db},
	}
}
