package social

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"pulso/internal/store"
)

// Relation is one user's view of an edge: the same pending edge reads as
// "sent" from one side and "received" from the other.
type Relation string

const (
	RelationNone            Relation = "none"
	RelationPendingSent     Relation = "pending_sent"
	RelationPendingReceived Relation = "pending_received"
	RelationFriends         Relation = "friends"
)

var (
	ErrSelfRequest     = errors.New("cannot send a friend request to yourself")
	ErrGuestIdentity   = errors.New("guest users cannot send friend requests")
	ErrAlreadyFriends  = errors.New("you are already friends")
	ErrRequestSent     = errors.New("friend request already sent")
	ErrRequestReceived = errors.New("this user already sent you a request")
	ErrNotParticipant  = errors.New("not a participant of this friendship")
	ErrNotReceiver     = errors.New("only the receiver can respond to a request")
)

// EdgeStore is the slice of storage the state machine runs on.
type EdgeStore interface {
	GetByPair(ctx context.Context, a, b int64) (*store.Friendship, error)
	GetByID(ctx context.Context, id int64) (*store.Friendship, error)
	Create(ctx context.Context, f *store.Friendship) error
	Accept(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	ListForUser(ctx context.Context, userID int64, status store.FriendshipStatus) ([]store.Friendship, error)
}

// Service drives the friendship lifecycle:
// none → pending → accepted, or pending → deleted on decline/cancel.
// Accepted edges never go back to pending; declined edges disappear so a
// fresh request can follow.
type Service struct {
	edges  EdgeStore
	logger *zap.SugaredLogger
}

func NewService(edges EdgeStore, logger *zap.SugaredLogger) *Service {
	return &Service{edges: edges, logger: logger}
}

// SendRequest creates a pending edge from requester to receiver. Each
// conflicting prior state gets its own error so the client can phrase it.
func (s *Service) SendRequest(ctx context.Context, requesterID, receiverID int64) (*store.Friendship, error) {
	if requesterID <= 0 {
		return nil, ErrGuestIdentity
	}
	if requesterID == receiverID {
		return nil, ErrSelfRequest
	}

	existing, err := s.edges.GetByPair(ctx, requesterID, receiverID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		switch {
		case existing.Status == store.FriendshipAccepted:
			return nil, ErrAlreadyFriends
		case existing.RequesterID == requesterID:
			return nil, ErrRequestSent
		default:
			return nil, ErrRequestReceived
		}
	}

	edge := &store.Friendship{
		RequesterID: requesterID,
		ReceiverID:  receiverID,
		Status:      store.FriendshipPending,
	}
	if err := s.edges.Create(ctx, edge); err != nil {
		return nil, fmt.Errorf("failed to create friend request: %w", err)
	}
	return edge, nil
}

// Respond accepts or declines a pending request. Accepting flips the edge to
// accepted; declining deletes it entirely rather than marking it.
func (s *Service) Respond(ctx context.Context, edgeID, responderID int64, accept bool) error {
	edge, err := s.edges.GetByID(ctx, edgeID)
	if err != nil {
		return err
	}
	if edge.ReceiverID != responderID {
		return ErrNotReceiver
	}
	if edge.Status == store.FriendshipAccepted {
		return ErrAlreadyFriends
	}

	if accept {
		return s.edges.Accept(ctx, edgeID)
	}
	return s.edges.Delete(ctx, edgeID)
}

// Unfriend removes an accepted edge (or cancels an outgoing pending one).
// Either participant may do it.
func (s *Service) Unfriend(ctx context.Context, edgeID, userID int64) error {
	edge, err := s.edges.GetByID(ctx, edgeID)
	if err != nil {
		return err
	}
	if edge.RequesterID != userID && edge.ReceiverID != userID {
		return ErrNotParticipant
	}
	return s.edges.Delete(ctx, edgeID)
}

// Friends lists the user's accepted edges, matching either side of the pair
// and deduplicated per pair.
func (s *Service) Friends(ctx context.Context, userID int64) ([]store.Friendship, error) {
	edges, err := s.edges.ListForUser(ctx, userID, store.FriendshipAccepted)
	if err != nil {
		return nil, err
	}
	return dedupePairs(edges), nil
}

// PendingRequests lists the user's pending edges in both directions.
func (s *Service) PendingRequests(ctx context.Context, userID int64) ([]store.Friendship, error) {
	edges, err := s.edges.ListForUser(ctx, userID, store.FriendshipPending)
	if err != nil {
		return nil, err
	}
	return dedupePairs(edges), nil
}

// RelationBetween reports viewer's relation to the other user.
func (s *Service) RelationBetween(ctx context.Context, viewerID, otherID int64) (Relation, error) {
	edge, err := s.edges.GetByPair(ctx, viewerID, otherID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RelationNone, nil
		}
		return RelationNone, err
	}

	switch {
	case edge.Status == store.FriendshipAccepted:
		return RelationFriends, nil
	case edge.RequesterID == viewerID:
		return RelationPendingSent, nil
	default:
		return RelationPendingReceived, nil
	}
}

func dedupePairs(edges []store.Friendship) []store.Friendship {
	seen := make(map[[2]int64]bool, len(edges))
	out := edges[:0]
	for _, e := range edges {
		key := [2]int64{e.RequesterID, e.ReceiverID}
		if key[0] > key[1] {
			key[0], key[1] = key[1], key[0]
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}
