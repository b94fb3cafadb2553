package social_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"pulso/internal/social"
	"pulso/internal/store"
)

// memEdges is an in-memory EdgeStore honoring the one-edge-per-pair rule.
type memEdges struct {
	nextID int64
	edges  map[int64]*store.Friendship
}

func newMemEdges() *memEdges {
	return &memEdges{edges: map[int64]*store.Friendship{}}
}

func (m *memEdges) GetByPair(_ context.Context, a, b int64) (*store.Friendship, error) {
	for _, e := range m.edges {
		if (e.RequesterID == a && e.ReceiverID == b) || (e.RequesterID == b && e.ReceiverID == a) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memEdges) GetByID(_ context.Context, id int64) (*store.Friendship, error) {
	e, ok := m.edges[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memEdges) Create(_ context.Context, f *store.Friendship) error {
	m.nextID++
	f.ID = m.nextID
	cp := *f
	m.edges[f.ID] = &cp
	return nil
}

func (m *memEdges) Accept(_ context.Context, id int64) error {
	e, ok := m.edges[id]
	if !ok || e.Status != store.FriendshipPending {
		return store.ErrNotFound
	}
	e.Status = store.FriendshipAccepted
	return nil
}

func (m *memEdges) Delete(_ context.Context, id int64) error {
	if _, ok := m.edges[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.edges, id)
	return nil
}

func (m *memEdges) ListForUser(_ context.Context, userID int64, status store.FriendshipStatus) ([]store.Friendship, error) {
	var out []store.Friendship
	for _, e := range m.edges {
		if e.Status == status && (e.RequesterID == userID || e.ReceiverID == userID) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func newService() (*social.Service, *memEdges) {
	edges := newMemEdges()
	return social.NewService(edges, zap.NewNop().Sugar()), edges
}

func TestSendRequestRejectsSelfAndGuest(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.SendRequest(ctx, 1, 1); !errors.Is(err, social.ErrSelfRequest) {
		t.Errorf("expected ErrSelfRequest, got %v", err)
	}
	if _, err := svc.SendRequest(ctx, 0, 2); !errors.Is(err, social.ErrGuestIdentity) {
		t.Errorf("expected ErrGuestIdentity, got %v", err)
	}
}

func TestSendRequestDuplicateStates(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	edge, err := svc.SendRequest(ctx, 1, 2)
	if err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	if edge.Status != store.FriendshipPending {
		t.Errorf("new edge must be pending, got %s", edge.Status)
	}

	// Same direction again: already sent.
	if _, err := svc.SendRequest(ctx, 1, 2); !errors.Is(err, social.ErrRequestSent) {
		t.Errorf("expected ErrRequestSent, got %v", err)
	}
	// Opposite direction: the receiver already has one waiting.
	if _, err := svc.SendRequest(ctx, 2, 1); !errors.Is(err, social.ErrRequestReceived) {
		t.Errorf("expected ErrRequestReceived, got %v", err)
	}

	// After acceptance: already friends, from either side.
	if err := svc.Respond(ctx, edge.ID, 2, true); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := svc.SendRequest(ctx, 1, 2); !errors.Is(err, social.ErrAlreadyFriends) {
		t.Errorf("expected ErrAlreadyFriends, got %v", err)
	}
	if _, err := svc.SendRequest(ctx, 2, 1); !errors.Is(err, social.ErrAlreadyFriends) {
		t.Errorf("expected ErrAlreadyFriends from the other side, got %v", err)
	}
}

func TestRespondRejectDeletesEdge(t *testing.T) {
	svc, edges := newService()
	ctx := context.Background()

	edge, _ := svc.SendRequest(ctx, 1, 2)
	if err := svc.Respond(ctx, edge.ID, 2, false); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if len(edges.edges) != 0 {
		t.Fatalf("reject must delete the edge entirely, %d left", len(edges.edges))
	}

	// A fresh request after decline succeeds.
	if _, err := svc.SendRequest(ctx, 1, 2); err != nil {
		t.Errorf("request after decline must succeed, got %v", err)
	}
}

func TestRespondOnlyReceiverMayAnswer(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	edge, _ := svc.SendRequest(ctx, 1, 2)
	if err := svc.Respond(ctx, edge.ID, 1, true); !errors.Is(err, social.ErrNotReceiver) {
		t.Errorf("the requester must not accept their own request, got %v", err)
	}
	if err := svc.Respond(ctx, edge.ID, 3, true); !errors.Is(err, social.ErrNotReceiver) {
		t.Errorf("a third party must not respond, got %v", err)
	}
}

func TestSymmetricLookup(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	a, _ := svc.SendRequest(ctx, 1, 2)
	svc.Respond(ctx, a.ID, 2, true)
	b, _ := svc.SendRequest(ctx, 3, 1)
	svc.Respond(ctx, b.ID, 1, true)

	friends, err := svc.Friends(ctx, 1)
	if err != nil {
		t.Fatalf("friends lookup failed: %v", err)
	}
	if len(friends) != 2 {
		t.Fatalf("user 1 should see both edges regardless of direction, got %d", len(friends))
	}

	rel, _ := svc.RelationBetween(ctx, 2, 1)
	if rel != social.RelationFriends {
		t.Errorf("expected friends relation, got %s", rel)
	}
}

func TestRelationDirections(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	svc.SendRequest(ctx, 1, 2)

	if rel, _ := svc.RelationBetween(ctx, 1, 2); rel != social.RelationPendingSent {
		t.Errorf("requester side should read pending_sent, got %s", rel)
	}
	if rel, _ := svc.RelationBetween(ctx, 2, 1); rel != social.RelationPendingReceived {
		t.Errorf("receiver side should read pending_received, got %s", rel)
	}
	if rel, _ := svc.RelationBetween(ctx, 1, 3); rel != social.RelationNone {
		t.Errorf("strangers should read none, got %s", rel)
	}
}

func TestUnfriend(t *testing.T) {
	svc, edges := newService()
	ctx := context.Background()

	edge, _ := svc.SendRequest(ctx, 1, 2)
	svc.Respond(ctx, edge.ID, 2, true)

	if err := svc.Unfriend(ctx, edge.ID, 3); !errors.Is(err, social.ErrNotParticipant) {
		t.Errorf("outsiders must not unfriend, got %v", err)
	}
	if err := svc.Unfriend(ctx, edge.ID, 1); err != nil {
		t.Fatalf("unfriend failed: %v", err)
	}
	if len(edges.edges) != 0 {
		t.Errorf("edge must be gone after unfriend")
	}
}
