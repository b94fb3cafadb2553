package outbox_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pulso/internal/outbox"
	"pulso/internal/store"
)

func newTestOutbox(t *testing.T) *outbox.Outbox {
	t.Helper()
	return outbox.New(filepath.Join(t.TempDir(), "outbox.jsonl"))
}

func TestEnqueuePendingRoundTrip(t *testing.T) {
	ob := newTestOutbox(t)

	first := store.CheckIn{VenueID: "v1", UserID: 7, Price: 2, Crowd: 3, Vibe: 1, Comment: "cheio"}
	second := store.CheckIn{VenueID: "v2", UserID: 7, Price: 1, Crowd: 1, Vibe: 2}

	if err := ob.Enqueue(first); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if err := ob.Enqueue(second); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	pending, err := ob.Pending()
	if err != nil {
		t.Fatalf("pending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending entries, got %d", len(pending))
	}
	if pending[0].CheckIn.VenueID != "v1" || pending[1].CheckIn.VenueID != "v2" {
		t.Errorf("entries out of order: %+v", pending)
	}
	if pending[0].QueuedAt.IsZero() {
		t.Errorf("queued_at must be stamped")
	}
	if pending[0].CheckIn.Crowd != 3 {
		t.Errorf("check-in payload not preserved: %+v", pending[0].CheckIn)
	}
}

func TestPendingOnMissingFile(t *testing.T) {
	ob := outbox.New(filepath.Join(t.TempDir(), "never-written.jsonl"))
	pending, err := ob.Pending()
	if err != nil {
		t.Fatalf("missing file must read as empty, got error: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected no entries, got %d", len(pending))
	}
}

func TestPendingSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outbox.jsonl")
	ob := outbox.New(path)

	if err := ob.Enqueue(store.CheckIn{VenueID: "v1", UserID: 1}); err != nil {
		t.Fatal(err)
	}
	// Simulate a torn write.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("{\"queued_at\": garbage\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()
	if err := ob.Enqueue(store.CheckIn{VenueID: "v2", UserID: 1}); err != nil {
		t.Fatal(err)
	}

	pending, err := ob.Pending()
	if err != nil {
		t.Fatalf("pending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("malformed line should be skipped, expected 2 entries, got %d", len(pending))
	}
}

type fakeSink struct {
	created []store.CheckIn
	failOn  string
}

func (s *fakeSink) Create(_ context.Context, c *store.CheckIn) error {
	if s.failOn != "" && c.VenueID == s.failOn {
		return errors.New("store unavailable")
	}
	s.created = append(s.created, *c)
	return nil
}

func TestDrainReplaysAndTruncates(t *testing.T) {
	ob := newTestOutbox(t)
	for _, id := range []string{"v1", "v2", "v3"} {
		if err := ob.Enqueue(store.CheckIn{VenueID: id, UserID: 9}); err != nil {
			t.Fatal(err)
		}
	}

	sink := &fakeSink{}
	n, err := ob.Drain(context.Background(), sink)
	if err != nil {
		t.Fatalf("drain failed: %v", err)
	}
	if n != 3 || len(sink.created) != 3 {
		t.Fatalf("expected 3 replayed, got n=%d created=%d", n, len(sink.created))
	}

	pending, _ := ob.Pending()
	if len(pending) != 0 {
		t.Errorf("queue should be empty after full drain, got %d", len(pending))
	}
}

func TestDrainKeepsTailOnFailure(t *testing.T) {
	ob := newTestOutbox(t)
	for _, id := range []string{"v1", "v2", "v3"} {
		if err := ob.Enqueue(store.CheckIn{VenueID: id, UserID: 9}); err != nil {
			t.Fatal(err)
		}
	}

	sink := &fakeSink{failOn: "v2"}
	n, err := ob.Drain(context.Background(), sink)
	if err == nil {
		t.Fatalf("expected drain error")
	}
	if n != 1 {
		t.Errorf("expected 1 replayed before failure, got %d", n)
	}

	pending, _ := ob.Pending()
	if len(pending) != 2 {
		t.Fatalf("expected the failed entry and its tail to remain, got %d", len(pending))
	}
	if pending[0].CheckIn.VenueID != "v2" {
		t.Errorf("head of remaining queue should be the failed entry, got %s", pending[0].CheckIn.VenueID)
	}
}
