package aggregate

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pulso/internal/store"
)

// TrailingWindow is how far back check-ins still count toward a venue's
// rolling averages. Distinct from the 4h staleness threshold on purpose —
// the two constants answer different questions and must stay separate.
const TrailingWindow = 6 * time.Hour

// WriteTimeout bounds the primary write before the outbox fallback kicks in.
const WriteTimeout = 10 * time.Second

// Outcome tells the caller what happened to a submission. Every value is a
// user-visible success; failure is an error.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeDuplicate Outcome = "duplicate" // already checked in: success no-op
	OutcomeQueued    Outcome = "queued"    // stored locally, not yet synced
)

// CheckInStore is the slice of storage the engine writes through.
type CheckInStore interface {
	Create(ctx context.Context, checkIn *store.CheckIn) error
	Exists(ctx context.Context, venueID string, userID int64) (bool, error)
	ListSince(ctx context.Context, venueID string, since time.Time) ([]store.CheckIn, error)
}

// StatsStore receives the recomputed aggregate.
type StatsStore interface {
	UpdateStats(ctx context.Context, venueID string, stats store.VenueStats) error
}

// Queue is the durable local fallback when the primary write path is down.
type Queue interface {
	Enqueue(checkIn store.CheckIn) error
}

// Engine owns check-in submission and the rolling-aggregate recompute.
// Submission never blocks on aggregation: the caller acknowledges the user
// first and triggers Recompute as a background task.
type Engine struct {
	checkIns CheckInStore
	venues   StatsStore
	outbox   Queue
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewEngine(checkIns CheckInStore, venues StatsStore, outbox Queue, logger *zap.SugaredLogger, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		checkIns: checkIns,
		venues:   venues,
		outbox:   outbox,
		logger:   logger,
		now:      now,
	}
}

// Submit records one user's check-in. Duplicate (user, venue) submissions
// succeed without inserting a second row or touching the aggregate. When the
// primary store is unavailable the check-in lands in the local outbox — the
// user's social action never fails on backend availability.
func (e *Engine) Submit(ctx context.Context, checkIn *store.CheckIn) (Outcome, error) {
	exists, err := e.checkIns.Exists(ctx, checkIn.VenueID, checkIn.UserID)
	if err == nil && exists {
		return OutcomeDuplicate, nil
	}
	// An Exists failure is indistinguishable from "store down": fall
	// through and let the write decide.

	writeCtx, cancel := context.WithTimeout(ctx, WriteTimeout)
	defer cancel()

	if err := e.checkIns.Create(writeCtx, checkIn); err != nil {
		e.logger.Warnw("primary check-in write failed, queueing locally",
			"venue_id", checkIn.VenueID, "user_id", checkIn.UserID, "error", err)
		if qErr := e.outbox.Enqueue(*checkIn); qErr != nil {
			return "", qErr
		}
		return OutcomeQueued, nil
	}

	return OutcomeCreated, nil
}

// Recompute rereads the venue's full trailing window and writes the fresh
// averages back. It never keeps running averages: concurrent submissions each
// trigger an independent recompute and the last write converges, since every
// recompute reads the then-current full set.
func (e *Engine) Recompute(ctx context.Context, venueID string) error {
	now := e.now()
	since := now.Add(-TrailingWindow)

	checkIns, err := e.checkIns.ListSince(ctx, venueID, since)
	if err != nil {
		return err
	}

	stats := store.VenueStats{}
	if len(checkIns) > 0 {
		var price, crowd, vibe int
		for _, c := range checkIns {
			price += c.Price
			crowd += c.Crowd
			vibe += c.Vibe
		}
		n := float64(len(checkIns))
		stats = store.VenueStats{
			AvgPrice:    float64(price) / n,
			AvgCrowd:    float64(crowd) / n,
			AvgVibe:     float64(vibe) / n,
			ReviewCount: len(checkIns),
			LastUpdated: &now,
		}
	}
	// Zero check-ins in the window resets the aggregate; LastUpdated stays
	// nil so the classifier reports "no data" instead of a fresh zero.

	return e.venues.UpdateStats(ctx, venueID, stats)
}
