package outbox

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"pulso/internal/store"
)

// Entry is one pending, not-yet-synced check-in. The JSONL line format is the
// reconciliation contract: anything that drains the queue later must accept
// exactly this shape.
type Entry struct {
	QueuedAt time.Time     `json:"queued_at"`
	CheckIn  store.CheckIn `json:"checkin"`
}

// Outbox is an append-only durable queue of check-ins that could not reach
// the primary store. Writes to it must never fail the user-visible action
// path a second time, so it is a plain local file: one JSON object per line.
type Outbox struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func New(path string) *Outbox {
	return &Outbox{path: path, now: time.Now}
}

// Enqueue appends a check-in to the queue and syncs it to disk.
func (o *Outbox) Enqueue(checkIn store.CheckIn) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	f, err := os.OpenFile(o.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open outbox: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(Entry{QueuedAt: o.now(), CheckIn: checkIn})
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append to outbox: %w", err)
	}
	return f.Sync()
}

// Pending returns every queued entry in insertion order. Malformed lines are
// skipped rather than failing the read — a torn write must not wedge the
// whole queue.
func (o *Outbox) Pending() ([]Entry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.readAll()
}

func (o *Outbox) readAll() ([]Entry, error) {
	f, err := os.Open(o.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}

// Sink is where drained entries go — in production the primary check-in
// store, once it is reachable again.
type Sink interface {
	Create(ctx context.Context, checkIn *store.CheckIn) error
}

// Drain replays queued entries into the sink in order and truncates the
// queue on full success. On partial failure the un-replayed tail is kept.
// Nothing schedules Drain yet; it is the reconciliation contract.
func (o *Outbox) Drain(ctx context.Context, sink Sink) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	entries, err := o.readAll()
	if err != nil {
		return 0, err
	}

	for i, e := range entries {
		checkIn := e.CheckIn
		if err := sink.Create(ctx, &checkIn); err != nil {
			if rewriteErr := o.rewrite(entries[i:]); rewriteErr != nil {
				return i, fmt.Errorf("drain failed at %d (%v) and rewrite failed: %w", i, err, rewriteErr)
			}
			return i, err
		}
	}

	return len(entries), o.rewrite(nil)
}

func (o *Outbox) rewrite(entries []Entry) error {
	tmp := o.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	for _, e := range entries {
		line, err := json.Marshal(e)
		if err != nil {
			f.Close()
			return err
		}
		if _, err := f.Write(append(line, '\n')); err != nil {
			f.Close()
			return err
		}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, o.path)
}
