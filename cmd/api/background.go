package main

import (
	"context"
	"time"
)

// background runs fn on its own goroutine with a fresh timeout context, so
// request-scoped work can be acknowledged before the slow part finishes.
func (app *application) background(name string, fn func(ctx context.Context)) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				app.logger.Errorw("background task panicked", "task", name, "panic", rec)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		fn(ctx)
	}()
}

// drainOutboxEvery5Mins replays locally queued check-ins into the primary
// store whenever it is reachable again.
func (app *application) drainOutboxEvery5Mins() {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			replayed, err := app.outbox.Drain(ctx, app.store.CheckIns)
			cancel()

			if err != nil {
				app.logger.Warnw("outbox drain stopped early", "replayed", replayed, "error", err)
				continue
			}
			if replayed > 0 {
				app.logger.Infow("outbox drained", "replayed", replayed)
			}
		}
	}()
}
