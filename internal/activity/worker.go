package activity

import (
	"context"
	"log/slog"
)

// Worker consumes events from the recorder and persists them. A store failure
// is logged and the event dropped; the feed is not a system of record.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run processes events until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "failed to persist activity event",
					"error", err,
					"kind", event.Kind,
				)
			}
		}
	}
}
