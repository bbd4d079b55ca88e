package activity

import (
	"context"
	"log/slog"
	"time"
)

// Recorder accepts events from request handling and hands them to the worker
// through a buffered channel. Emit never blocks: when the buffer is full the
// event is dropped and counted against a log line, because check-in latency
// must not depend on the feed.
type Recorder struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewRecorder(buffer int, logger *slog.Logger) *Recorder {
	if buffer <= 0 {
		buffer = 256
	}
	return &Recorder{inbox: make(chan Event, buffer), logger: logger}
}

// Emit queues an event for persistence, stamping the time if unset.
func (r *Recorder) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case r.inbox <- event:
	default:
		r.logger.WarnContext(ctx, "activity feed buffer full, dropping event",
			"kind", event.Kind,
			"user_id", event.UserID,
		)
	}
}

// Inbox exposes the receive side for the worker.
func (r *Recorder) Inbox() <-chan Event { return r.inbox }
