package activity

import "context"

// Store persists feed events.
type Store interface {
	Append(ctx context.Context, event Event) error
	// ListRecent returns up to limit events, newest first.
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
