package activity

import (
	"context"
	"database/sql"
	"fmt"

	id "culturetrail/pkg/domain"
)

// PostgresStore appends events to the activity_events table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_events (user_id, site_id, site_name, kind, detail, occurred_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6)`,
		event.UserID.String(), event.SiteID.String(), event.SiteName,
		string(event.Kind), event.Detail, event.Timestamp)
	if err != nil {
		return fmt.Errorf("append activity event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, COALESCE(site_id, ''), site_name, kind, detail, occurred_at
		FROM activity_events ORDER BY occurred_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e              Event
			rawUser, rawSite, kind string
		)
		if err := rows.Scan(&rawUser, &rawSite, &e.SiteName, &kind, &e.Detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan activity event: %w", err)
		}
		e.UserID = id.UserID(rawUser)
		e.SiteID = id.SiteID(rawSite)
		e.Kind = Kind(kind)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list activity events: %w", err)
	}
	return events, nil
}
