package favorites

import (
	"context"
	"database/sql"
	"fmt"

	id "culturetrail/pkg/domain"
)

// PostgresStore persists favorites in the favorites table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListFor(ctx context.Context, userID id.UserID) ([]id.SiteID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT site_id FROM favorites
		WHERE user_id = $1
		ORDER BY created_at, site_id`,
		userID.String())
	if err != nil {
		return nil, fmt.Errorf("list favorites for %s: %w", userID, err)
	}
	defer rows.Close()

	var siteIDs []id.SiteID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		siteIDs = append(siteIDs, id.SiteID(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list favorites for %s: %w", userID, err)
	}
	return siteIDs, nil
}

func (s *PostgresStore) Add(ctx context.Context, userID id.UserID, siteID id.SiteID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO favorites (user_id, site_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, site_id) DO NOTHING`,
		userID.String(), siteID.String())
	if err != nil {
		return fmt.Errorf("add favorite %s for %s: %w", siteID, userID, err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, userID id.UserID, siteID id.SiteID) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM favorites WHERE user_id = $1 AND site_id = $2`,
		userID.String(), siteID.String())
	if err != nil {
		return fmt.Errorf("remove favorite %s for %s: %w", siteID, userID, err)
	}
	return nil
}
