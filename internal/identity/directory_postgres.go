package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "culturetrail/pkg/domain"
	"culturetrail/pkg/platform/sentinel"
)

// PostgresDirectory reads user display data from the users table, which is
// written by the upstream account system.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) Lookup(ctx context.Context, userID id.UserID) (User, error) {
	var u User
	var rawID string
	err := d.db.QueryRowContext(ctx,
		`SELECT id, display_name, created_at FROM users WHERE id = $1`, userID.String(),
	).Scan(&rawID, &u.DisplayName, &u.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, sentinel.ErrNotFound
		}
		return User{}, fmt.Errorf("lookup user %s: %w", userID, err)
	}
	u.ID = id.UserID(rawID)
	return u, nil
}
