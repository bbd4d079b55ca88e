package checkin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	id "culturetrail/pkg/domain"
	"culturetrail/pkg/platform/sentinel"
)

// The ledger persists as one JSONB document per user. Denormalizing visits
// and progress into a single row is what makes a check-in update atomic
// without a cross-table transaction: the row lock taken by Find(FOR UPDATE)
// inside a transaction serializes same-user writers.

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PostgresLedgerStore reads and writes visit_ledgers rows. The zero read path
// (outside a transaction) is used by progress and leaderboard; the locking
// variant from NewPostgresLedgerTxStore is used inside check-in transactions.
type PostgresLedgerStore struct {
	q         querier
	forUpdate bool
}

func NewPostgresLedgerStore(db *sql.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{q: db}
}

// NewPostgresLedgerTxStore binds the store to an open transaction and makes
// Find take a row lock.
func NewPostgresLedgerTxStore(tx *sql.Tx) *PostgresLedgerStore {
	return &PostgresLedgerStore{q: tx, forUpdate: true}
}

func (s *PostgresLedgerStore) Find(ctx context.Context, userID id.UserID) (*VisitLedger, error) {
	query := `SELECT doc FROM visit_ledgers WHERE user_id = $1`
	if s.forUpdate {
		query += ` FOR UPDATE`
	}

	var raw []byte
	err := s.q.QueryRowContext(ctx, query, userID.String()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) && s.forUpdate {
		// No row means FOR UPDATE locked nothing, so two first check-ins
		// could both bootstrap and the later Save would overwrite the
		// earlier one. Claim a placeholder row (NULL doc), then re-read
		// under the lock; a concurrent claimer blocks on the unique index
		// until this transaction commits.
		if _, err := s.q.ExecContext(ctx, `
			INSERT INTO visit_ledgers (user_id, doc, updated_at)
			VALUES ($1, NULL, NOW())
			ON CONFLICT (user_id) DO NOTHING`,
			userID.String()); err != nil {
			return nil, fmt.Errorf("claim ledger row for %s: %w", userID, err)
		}
		err = s.q.QueryRowContext(ctx, query, userID.String()).Scan(&raw)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find ledger for %s: %w", userID, err)
	}
	if raw == nil {
		return nil, sentinel.ErrNotFound
	}

	var ledger VisitLedger
	if err := json.Unmarshal(raw, &ledger); err != nil {
		return nil, fmt.Errorf("decode ledger for %s: %w", userID, err)
	}
	return &ledger, nil
}

func (s *PostgresLedgerStore) Save(ctx context.Context, ledger *VisitLedger) error {
	raw, err := json.Marshal(ledger)
	if err != nil {
		return fmt.Errorf("encode ledger for %s: %w", ledger.UserID, err)
	}
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO visit_ledgers (user_id, doc, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()`,
		ledger.UserID.String(), raw)
	if err != nil {
		return fmt.Errorf("save ledger for %s: %w", ledger.UserID, err)
	}
	return nil
}

func (s *PostgresLedgerStore) ListAll(ctx context.Context) ([]*VisitLedger, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT doc FROM visit_ledgers WHERE doc IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("list ledgers: %w", err)
	}
	defer rows.Close()

	var ledgers []*VisitLedger
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		var ledger VisitLedger
		if err := json.Unmarshal(raw, &ledger); err != nil {
			return nil, fmt.Errorf("decode ledger: %w", err)
		}
		ledgers = append(ledgers, &ledger)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ledgers: %w", err)
	}
	return ledgers, nil
}
