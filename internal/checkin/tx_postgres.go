package checkin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	id "culturetrail/pkg/domain"
	dErrors "culturetrail/pkg/domain-errors"
)

// PostgresLedgerTx runs ledger mutations inside a database transaction. The
// FOR UPDATE lock taken by the bound store's Find serializes same-user
// writers, including concurrent first check-ins (Find claims a placeholder
// row when none exists); the userID parameter exists only to satisfy
// LedgerTx.
type PostgresLedgerTx struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresLedgerTx(db *sql.DB) *PostgresLedgerTx {
	return &PostgresLedgerTx{db: db, timeout: defaultLedgerTxTimeout}
}

func (t *PostgresLedgerTx) RunInTx(ctx context.Context, _ id.UserID, fn func(store LedgerStore) error) error {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return translateTxErr(err, "begin ledger tx")
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(NewPostgresLedgerTxStore(tx)); err != nil {
		return translateTxErr(err, "ledger tx")
	}
	if err := tx.Commit(); err != nil {
		return translateTxErr(err, "commit ledger tx")
	}
	return nil
}

func translateTxErr(err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, op+" timed out")
	}
	return fmt.Errorf("%s: %w", op, err)
}
