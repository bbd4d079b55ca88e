package checkin

import (
	"context"

	id "culturetrail/pkg/domain"
)

// LedgerStore persists visit ledgers, one document per user.
type LedgerStore interface {
	// Find returns the user's ledger or sentinel.ErrNotFound.
	Find(ctx context.Context, userID id.UserID) (*VisitLedger, error)
	// Save writes the whole ledger document in one atomic operation.
	Save(ctx context.Context, ledger *VisitLedger) error
	// ListAll returns every ledger; the leaderboard scans them.
	ListAll(ctx context.Context) ([]*VisitLedger, error)
}

// LedgerTx serializes ledger mutations per user. Two concurrent check-ins for
// the same user must not both observe "not yet visited"; implementations use
// sharded mutexes (memory) or row locks inside a transaction (Postgres).
// Different users never contend.
type LedgerTx interface {
	RunInTx(ctx context.Context, userID id.UserID, fn func(store LedgerStore) error) error
}
