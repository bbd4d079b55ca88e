package checkin

import (
	"context"
	"sync"
	"time"

	id "culturetrail/pkg/domain"
	dErrors "culturetrail/pkg/domain-errors"
	"culturetrail/pkg/platform/sentinel"
)

// InMemoryLedgerStore keeps ledgers in a map. Snapshots go in and out as deep
// copies so callers can never mutate stored state outside a transaction.
type InMemoryLedgerStore struct {
	mu      sync.RWMutex
	ledgers map[id.UserID]*VisitLedger
}

func NewInMemoryLedgerStore() *InMemoryLedgerStore {
	return &InMemoryLedgerStore{ledgers: make(map[id.UserID]*VisitLedger)}
}

func (s *InMemoryLedgerStore) Find(_ context.Context, userID id.UserID) (*VisitLedger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ledger, ok := s.ledgers[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return ledger.Clone(), nil
}

func (s *InMemoryLedgerStore) Save(_ context.Context, ledger *VisitLedger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[ledger.UserID] = ledger.Clone()
	return nil
}

func (s *InMemoryLedgerStore) ListAll(_ context.Context) ([]*VisitLedger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*VisitLedger, 0, len(s.ledgers))
	for _, ledger := range s.ledgers {
		out = append(out, ledger.Clone())
	}
	return out, nil
}

// numLedgerShards spreads per-user locks so concurrent check-ins by different
// users rarely contend while same-user calls always serialize.
const numLedgerShards = 128

// defaultLedgerTxTimeout bounds a single ledger transaction.
const defaultLedgerTxTimeout = 5 * time.Second

// ShardedLedgerTx provides the per-user transactional boundary over the
// in-memory store using sharded mutexes keyed by a hash of the user id.
type ShardedLedgerTx struct {
	shards  [numLedgerShards]sync.Mutex
	store   *InMemoryLedgerStore
	timeout time.Duration
}

func NewShardedLedgerTx(store *InMemoryLedgerStore) *ShardedLedgerTx {
	return &ShardedLedgerTx{store: store, timeout: defaultLedgerTxTimeout}
}

func (t *ShardedLedgerTx) RunInTx(ctx context.Context, userID id.UserID, fn func(store LedgerStore) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultLedgerTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := int(hashUserID(userID) % numLedgerShards)
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	// Check again after acquiring the lock.
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(t.store)
}

// hashUserID uses FNV-1a for even shard distribution.
func hashUserID(userID id.UserID) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	s := userID.String()
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
