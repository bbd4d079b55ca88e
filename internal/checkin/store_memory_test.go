package checkin

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"culturetrail/pkg/platform/sentinel"
)

func TestInMemoryLedgerStore(t *testing.T) {
	ctx := context.Background()

	t.Run("find missing returns not found", func(t *testing.T) {
		store := NewInMemoryLedgerStore()
		_, err := store.Find(ctx, "u1")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("save and find round trip", func(t *testing.T) {
		store := NewInMemoryLedgerStore()
		counts, _ := ledgerFixtures()
		ledger := NewLedger("u1", counts, time.Now())
		require.NoError(t, store.Save(ctx, ledger))

		found, err := store.Find(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, ledger.UserID, found.UserID)
		assert.Len(t, found.CategoryProgress, len(ledger.CategoryProgress))
	})

	t.Run("stored state isolated from caller mutation", func(t *testing.T) {
		store := NewInMemoryLedgerStore()
		counts, sites := ledgerFixtures()
		ledger := NewLedger("u1", counts, time.Now())
		require.NoError(t, store.Save(ctx, ledger))

		// Mutating the original after Save must not leak into the store.
		ledger.RecordVisit(sites[0], counts, time.Now())

		found, err := store.Find(ctx, "u1")
		require.NoError(t, err)
		assert.Empty(t, found.Visits)
	})

	t.Run("list all", func(t *testing.T) {
		store := NewInMemoryLedgerStore()
		counts, _ := ledgerFixtures()
		require.NoError(t, store.Save(ctx, NewLedger("u1", counts, time.Now())))
		require.NoError(t, store.Save(ctx, NewLedger("u2", counts, time.Now())))

		all, err := store.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestShardedLedgerTx(t *testing.T) {
	ctx := context.Background()

	t.Run("serializes same-user mutations", func(t *testing.T) {
		store := NewInMemoryLedgerStore()
		tx := NewShardedLedgerTx(store)
		counts, sites := ledgerFixtures()

		const goroutines = 50
		var wg sync.WaitGroup
		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := tx.RunInTx(ctx, "u1", func(s LedgerStore) error {
					ledger, err := s.Find(ctx, "u1")
					if err != nil {
						ledger = NewLedger("u1", counts, time.Now())
					}
					if ledger.HasVisited(sites[0].ID) {
						return nil
					}
					ledger.RecordVisit(sites[0], counts, time.Now())
					return s.Save(ctx, ledger)
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		ledger, err := store.Find(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, ledger.Visits, 1)
	})

	t.Run("cancelled context aborts", func(t *testing.T) {
		tx := NewShardedLedgerTx(NewInMemoryLedgerStore())
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := tx.RunInTx(cancelled, "u1", func(LedgerStore) error { return nil })
		assert.Error(t, err)
	})
}
