package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"culturetrail/internal/checkin"
	"culturetrail/internal/identity"
	"culturetrail/internal/platform/cache"
	"culturetrail/internal/platform/config"
	dErrors "culturetrail/pkg/domain-errors"
	"culturetrail/pkg/platform/sentinel"
	"culturetrail/pkg/requestcontext"
)

// maxEntries caps the board.
const maxEntries = 10

// Service builds the monthly board by scanning all ledgers. The full scan is
// acceptable at this catalog's user counts; the cache keeps it off the hot
// path.
type Service struct {
	ledgers   checkin.LedgerStore
	directory identity.Directory
	cache     cache.Cache
	logger    *slog.Logger
}

func NewService(ledgers checkin.LedgerStore, directory identity.Directory, opts ...Option) (*Service, error) {
	if ledgers == nil {
		return nil, fmt.Errorf("ledger store is required")
	}
	if directory == nil {
		return nil, fmt.Errorf("directory is required")
	}
	s := &Service{
		ledgers:   ledgers,
		directory: directory,
		cache:     cache.Noop{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Option configures optional service collaborators.
type Option func(*Service)

func WithCache(c cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// CacheKey returns the cache key for one month's board.
func CacheKey(month string) string {
	return "leaderboard:" + month
}

// Monthly returns the current month's top visitors. The month window follows
// the server clock; users with no visit inside the window are excluded, as
// are users the directory cannot resolve.
func (s *Service) Monthly(ctx context.Context) (Board, error) {
	now := requestcontext.Now(ctx)
	month := now.Format("2006-01")

	var cached Board
	switch err := s.cache.GetJSON(ctx, CacheKey(month), &cached); {
	case err == nil:
		return cached, nil
	case !errors.Is(err, cache.ErrMiss):
		s.logger.WarnContext(ctx, "leaderboard cache read failed", "error", err)
	}

	ledgers, err := s.ledgers.ListAll(ctx)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeTimeout) {
			return Board{}, err
		}
		return Board{}, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load visit ledgers")
	}

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0)

	type candidate struct {
		ledger *checkin.VisitLedger
		count  int
		latest time.Time
		first  time.Time
	}
	var candidates []candidate
	for _, ledger := range ledgers {
		var c candidate
		c.ledger = ledger
		for _, v := range ledger.Visits {
			if c.first.IsZero() || v.VisitDate.Before(c.first) {
				c.first = v.VisitDate
			}
			if v.VisitDate.Before(start) || !v.VisitDate.Before(end) {
				continue
			}
			c.count++
			if v.VisitDate.After(c.latest) {
				c.latest = v.VisitDate
			}
		}
		if c.count > 0 {
			candidates = append(candidates, c)
		}
	}

	// Ties break toward the more recent visitor.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].count != candidates[j].count {
			return candidates[i].count > candidates[j].count
		}
		return candidates[i].latest.After(candidates[j].latest)
	})

	board := Board{Month: month, Entries: []Entry{}}
	degraded := false
	for _, c := range candidates {
		if len(board.Entries) == maxEntries {
			break
		}
		user, err := s.directory.Lookup(ctx, c.ledger.UserID)
		if err != nil {
			if !errors.Is(err, sentinel.ErrNotFound) {
				degraded = true
				s.logger.WarnContext(ctx, "directory lookup failed, dropping leaderboard entry",
					"error", err,
					"user_id", c.ledger.UserID,
				)
			}
			continue
		}
		board.Entries = append(board.Entries, Entry{
			Rank:              len(board.Entries) + 1,
			DisplayName:       user.DisplayName,
			MonthlyVisitCount: c.count,
			LatestVisitDate:   c.latest,
			// The earliest visit on record stands in for account age; the
			// service never sees the account system's own signup date.
			JoinDate: c.first,
		})
	}

	// A board missing entries to a transient lookup failure must not be
	// served from cache for the TTL after the directory recovers.
	if degraded {
		return board, nil
	}
	if err := s.cache.SetJSON(ctx, CacheKey(month), board, config.LeaderboardCacheTTL); err != nil {
		s.logger.WarnContext(ctx, "leaderboard cache write failed", "error", err)
	}
	return board, nil
}
