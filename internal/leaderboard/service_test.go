package leaderboard

import (
	"context"
	"fmt"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/suite"

	"culturetrail/internal/catalog"
	"culturetrail/internal/checkin"
	"culturetrail/internal/identity"
	"culturetrail/internal/platform/cache"
	id "culturetrail/pkg/domain"
	"culturetrail/pkg/requestcontext"
)

// flakyDirectory fails lookups for selected users the way an unreachable
// upstream would.
type flakyDirectory struct {
	inner *identity.InMemoryDirectory
	fail  map[id.UserID]bool
}

func (d *flakyDirectory) Lookup(ctx context.Context, userID id.UserID) (identity.User, error) {
	if d.fail[userID] {
		return identity.User{}, fmt.Errorf("directory unavailable")
	}
	return d.inner.Lookup(ctx, userID)
}

type fakeCache struct {
	entries map[string][]byte
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (c *fakeCache) GetJSON(_ context.Context, key string, dst any) error {
	raw, ok := c.entries[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(raw, dst)
}

func (c *fakeCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	c.sets++
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

type ServiceSuite struct {
	suite.Suite
	ledgers   *checkin.InMemoryLedgerStore
	directory *identity.InMemoryDirectory
	now       time.Time
	ctx       context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ledgers = checkin.NewInMemoryLedgerStore()
	s.directory = identity.NewInMemoryDirectory()
	s.now = time.Date(2026, time.August, 20, 15, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *ServiceSuite) newService() *Service {
	service, err := NewService(s.ledgers, s.directory)
	s.Require().NoError(err)
	return service
}

// seedUser stores a ledger with one visit per given date and registers the
// user in the directory.
func (s *ServiceSuite) seedUser(userID id.UserID, name string, visitDates ...time.Time) {
	counts := checkin.CountSites(nil)
	ledger := checkin.NewLedger(userID, counts, s.now.AddDate(0, -6, 0))
	for i, date := range visitDates {
		ledger.RecordVisit(catalog.Site{ID: id.SiteID(fmt.Sprintf("%s-site-%d", userID, i))}, counts, date)
	}
	s.Require().NoError(s.ledgers.Save(context.Background(), ledger))
	if name != "" {
		s.directory.Put(identity.User{ID: userID, DisplayName: name})
	}
}

func (s *ServiceSuite) TestRanksByMonthlyCount() {
	aug := func(day int) time.Time { return time.Date(2026, time.August, day, 10, 0, 0, 0, time.UTC) }

	s.seedUser("u1", "Alice", aug(1), aug(2), aug(3))
	s.seedUser("u2", "Bert", aug(5))
	s.seedUser("u3", "Cleo", aug(2), aug(9))

	board, err := s.newService().Monthly(s.ctx)
	s.Require().NoError(err)

	s.Equal("2026-08", board.Month)
	s.Require().Len(board.Entries, 3)
	s.Equal("Alice", board.Entries[0].DisplayName)
	s.Equal(3, board.Entries[0].MonthlyVisitCount)
	s.Equal(1, board.Entries[0].Rank)
	s.Equal("Cleo", board.Entries[1].DisplayName)
	s.Equal("Bert", board.Entries[2].DisplayName)
	s.Equal(3, board.Entries[2].Rank)
}

func (s *ServiceSuite) TestTieBreaksTowardRecentVisit() {
	aug := func(day int) time.Time { return time.Date(2026, time.August, day, 10, 0, 0, 0, time.UTC) }

	s.seedUser("u1", "Alice", aug(1), aug(3))
	s.seedUser("u2", "Bert", aug(2), aug(10))

	board, err := s.newService().Monthly(s.ctx)
	s.Require().NoError(err)

	s.Require().Len(board.Entries, 2)
	s.Equal("Bert", board.Entries[0].DisplayName, "same count, later visit wins")
	s.Equal("Alice", board.Entries[1].DisplayName)
}

func (s *ServiceSuite) TestExcludesVisitsOutsideMonth() {
	july := time.Date(2026, time.July, 30, 10, 0, 0, 0, time.UTC)
	sept := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	aug := time.Date(2026, time.August, 15, 10, 0, 0, 0, time.UTC)

	s.seedUser("u1", "Alice", july, sept)
	s.seedUser("u2", "Bert", july, aug)

	board, err := s.newService().Monthly(s.ctx)
	s.Require().NoError(err)

	s.Require().Len(board.Entries, 1, "users with no visit in the window are excluded")
	s.Equal("Bert", board.Entries[0].DisplayName)
	s.Equal(1, board.Entries[0].MonthlyVisitCount)
}

func (s *ServiceSuite) TestDropsUnresolvableUsers() {
	aug := time.Date(2026, time.August, 15, 10, 0, 0, 0, time.UTC)
	s.seedUser("u1", "Alice", aug)
	s.seedUser("ghost", "", aug, aug.Add(time.Hour))

	board, err := s.newService().Monthly(s.ctx)
	s.Require().NoError(err)

	s.Require().Len(board.Entries, 1)
	s.Equal("Alice", board.Entries[0].DisplayName)
	s.Equal(1, board.Entries[0].Rank, "ranks stay contiguous after a drop")
}

func (s *ServiceSuite) TestCapsAtTen() {
	aug := func(day int) time.Time { return time.Date(2026, time.August, day, 10, 0, 0, 0, time.UTC) }

	for i := 0; i < 15; i++ {
		userID := id.UserID(fmt.Sprintf("u%02d", i))
		dates := make([]time.Time, 0, i+1)
		for d := 0; d <= i; d++ {
			dates = append(dates, aug(1).Add(time.Duration(d)*time.Hour))
		}
		s.seedUser(userID, fmt.Sprintf("User %02d", i), dates...)
	}

	board, err := s.newService().Monthly(s.ctx)
	s.Require().NoError(err)

	s.Require().Len(board.Entries, 10)
	s.Equal("User 14", board.Entries[0].DisplayName)
	s.Equal(15, board.Entries[0].MonthlyVisitCount)
	s.Equal(10, board.Entries[9].Rank)
}

func (s *ServiceSuite) TestJoinDateIsEarliestVisit() {
	july := time.Date(2026, time.July, 10, 9, 0, 0, 0, time.UTC)
	aug := time.Date(2026, time.August, 5, 10, 0, 0, 0, time.UTC)

	s.seedUser("u1", "Alice", july, aug)

	board, err := s.newService().Monthly(s.ctx)
	s.Require().NoError(err)

	s.Require().Len(board.Entries, 1)
	s.Equal(1, board.Entries[0].MonthlyVisitCount, "july visit outside the window")
	s.Equal(july, board.Entries[0].JoinDate, "join date is the earliest visit on record")
}

func (s *ServiceSuite) TestBoardCached() {
	aug := time.Date(2026, time.August, 15, 10, 0, 0, 0, time.UTC)
	s.seedUser("u1", "Alice", aug)

	c := newFakeCache()
	service, err := NewService(s.ledgers, s.directory, WithCache(c))
	s.Require().NoError(err)

	first, err := service.Monthly(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, c.sets)

	s.seedUser("u2", "Bert", aug)
	second, err := service.Monthly(s.ctx)
	s.Require().NoError(err)
	s.Equal(first, second, "second read served from cache")
	s.Equal(1, c.sets)
}

func (s *ServiceSuite) TestTransientLookupFailureSkipsCacheWrite() {
	aug := time.Date(2026, time.August, 15, 10, 0, 0, 0, time.UTC)
	s.seedUser("u1", "Alice", aug, aug.Add(time.Hour))
	s.seedUser("u2", "Bert", aug)

	c := newFakeCache()
	directory := &flakyDirectory{inner: s.directory, fail: map[id.UserID]bool{"u1": true}}
	service, err := NewService(s.ledgers, directory, WithCache(c))
	s.Require().NoError(err)

	board, err := service.Monthly(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(board.Entries, 1, "failed lookup drops the entry")
	s.Equal("Bert", board.Entries[0].DisplayName)
	s.Zero(c.sets, "a board degraded by a lookup failure is not cached")

	directory.fail = nil
	board, err = service.Monthly(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(board.Entries, 2, "recovery visible immediately, not after a TTL")
	s.Equal(1, c.sets)
}

func (s *ServiceSuite) TestEmptyBoard() {
	board, err := s.newService().Monthly(s.ctx)
	s.Require().NoError(err)
	s.Equal("2026-08", board.Month)
	s.Empty(board.Entries)
	s.NotNil(board.Entries, "entries serialize as an array, not null")
}
