package progress

import (
	"context"
	"fmt"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/suite"

	"culturetrail/internal/catalog"
	"culturetrail/internal/checkin"
	"culturetrail/internal/favorites"
	"culturetrail/internal/platform/cache"
	id "culturetrail/pkg/domain"
	"culturetrail/pkg/platform/sentinel"
)

// fakeCache records reads and writes so tests can observe the read-through.
type fakeCache struct {
	entries map[string][]byte
	gets    int
	sets    int
	failing bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (c *fakeCache) GetJSON(_ context.Context, key string, dst any) error {
	c.gets++
	if c.failing {
		return fmt.Errorf("cache unavailable")
	}
	raw, ok := c.entries[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(raw, dst)
}

func (c *fakeCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	c.sets++
	if c.failing {
		return fmt.Errorf("cache unavailable")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

type failingCatalog struct{}

func (failingCatalog) ListAll(context.Context) ([]catalog.Site, error) {
	return nil, fmt.Errorf("catalog down")
}
func (failingCatalog) FindByID(context.Context, id.SiteID) (catalog.Site, error) {
	return catalog.Site{}, fmt.Errorf("catalog down")
}
func (failingCatalog) DistinctCategories(context.Context) ([]string, error) {
	return nil, fmt.Errorf("catalog down")
}
func (failingCatalog) DistinctDistricts(context.Context) ([]string, error) {
	return nil, fmt.Errorf("catalog down")
}
func (failingCatalog) CountByCategory(context.Context, string) (int, error) {
	return 0, fmt.Errorf("catalog down")
}
func (failingCatalog) CountByDistrict(context.Context, string) (int, error) {
	return 0, fmt.Errorf("catalog down")
}

type failingLedgers struct{}

func (failingLedgers) Find(context.Context, id.UserID) (*checkin.VisitLedger, error) {
	return nil, fmt.Errorf("ledger store down")
}
func (failingLedgers) Save(context.Context, *checkin.VisitLedger) error {
	return fmt.Errorf("ledger store down")
}
func (failingLedgers) ListAll(context.Context) ([]*checkin.VisitLedger, error) {
	return nil, fmt.Errorf("ledger store down")
}

type ServiceSuite struct {
	suite.Suite
	catalog *catalog.InMemoryStore
	ledgers *checkin.InMemoryLedgerStore
	tx      checkin.LedgerTx
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.catalog = catalog.NewInMemoryStore([]catalog.Site{
		{ID: "m1", Name: "Industriemuseum", Category: "museum", District: "zentrum"},
		{ID: "m2", Name: "Kunstsammlungen", Category: "museum", District: "kassberg"},
		{ID: "r1", Name: "Ratskeller", Category: "restaurant", District: "zentrum"},
	})
	s.ledgers = checkin.NewInMemoryLedgerStore()
	s.tx = checkin.NewShardedLedgerTx(s.ledgers)
}

func (s *ServiceSuite) newService(opts ...Option) *Service {
	service, err := NewService(s.catalog, s.ledgers, append([]Option{WithLedgerTx(s.tx)}, opts...)...)
	s.Require().NoError(err)
	return service
}

func (s *ServiceSuite) seedLedger(userID id.UserID, siteIDs ...id.SiteID) {
	ctx := context.Background()
	sites, err := s.catalog.ListAll(ctx)
	s.Require().NoError(err)
	counts := checkin.CountSites(sites)

	byID := make(map[id.SiteID]catalog.Site, len(sites))
	for _, site := range sites {
		byID[site.ID] = site
	}

	// Fixed wall-clock times keep summaries comparable after a JSON round trip.
	base := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	ledger := checkin.NewLedger(userID, counts, base)
	for i, siteID := range siteIDs {
		site, ok := byID[siteID]
		s.Require().True(ok, "unknown fixture site %s", siteID)
		ledger.RecordVisit(site, counts, base.Add(time.Duration(i)*time.Minute))
	}
	s.Require().NoError(s.ledgers.Save(ctx, ledger))
}

func (s *ServiceSuite) TestZeroedSummaryForUnknownUser() {
	summary, err := s.newService().Summary(context.Background(), "stranger")
	s.Require().NoError(err)

	s.Equal(0, summary.TotalVisits)
	s.Equal(0, summary.TotalBadges)
	s.Empty(summary.RecentVisits)
	s.Empty(summary.FavoriteSites)

	s.Require().Len(summary.CategoryProgress, 2)
	s.Equal("museum", summary.CategoryProgress[0].Category)
	s.Equal(2, summary.CategoryProgress[0].TotalSites)
	s.Equal(0, summary.CategoryProgress[0].VisitedCount)
	s.False(summary.CategoryProgress[0].Completed)

	s.Require().Len(summary.DistrictProgress, 2)
	s.Equal("kassberg", summary.DistrictProgress[0].District)

	// The zeroed summary must not create a ledger.
	_, err = s.ledgers.Find(context.Background(), "stranger")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ServiceSuite) TestSummaryReflectsVisits() {
	s.seedLedger("u1", "m1", "m2")

	summary, err := s.newService().Summary(context.Background(), "u1")
	s.Require().NoError(err)

	s.Equal(2, summary.TotalVisits)
	s.Equal(2, summary.TotalBadges, "museum category and kassberg district complete")

	s.Equal("museum", summary.CategoryProgress[0].Category)
	s.Equal(2, summary.CategoryProgress[0].VisitedCount)
	s.True(summary.CategoryProgress[0].Completed)
	s.Equal("restaurant", summary.CategoryProgress[1].Category)
	s.False(summary.CategoryProgress[1].Completed)

	s.Require().Len(summary.RecentVisits, 2)
	s.Equal(id.SiteID("m2"), summary.RecentVisits[0].SiteID, "newest visit first")
	s.Equal("Kunstsammlungen", summary.RecentVisits[0].SiteName)
}

func (s *ServiceSuite) TestRecentVisitsCapped() {
	s.catalog.Replace([]catalog.Site{
		{ID: "a", Name: "A", Category: "museum"},
		{ID: "b", Name: "B", Category: "museum"},
		{ID: "c", Name: "C", Category: "museum"},
		{ID: "d", Name: "D", Category: "museum"},
		{ID: "e", Name: "E", Category: "museum"},
		{ID: "f", Name: "F", Category: "museum"},
		{ID: "g", Name: "G", Category: "museum"},
	})
	s.seedLedger("u1", "a", "b", "c", "d", "e", "f", "g")

	summary, err := s.newService().Summary(context.Background(), "u1")
	s.Require().NoError(err)
	s.Require().Len(summary.RecentVisits, 5)
	s.Equal(id.SiteID("g"), summary.RecentVisits[0].SiteID)
	s.Equal(id.SiteID("c"), summary.RecentVisits[4].SiteID)
}

func (s *ServiceSuite) TestBackfillsRowsForCatalogGrowth() {
	s.seedLedger("u1", "m1")

	// New category and district appear after the ledger exists.
	s.catalog.Add(catalog.Site{ID: "t1", Name: "Stadtpark", Category: "park", District: "sonnenberg"})

	summary, err := s.newService().Summary(context.Background(), "u1")
	s.Require().NoError(err)

	s.Require().Len(summary.CategoryProgress, 3)
	s.Equal("park", summary.CategoryProgress[1].Category)
	s.Equal(1, summary.CategoryProgress[1].TotalSites)
	s.Equal(0, summary.CategoryProgress[1].VisitedCount)

	// The backfill is persisted so the next read needs no healing.
	ledger, err := s.ledgers.Find(context.Background(), "u1")
	s.Require().NoError(err)
	s.Len(ledger.CategoryProgress, 3)
	s.Len(ledger.DistrictProgress, 3)
}

func (s *ServiceSuite) TestIncompleteTotalsTrackCatalog() {
	s.seedLedger("u1", "m1")
	s.catalog.Add(catalog.Site{ID: "m3", Name: "Schlossbergmuseum", Category: "museum", District: "schlosschemnitz"})

	summary, err := s.newService().Summary(context.Background(), "u1")
	s.Require().NoError(err)

	s.Equal("museum", summary.CategoryProgress[0].Category)
	s.Equal(3, summary.CategoryProgress[0].TotalSites)
	s.False(summary.CategoryProgress[0].Completed)
}

func (s *ServiceSuite) TestCompletedBadgeSurvivesCatalogGrowth() {
	s.seedLedger("u1", "m1", "m2")
	s.catalog.Add(catalog.Site{ID: "m3", Name: "Schlossbergmuseum", Category: "museum"})

	summary, err := s.newService().Summary(context.Background(), "u1")
	s.Require().NoError(err)

	s.Equal("museum", summary.CategoryProgress[0].Category)
	s.True(summary.CategoryProgress[0].Completed, "badge is a one-way ratchet")
	s.Equal(2, summary.CategoryProgress[0].TotalSites, "completed rows keep their totals")
	s.Equal(2, summary.TotalBadges)
}

func (s *ServiceSuite) TestFavoritesIncluded() {
	s.seedLedger("u1", "m1")
	favStore := favorites.NewInMemoryStore()
	s.Require().NoError(favStore.Add(context.Background(), "u1", "r1"))

	summary, err := s.newService(WithFavorites(favStore)).Summary(context.Background(), "u1")
	s.Require().NoError(err)
	s.Equal([]id.SiteID{"r1"}, summary.FavoriteSites)
}

func (s *ServiceSuite) TestCacheReadThrough() {
	s.seedLedger("u1", "m1")
	c := newFakeCache()
	service := s.newService(WithCache(c))
	ctx := context.Background()

	first, err := service.Summary(ctx, "u1")
	s.Require().NoError(err)
	s.Equal(1, c.sets, "miss populates the cache")

	second, err := service.Summary(ctx, "u1")
	s.Require().NoError(err)
	s.Equal(first, second)
	s.Equal(1, c.sets, "hit does not rewrite")
	s.Equal(2, c.gets)
}

func (s *ServiceSuite) TestBackfillRederivesMembership() {
	s.seedLedger("u1", "m1")

	// m1 was recategorized after the visit. The museum row keeps its history;
	// the new gallery row picks the visit up from the visit history.
	s.catalog.Replace([]catalog.Site{
		{ID: "m1", Name: "Industriemuseum", Category: "gallery", District: "zentrum"},
		{ID: "m2", Name: "Kunstsammlungen", Category: "museum", District: "kassberg"},
		{ID: "r1", Name: "Ratskeller", Category: "restaurant", District: "zentrum"},
	})

	summary, err := s.newService().Summary(context.Background(), "u1")
	s.Require().NoError(err)

	s.Require().Len(summary.CategoryProgress, 3)
	s.Equal("gallery", summary.CategoryProgress[0].Category)
	s.Equal(1, summary.CategoryProgress[0].VisitedCount)
	s.True(summary.CategoryProgress[0].Completed, "single-site category completes on backfill")
}

func (s *ServiceSuite) TestCatalogFailureDegradesToPartialSummary() {
	s.seedLedger("u1", "m1")
	service, err := NewService(failingCatalog{}, s.ledgers)
	s.Require().NoError(err)

	summary, err := service.Summary(context.Background(), "u1")
	s.Require().NoError(err)
	s.Equal(1, summary.TotalVisits, "ledger data still served without the catalog")
	s.Empty(summary.RecentVisits[0].SiteName, "site names unavailable while degraded")
}

func (s *ServiceSuite) TestLedgerFailureServesZeroedSummary() {
	service, err := NewService(s.catalog, failingLedgers{})
	s.Require().NoError(err)

	summary, err := service.Summary(context.Background(), "u1")
	s.Require().NoError(err)
	s.Equal(0, summary.TotalVisits)
	s.Len(summary.CategoryProgress, 2, "catalog rows still present in the zeroed summary")
}

func (s *ServiceSuite) TestBrokenCacheDegradesToDirectRead() {
	s.seedLedger("u1", "m1")
	c := newFakeCache()
	c.failing = true

	summary, err := s.newService(WithCache(c)).Summary(context.Background(), "u1")
	s.Require().NoError(err)
	s.Equal(1, summary.TotalVisits)
}
