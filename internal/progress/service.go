package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"culturetrail/internal/catalog"
	"culturetrail/internal/checkin"
	"culturetrail/internal/platform/cache"
	"culturetrail/internal/platform/config"
	id "culturetrail/pkg/domain"
	"culturetrail/pkg/platform/sentinel"
	"culturetrail/pkg/requestcontext"
)

// recentVisitLimit caps the recent-visits list in the summary.
const recentVisitLimit = 5

// FavoritesLister is the slice of the favorites store the summary needs.
type FavoritesLister interface {
	ListFor(ctx context.Context, userID id.UserID) ([]id.SiteID, error)
}

// Service builds progress summaries. It reads ledgers but writes them only to
// backfill progress rows for categories and districts added to the catalog
// after the ledger was created.
type Service struct {
	catalog   catalog.Store
	ledgers   checkin.LedgerStore
	tx        checkin.LedgerTx
	favorites FavoritesLister
	cache     cache.Cache
	logger    *slog.Logger
}

func NewService(catalogStore catalog.Store, ledgers checkin.LedgerStore, opts ...Option) (*Service, error) {
	if catalogStore == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	if ledgers == nil {
		return nil, fmt.Errorf("ledger store is required")
	}
	s := &Service{
		catalog: catalogStore,
		ledgers: ledgers,
		cache:   cache.Noop{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithLedgerTx enables persisting backfilled progress rows. Without it the
// backfill still happens per read, just in memory.
func WithLedgerTx(tx checkin.LedgerTx) Option {
	return func(s *Service) { s.tx = tx }
}

func WithFavorites(favorites FavoritesLister) Option {
	return func(s *Service) { s.favorites = favorites }
}

func WithCache(c cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// Summary returns the user's progress. Users without a ledger get a zeroed
// summary built from the current catalog; a missing ledger is never an error.
func (s *Service) Summary(ctx context.Context, userID id.UserID) (Summary, error) {
	cacheKey := checkin.ProgressCacheKey(userID)

	var cached Summary
	switch err := s.cache.GetJSON(ctx, cacheKey, &cached); {
	case err == nil:
		return cached, nil
	case !errors.Is(err, cache.ErrMiss):
		// A broken cache degrades to a direct read.
		s.logger.WarnContext(ctx, "progress cache read failed", "error", err, "user_id", userID)
	}

	// Reads degrade rather than fail: a broken catalog or ledger read yields
	// partial or zeroed data, never a 5xx. Only check-in hard-fails on storage.
	degraded := false

	sites, err := s.catalog.ListAll(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "catalog unavailable, serving partial summary",
			"error", err, "user_id", userID)
		sites = nil
		degraded = true
	}
	counts := checkin.CountSites(sites)

	ledger, err := s.ledgers.Find(ctx, userID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		// No history yet. The zeroed ledger is not persisted; check-in owns
		// ledger creation.
		ledger = checkin.NewLedger(userID, counts, requestcontext.Now(ctx))
	case err != nil:
		s.logger.WarnContext(ctx, "ledger unavailable, serving zeroed summary",
			"error", err, "user_id", userID)
		ledger = checkin.NewLedger(userID, counts, requestcontext.Now(ctx))
		degraded = true
	default:
		if !degraded && heal(ledger, counts, sites) {
			s.persistHealed(ctx, userID, counts, sites)
		}
	}

	summary := s.buildSummary(ctx, userID, ledger, sites)

	if !degraded {
		if err := s.cache.SetJSON(ctx, cacheKey, summary, config.ProgressCacheTTL); err != nil {
			s.logger.WarnContext(ctx, "progress cache write failed", "error", err, "user_id", userID)
		}
	}
	return summary, nil
}

// heal adds progress rows for categories and districts the catalog gained
// after the ledger was created, and refreshes totals on rows not yet
// completed. Membership of new rows is rederived from the visit history
// against the current catalog, so a recategorized site counts toward its new
// grouping. Completed rows keep their badge regardless of catalog changes.
func heal(ledger *checkin.VisitLedger, counts checkin.SiteCounts, sites []catalog.Site) bool {
	changed := false

	byID := make(map[id.SiteID]catalog.Site, len(sites))
	for _, site := range sites {
		byID[site.ID] = site
	}
	visitedByCategory := make(map[string][]id.SiteID)
	visitedByDistrict := make(map[string][]id.SiteID)
	for _, v := range ledger.Visits {
		site, ok := byID[v.SiteID]
		if !ok {
			continue
		}
		if site.Category != "" {
			visitedByCategory[site.Category] = append(visitedByCategory[site.Category], v.SiteID)
		}
		if site.District != "" {
			visitedByDistrict[site.District] = append(visitedByDistrict[site.District], v.SiteID)
		}
	}

	known := make(map[string]struct{}, len(ledger.CategoryProgress))
	for i := range ledger.CategoryProgress {
		p := &ledger.CategoryProgress[i]
		known[p.Category] = struct{}{}
		if live, ok := counts.ByCategory[p.Category]; ok && !p.Completed && p.TotalSites != live {
			p.TotalSites = live
			changed = true
		}
	}
	for category, total := range counts.ByCategory {
		if _, ok := known[category]; ok {
			continue
		}
		row := checkin.CategoryProgress{
			Category:       category,
			TotalSites:     total,
			VisitedSiteIDs: visitedByCategory[category],
		}
		if total > 0 && len(row.VisitedSiteIDs) >= total {
			row.Completed = true
			ledger.TotalBadges++
		}
		ledger.CategoryProgress = append(ledger.CategoryProgress, row)
		changed = true
	}

	knownDistricts := make(map[string]struct{}, len(ledger.DistrictProgress))
	for i := range ledger.DistrictProgress {
		p := &ledger.DistrictProgress[i]
		knownDistricts[p.District] = struct{}{}
		if live, ok := counts.ByDistrict[p.District]; ok && !p.Completed && p.TotalSites != live {
			p.TotalSites = live
			changed = true
		}
	}
	for district, total := range counts.ByDistrict {
		if _, ok := knownDistricts[district]; ok {
			continue
		}
		row := checkin.DistrictProgress{
			District:       district,
			TotalSites:     total,
			VisitedSiteIDs: visitedByDistrict[district],
		}
		if total > 0 && len(row.VisitedSiteIDs) >= total {
			row.Completed = true
			ledger.TotalBadges++
		}
		ledger.DistrictProgress = append(ledger.DistrictProgress, row)
		changed = true
	}
	return changed
}

// persistHealed writes backfilled rows behind the same per-user boundary the
// check-in engine uses, re-reading inside the transaction so a concurrent
// check-in is never clobbered. Failure only costs a repeat backfill later.
func (s *Service) persistHealed(ctx context.Context, userID id.UserID, counts checkin.SiteCounts, sites []catalog.Site) {
	if s.tx == nil {
		return
	}
	err := s.tx.RunInTx(ctx, userID, func(store checkin.LedgerStore) error {
		fresh, err := store.Find(ctx, userID)
		if err != nil {
			return err
		}
		if !heal(fresh, counts, sites) {
			return nil
		}
		return store.Save(ctx, fresh)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to persist backfilled progress rows",
			"error", err,
			"user_id", userID,
		)
	}
}

func (s *Service) buildSummary(ctx context.Context, userID id.UserID, ledger *checkin.VisitLedger, sites []catalog.Site) Summary {
	summary := Summary{
		UserID:           userID,
		TotalVisits:      len(ledger.Visits),
		TotalBadges:      ledger.TotalBadges,
		CategoryProgress: make([]CategoryView, 0, len(ledger.CategoryProgress)),
		DistrictProgress: make([]DistrictView, 0, len(ledger.DistrictProgress)),
		RecentVisits:     []VisitView{},
		FavoriteSites:    []id.SiteID{},
	}

	for _, p := range ledger.CategoryProgress {
		summary.CategoryProgress = append(summary.CategoryProgress, CategoryView{
			Category:     p.Category,
			VisitedCount: len(p.VisitedSiteIDs),
			TotalSites:   p.TotalSites,
			Completed:    p.Completed,
		})
	}
	sort.Slice(summary.CategoryProgress, func(i, j int) bool {
		return summary.CategoryProgress[i].Category < summary.CategoryProgress[j].Category
	})

	for _, p := range ledger.DistrictProgress {
		summary.DistrictProgress = append(summary.DistrictProgress, DistrictView{
			District:     p.District,
			VisitedCount: len(p.VisitedSiteIDs),
			TotalSites:   p.TotalSites,
			Completed:    p.Completed,
		})
	}
	sort.Slice(summary.DistrictProgress, func(i, j int) bool {
		return summary.DistrictProgress[i].District < summary.DistrictProgress[j].District
	})

	names := make(map[id.SiteID]string, len(sites))
	for _, site := range sites {
		names[site.ID] = site.Name
	}
	for i := len(ledger.Visits) - 1; i >= 0 && len(summary.RecentVisits) < recentVisitLimit; i-- {
		v := ledger.Visits[i]
		summary.RecentVisits = append(summary.RecentVisits, VisitView{
			SiteID:    v.SiteID,
			SiteName:  names[v.SiteID],
			VisitDate: v.VisitDate,
		})
	}

	if s.favorites != nil {
		siteIDs, err := s.favorites.ListFor(ctx, userID)
		if err != nil {
			// Favorites decorate the summary; their failure must not sink it.
			s.logger.WarnContext(ctx, "failed to load favorites for summary",
				"error", err,
				"user_id", userID,
			)
		} else if siteIDs != nil {
			summary.FavoriteSites = siteIDs
		}
	}
	return summary
}
