package checkin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"culturetrail/internal/activity"
	"culturetrail/internal/catalog"
	"culturetrail/internal/checkin/metrics"
	"culturetrail/internal/geo"
	"culturetrail/internal/platform/cache"
	id "culturetrail/pkg/domain"
	dErrors "culturetrail/pkg/domain-errors"
	"culturetrail/pkg/platform/sentinel"
	"culturetrail/pkg/requestcontext"
)

// RadiusMeters is the fixed proximity threshold for a valid check-in.
const RadiusMeters = 80.0

// ActivityEmitter decouples the engine from the feed implementation.
type ActivityEmitter interface {
	Emit(ctx context.Context, event activity.Event)
}

// Service is the check-in engine. It is the only writer of visit ledgers.
type Service struct {
	catalog  catalog.Store
	tx       LedgerTx
	activity ActivityEmitter
	cache    cache.Cache
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewService(catalogStore catalog.Store, tx LedgerTx, opts ...Option) (*Service, error) {
	if catalogStore == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	if tx == nil {
		return nil, fmt.Errorf("ledger tx is required")
	}
	s := &Service{
		catalog: catalogStore,
		tx:      tx,
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

func WithActivity(emitter ActivityEmitter) Option {
	return func(s *Service) { s.activity = emitter }
}

func WithCache(c cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// ProgressCacheKey is the cache key for a user's progress summary. Declared
// here because the engine invalidates what the progress reader caches.
func ProgressCacheKey(userID id.UserID) string {
	return "progress:" + userID.String()
}

// CheckIn validates the reported location, matches it against the catalog and
// records the visit. The ledger write is all-or-nothing; everything after it
// (metrics, feed, cache invalidation) is best-effort.
func (s *Service) CheckIn(ctx context.Context, userID id.UserID, loc geo.Coordinate) (CheckInResult, error) {
	start := time.Now()

	if err := loc.Validate(); err != nil {
		s.metrics.RecordOutcome("error", time.Since(start).Seconds())
		return CheckInResult{}, err
	}

	sites, err := s.catalog.ListAll(ctx)
	if err != nil {
		s.metrics.RecordOutcome("error", time.Since(start).Seconds())
		return CheckInResult{}, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load site catalog")
	}

	site, found := s.matchSite(ctx, loc, sites)
	if !found {
		s.metrics.RecordOutcome("no_nearby_site", time.Since(start).Seconds())
		return CheckInResult{Success: false, Reason: ReasonNoNearbySite}, nil
	}

	now := requestcontext.Now(ctx)
	counts := CountSites(sites)

	var result CheckInResult
	err = s.tx.RunInTx(ctx, userID, func(store LedgerStore) error {
		ledger, err := store.Find(ctx, userID)
		if err != nil {
			if !errors.Is(err, sentinel.ErrNotFound) {
				return err
			}
			ledger = NewLedger(userID, counts, now)
		}

		if ledger.HasVisited(site.ID) {
			result = CheckInResult{Success: true, NewVisit: false, Site: &site}
			return nil
		}

		award := ledger.RecordVisit(site, counts, now)
		if err := store.Save(ctx, ledger); err != nil {
			return err
		}
		result = CheckInResult{
			Success:  true,
			NewVisit: true,
			Site:     &site,
			Badges: &BadgeSummary{
				CategoryCompleted: award.CategoryCompleted,
				DistrictCompleted: award.DistrictCompleted,
				TotalBadges:       ledger.TotalBadges,
			},
		}
		return nil
	})
	if err != nil {
		s.metrics.RecordOutcome("error", time.Since(start).Seconds())
		if dErrors.Is(err, dErrors.CodeTimeout) {
			return CheckInResult{}, err
		}
		return CheckInResult{}, dErrors.Wrap(err, dErrors.CodeStorage, "failed to record visit")
	}

	if result.NewVisit {
		s.afterNewVisit(ctx, userID, site, result, now)
		s.metrics.RecordOutcome("new_visit", time.Since(start).Seconds())
	} else {
		s.metrics.RecordOutcome("repeat", time.Since(start).Seconds())
	}
	return result, nil
}

// matchSite returns the first site within radius in catalog iteration order.
// Deliberately not nearest-site: the established client behavior is
// first-within-radius and existing users depend on stable matching.
func (s *Service) matchSite(ctx context.Context, loc geo.Coordinate, sites []catalog.Site) (catalog.Site, bool) {
	for _, site := range sites {
		if !site.HasCoordinate() {
			continue
		}
		dist, err := geo.DistanceMeters(loc, *site.Coordinate)
		if err != nil {
			// Bad coordinates in the catalog; skip rather than fail the call.
			s.logger.WarnContext(ctx, "site has invalid coordinates, skipping",
				"site_id", site.ID,
				"error", err,
			)
			continue
		}
		if dist <= RadiusMeters {
			return site, true
		}
	}
	return catalog.Site{}, false
}

func (s *Service) afterNewVisit(ctx context.Context, userID id.UserID, site catalog.Site, result CheckInResult, now time.Time) {
	if result.Badges.CategoryCompleted {
		s.metrics.RecordBadge("category")
	}
	if result.Badges.DistrictCompleted {
		s.metrics.RecordBadge("district")
	}

	if s.activity != nil {
		s.activity.Emit(ctx, activity.Event{
			UserID:    userID,
			SiteID:    site.ID,
			SiteName:  site.Name,
			Kind:      activity.KindCheckin,
			Timestamp: now,
		})
		if result.Badges.CategoryCompleted {
			s.activity.Emit(ctx, activity.Event{
				UserID:    userID,
				Kind:      activity.KindBadge,
				Detail:    "completed category " + site.Category,
				Timestamp: now,
			})
		}
		if result.Badges.DistrictCompleted {
			s.activity.Emit(ctx, activity.Event{
				UserID:    userID,
				Kind:      activity.KindBadge,
				Detail:    "completed district " + site.District,
				Timestamp: now,
			})
		}
	}

	if err := s.cache.Invalidate(ctx, ProgressCacheKey(userID)); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate progress cache",
			"error", err,
			"user_id", userID,
		)
	}
}
