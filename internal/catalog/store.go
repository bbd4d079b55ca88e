package catalog

import (
	"context"

	id "culturetrail/pkg/domain"
)

// Store is the read surface the rest of the service consumes. Implementations
// must be safe for concurrent readers.
type Store interface {
	ListAll(ctx context.Context) ([]Site, error)
	FindByID(ctx context.Context, siteID id.SiteID) (Site, error)
	DistinctCategories(ctx context.Context) ([]string, error)
	DistinctDistricts(ctx context.Context) ([]string, error)
	CountByCategory(ctx context.Context, category string) (int, error)
	CountByDistrict(ctx context.Context, district string) (int, error)
}
