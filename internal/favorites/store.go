// Package favorites lets users bookmark sites. Favorites are a flat per-user
// set of site ids; they carry no progress semantics.
package favorites

import (
	"context"

	id "culturetrail/pkg/domain"
)

// Store persists the per-user favorite set. Add and Remove are idempotent.
type Store interface {
	ListFor(ctx context.Context, userID id.UserID) ([]id.SiteID, error)
	Add(ctx context.Context, userID id.UserID, siteID id.SiteID) error
	Remove(ctx context.Context, userID id.UserID, siteID id.SiteID) error
}
