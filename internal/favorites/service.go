package favorites

import (
	"context"
	"errors"
	"fmt"

	"culturetrail/internal/catalog"
	id "culturetrail/pkg/domain"
	dErrors "culturetrail/pkg/domain-errors"
	"culturetrail/pkg/platform/sentinel"
)

// Service validates favorite mutations against the catalog and resolves
// favorite ids into full sites for listing.
type Service struct {
	catalog catalog.Store
	store   Store
}

func NewService(catalogStore catalog.Store, store Store) (*Service, error) {
	if catalogStore == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	if store == nil {
		return nil, fmt.Errorf("favorites store is required")
	}
	return &Service{catalog: catalogStore, store: store}, nil
}

// List returns the user's favorites resolved to sites. Favorites pointing at
// sites since removed from the catalog are skipped, not errors.
func (s *Service) List(ctx context.Context, userID id.UserID) ([]catalog.Site, error) {
	siteIDs, err := s.store.ListFor(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load favorites")
	}

	sites := make([]catalog.Site, 0, len(siteIDs))
	for _, siteID := range siteIDs {
		site, err := s.catalog.FindByID(ctx, siteID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to resolve favorite site")
		}
		sites = append(sites, site)
	}
	return sites, nil
}

// Add marks a site as favorite. Adding an unknown site is a not-found error;
// adding an existing favorite is a no-op.
func (s *Service) Add(ctx context.Context, userID id.UserID, siteID id.SiteID) error {
	if _, err := s.catalog.FindByID(ctx, siteID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "site %s not found", siteID)
		}
		return dErrors.Wrap(err, dErrors.CodeStorage, "failed to verify site")
	}
	if err := s.store.Add(ctx, userID, siteID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorage, "failed to save favorite")
	}
	return nil
}

// Remove unmarks a favorite. Removing an absent favorite succeeds.
func (s *Service) Remove(ctx context.Context, userID id.UserID, siteID id.SiteID) error {
	if err := s.store.Remove(ctx, userID, siteID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorage, "failed to remove favorite")
	}
	return nil
}
