package catalog

import (
	"context"
	"sort"
	"sync"

	id "culturetrail/pkg/domain"
	"culturetrail/pkg/platform/sentinel"
)

// InMemoryStore serves the catalog from memory. Used in tests and in
// deployments that load the catalog from a seed file at startup.
//
// Iteration order is the insertion order of the seed. Check-in matching
// depends on a stable iteration order, so ListAll must not reshuffle.
type InMemoryStore struct {
	mu    sync.RWMutex
	sites []Site
	byID  map[id.SiteID]Site
}

func NewInMemoryStore(sites []Site) *InMemoryStore {
	s := &InMemoryStore{byID: make(map[id.SiteID]Site, len(sites))}
	s.Replace(sites)
	return s
}

// Replace swaps the full catalog contents. Exposed so tests can simulate
// catalog growth between requests.
func (s *InMemoryStore) Replace(sites []Site) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sites = append([]Site{}, sites...)
	s.byID = make(map[id.SiteID]Site, len(sites))
	for _, site := range sites {
		s.byID[site.ID] = site
	}
}

// Add appends a site, simulating catalog growth.
func (s *InMemoryStore) Add(site Site) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sites = append(s.sites, site)
	s.byID[site.ID] = site
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Site{}, s.sites...), nil
}

func (s *InMemoryStore) FindByID(_ context.Context, siteID id.SiteID) (Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	site, ok := s.byID[siteID]
	if !ok {
		return Site{}, sentinel.ErrNotFound
	}
	return site, nil
}

func (s *InMemoryStore) DistinctCategories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.distinct(func(site Site) string { return site.Category }), nil
}

func (s *InMemoryStore) DistinctDistricts(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.distinct(func(site Site) string { return site.District }), nil
}

func (s *InMemoryStore) CountByCategory(_ context.Context, category string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, site := range s.sites {
		if site.Category == category {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) CountByDistrict(_ context.Context, district string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, site := range s.sites {
		if site.District == district {
			count++
		}
	}
	return count, nil
}

// distinct collects non-empty unique values, sorted for stable output.
func (s *InMemoryStore) distinct(key func(Site) string) []string {
	seen := make(map[string]struct{})
	var values []string
	for _, site := range s.sites {
		v := key(site)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
