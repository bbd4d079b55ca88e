// Package progress serves the read side of the visit ledger: per-user summary
// views derived from ledger state and the current catalog.
package progress

import (
	"time"

	id "culturetrail/pkg/domain"
)

// CategoryView is the client-facing projection of one category's progress.
type CategoryView struct {
	Category     string `json:"category"`
	VisitedCount int    `json:"visitedCount"`
	TotalSites   int    `json:"totalSites"`
	Completed    bool   `json:"completed"`
}

// DistrictView mirrors CategoryView for districts.
type DistrictView struct {
	District     string `json:"district"`
	VisitedCount int    `json:"visitedCount"`
	TotalSites   int    `json:"totalSites"`
	Completed    bool   `json:"completed"`
}

// VisitView is one entry of the recent-visits list.
type VisitView struct {
	SiteID    id.SiteID `json:"siteId"`
	SiteName  string    `json:"siteName,omitempty"`
	VisitDate time.Time `json:"visitDate"`
}

// Summary is the full progress response for one user. Users without history
// get a zeroed summary with one row per current category and district.
type Summary struct {
	UserID           id.UserID      `json:"userId"`
	TotalVisits      int            `json:"totalVisits"`
	TotalBadges      int            `json:"totalBadges"`
	CategoryProgress []CategoryView `json:"categoryProgress"`
	DistrictProgress []DistrictView `json:"districtProgress"`
	RecentVisits     []VisitView    `json:"recentVisits"`
	FavoriteSites    []id.SiteID    `json:"favoriteSites"`
}
