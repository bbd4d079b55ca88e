// Package checkin implements proximity check-ins and the per-user visit
// ledger they mutate.
package checkin

import (
	"time"

	"culturetrail/internal/catalog"
	id "culturetrail/pkg/domain"
)

// VisitRecord is one recorded visit. A user has at most one per site.
type VisitRecord struct {
	SiteID    id.SiteID `json:"siteId"`
	VisitDate time.Time `json:"visitDate"`
}

// CategoryProgress tracks completion of one category.
//
// Completed is a one-way ratchet: once a category is finished the badge stays
// awarded even if the catalog later grows and TotalSites no longer matches.
type CategoryProgress struct {
	Category       string      `json:"category"`
	TotalSites     int         `json:"totalSites"`
	VisitedSiteIDs []id.SiteID `json:"visitedSiteIds"`
	Completed      bool        `json:"completed"`
}

// DistrictProgress tracks completion of one district, same rules as
// CategoryProgress.
type DistrictProgress struct {
	District       string      `json:"district"`
	TotalSites     int         `json:"totalSites"`
	VisitedSiteIDs []id.SiteID `json:"visitedSiteIds"`
	Completed      bool        `json:"completed"`
}

// VisitLedger is the aggregate root for one user's visit history and derived
// progress. It is mutated only through RecordVisit inside a per-user
// transactional boundary, which keeps its invariants local to this file.
type VisitLedger struct {
	UserID           id.UserID          `json:"userId"`
	Visits           []VisitRecord      `json:"visits"`
	CategoryProgress []CategoryProgress `json:"categoryProgress"`
	DistrictProgress []DistrictProgress `json:"districtProgress"`
	TotalBadges      int                `json:"totalBadges"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// SiteCounts carries catalog totals needed to bootstrap or extend progress
// rows. Keys are category/district names, values the number of catalogued
// sites carrying them.
type SiteCounts struct {
	ByCategory map[string]int
	ByDistrict map[string]int
}

// CountSites derives SiteCounts from a catalog listing.
func CountSites(sites []catalog.Site) SiteCounts {
	counts := SiteCounts{
		ByCategory: make(map[string]int),
		ByDistrict: make(map[string]int),
	}
	for _, site := range sites {
		if site.Category != "" {
			counts.ByCategory[site.Category]++
		}
		if site.District != "" {
			counts.ByDistrict[site.District]++
		}
	}
	return counts
}

// NewLedger bootstraps an empty ledger with one progress row per category and
// district currently in the catalog.
func NewLedger(userID id.UserID, counts SiteCounts, now time.Time) *VisitLedger {
	ledger := &VisitLedger{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for category, total := range counts.ByCategory {
		ledger.CategoryProgress = append(ledger.CategoryProgress, CategoryProgress{
			Category:   category,
			TotalSites: total,
		})
	}
	for district, total := range counts.ByDistrict {
		ledger.DistrictProgress = append(ledger.DistrictProgress, DistrictProgress{
			District:   district,
			TotalSites: total,
		})
	}
	return ledger
}

// HasVisited reports whether the site is already in the visit history.
func (l *VisitLedger) HasVisited(siteID id.SiteID) bool {
	for _, v := range l.Visits {
		if v.SiteID == siteID {
			return true
		}
	}
	return false
}

// BadgeAward describes badges fired by one visit. Category and district
// badges are independent; both may fire from the same check-in.
type BadgeAward struct {
	CategoryCompleted bool
	DistrictCompleted bool
}

// RecordVisit appends a visit and updates progress. The caller must have
// checked HasVisited first; counts supply live totals for progress rows that
// did not exist when the ledger was created (catalog growth).
func (l *VisitLedger) RecordVisit(site catalog.Site, counts SiteCounts, now time.Time) BadgeAward {
	l.Visits = append(l.Visits, VisitRecord{SiteID: site.ID, VisitDate: now})
	l.UpdatedAt = now

	var award BadgeAward
	if site.Category != "" {
		award.CategoryCompleted = l.applyCategory(site, counts.ByCategory[site.Category])
	}
	if site.District != "" {
		award.DistrictCompleted = l.applyDistrict(site, counts.ByDistrict[site.District])
	}
	return award
}

func (l *VisitLedger) applyCategory(site catalog.Site, liveTotal int) bool {
	idx := -1
	for i := range l.CategoryProgress {
		if l.CategoryProgress[i].Category == site.Category {
			idx = i
			break
		}
	}
	if idx == -1 {
		// Category appeared after this ledger was created.
		l.CategoryProgress = append(l.CategoryProgress, CategoryProgress{
			Category:   site.Category,
			TotalSites: liveTotal,
		})
		idx = len(l.CategoryProgress) - 1
	}

	p := &l.CategoryProgress[idx]
	if !containsSite(p.VisitedSiteIDs, site.ID) {
		p.VisitedSiteIDs = append(p.VisitedSiteIDs, site.ID)
	}
	if !p.Completed && p.TotalSites > 0 && len(p.VisitedSiteIDs) >= p.TotalSites {
		p.Completed = true
		l.TotalBadges++
		return true
	}
	return false
}

func (l *VisitLedger) applyDistrict(site catalog.Site, liveTotal int) bool {
	idx := -1
	for i := range l.DistrictProgress {
		if l.DistrictProgress[i].District == site.District {
			idx = i
			break
		}
	}
	if idx == -1 {
		l.DistrictProgress = append(l.DistrictProgress, DistrictProgress{
			District:   site.District,
			TotalSites: liveTotal,
		})
		idx = len(l.DistrictProgress) - 1
	}

	p := &l.DistrictProgress[idx]
	if !containsSite(p.VisitedSiteIDs, site.ID) {
		p.VisitedSiteIDs = append(p.VisitedSiteIDs, site.ID)
	}
	if !p.Completed && p.TotalSites > 0 && len(p.VisitedSiteIDs) >= p.TotalSites {
		p.Completed = true
		l.TotalBadges++
		return true
	}
	return false
}

func containsSite(ids []id.SiteID, siteID id.SiteID) bool {
	for _, v := range ids {
		if v == siteID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so the in-memory store can hand out snapshots
// without aliasing internal slices.
func (l *VisitLedger) Clone() *VisitLedger {
	if l == nil {
		return nil
	}
	out := *l
	out.Visits = append([]VisitRecord{}, l.Visits...)
	out.CategoryProgress = make([]CategoryProgress, len(l.CategoryProgress))
	for i, p := range l.CategoryProgress {
		p.VisitedSiteIDs = append([]id.SiteID{}, p.VisitedSiteIDs...)
		out.CategoryProgress[i] = p
	}
	out.DistrictProgress = make([]DistrictProgress, len(l.DistrictProgress))
	for i, p := range l.DistrictProgress {
		p.VisitedSiteIDs = append([]id.SiteID{}, p.VisitedSiteIDs...)
		out.DistrictProgress[i] = p
	}
	return &out
}

// CheckInResult is the outcome of one check-in call.
type CheckInResult struct {
	Success  bool          `json:"success"`
	NewVisit bool          `json:"newVisit,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	Site     *catalog.Site `json:"site,omitempty"`
	Badges   *BadgeSummary `json:"badges,omitempty"`
}

// BadgeSummary reports badge state after a new visit.
type BadgeSummary struct {
	CategoryCompleted bool `json:"categoryCompleted"`
	DistrictCompleted bool `json:"districtCompleted"`
	TotalBadges       int  `json:"totalBadges"`
}

// ReasonNoNearbySite is the negative business outcome for a check-in with no
// qualifying site. It is not an error.
const ReasonNoNearbySite = "no-nearby-site"
