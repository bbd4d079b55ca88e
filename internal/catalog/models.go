// Package catalog holds the read-only site catalog. Sites are imported and
// maintained by external tooling; this service only reads them.
package catalog

import (
	"culturetrail/internal/geo"
	id "culturetrail/pkg/domain"
)

// Site is a catalogued cultural site.
//
// District is empty until the external district-assignment process has run for
// the site. Coordinate is nil for sites whose address could not be geocoded;
// such sites can never match a check-in.
type Site struct {
	ID         id.SiteID       `json:"id"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	District   string          `json:"district,omitempty"`
	Address    string          `json:"address,omitempty"`
	Coordinate *geo.Coordinate `json:"coordinates,omitempty"`
}

// HasCoordinate reports whether the site can participate in proximity matching.
func (s Site) HasCoordinate() bool { return s.Coordinate != nil }
