package catalog

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"culturetrail/internal/geo"
	id "culturetrail/pkg/domain"
)

// GeoJSON seed format, matching the export produced by the catalog import
// tooling: a FeatureCollection of Point features with name/category/district
// properties.

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	ID         string            `json:"id"`
	Geometry   *geometry         `json:"geometry"`
	Properties featureProperties `json:"properties"`
}

type geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // [lng, lat]
}

type featureProperties struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	District string `json:"district"`
	Address  string `json:"address"`
}

// LoadGeoJSON reads a seed file into sites, preserving feature order. Features
// without a usable Point geometry are kept without coordinates so they still
// count toward category totals.
func LoadGeoJSON(path string) ([]Site, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseGeoJSON(raw)
}

// ParseGeoJSON decodes a FeatureCollection into sites.
func ParseGeoJSON(raw []byte) ([]Site, error) {
	var fc featureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("decode seed geojson: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("seed geojson: expected FeatureCollection, got %q", fc.Type)
	}

	sites := make([]Site, 0, len(fc.Features))
	for i, f := range fc.Features {
		siteID := f.Properties.ID
		if siteID == "" {
			siteID = f.ID
		}
		parsedID, err := id.ParseSiteID(siteID)
		if err != nil {
			return nil, fmt.Errorf("seed feature %d: %w", i, err)
		}
		if f.Properties.Name == "" {
			return nil, fmt.Errorf("seed feature %d (%s): name is required", i, parsedID)
		}

		site := Site{
			ID:       parsedID,
			Name:     f.Properties.Name,
			Category: f.Properties.Category,
			District: f.Properties.District,
			Address:  f.Properties.Address,
		}
		if f.Geometry != nil && f.Geometry.Type == "Point" && len(f.Geometry.Coordinates) >= 2 {
			coord := geo.Coordinate{Lng: f.Geometry.Coordinates[0], Lat: f.Geometry.Coordinates[1]}
			if err := coord.Validate(); err != nil {
				return nil, fmt.Errorf("seed feature %d (%s): %w", i, parsedID, err)
			}
			site.Coordinate = &coord
		}
		sites = append(sites, site)
	}
	return sites, nil
}
