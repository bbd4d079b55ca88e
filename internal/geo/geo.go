// Package geo implements coordinate validation and great-circle distance.
// City-scale accuracy is sufficient; no special handling near the poles or
// the antimeridian.
package geo

import (
	"math"

	dErrors "culturetrail/pkg/domain-errors"
)

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000.0

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate enforces WGS84 degree ranges.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return dErrors.New(dErrors.CodeInvalidCoordinate, "coordinate must not be NaN")
	}
	if c.Lat < -90 || c.Lat > 90 {
		return dErrors.Newf(dErrors.CodeInvalidCoordinate, "latitude %v out of range [-90,90]", c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return dErrors.Newf(dErrors.CodeInvalidCoordinate, "longitude %v out of range [-180,180]", c.Lng)
	}
	return nil
}

// DistanceMeters computes the haversine distance between two coordinates.
func DistanceMeters(a, b Coordinate) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}

	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c, nil
}
