package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "culturetrail/pkg/domain-errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		coord   Coordinate
		wantErr bool
	}{
		{"valid city coordinate", Coordinate{Lat: 50.8323, Lng: 12.9253}, false},
		{"equator origin", Coordinate{Lat: 0, Lng: 0}, false},
		{"lat boundary", Coordinate{Lat: 90, Lng: 0}, false},
		{"lng boundary", Coordinate{Lat: 0, Lng: -180}, false},
		{"lat too high", Coordinate{Lat: 90.01, Lng: 0}, true},
		{"lat too low", Coordinate{Lat: -91, Lng: 0}, true},
		{"lng too high", Coordinate{Lat: 0, Lng: 180.5}, true},
		{"lng too low", Coordinate{Lat: 0, Lng: -181}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coord.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.Is(err, dErrors.CodeInvalidCoordinate))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDistanceMeters(t *testing.T) {
	t.Run("zero distance for identical points", func(t *testing.T) {
		p := Coordinate{Lat: 50.8323, Lng: 12.9253}
		d, err := DistanceMeters(p, p)
		require.NoError(t, err)
		assert.Zero(t, d)
	})

	t.Run("one degree of latitude is about 111 km", func(t *testing.T) {
		d, err := DistanceMeters(Coordinate{Lat: 50, Lng: 12}, Coordinate{Lat: 51, Lng: 12})
		require.NoError(t, err)
		assert.InDelta(t, 111195, d, 300)
	})

	t.Run("city-scale distance", func(t *testing.T) {
		// Opera house to the Red Tower, a few hundred meters apart.
		a := Coordinate{Lat: 50.8365, Lng: 12.9186}
		b := Coordinate{Lat: 50.8322, Lng: 12.9226}
		d, err := DistanceMeters(a, b)
		require.NoError(t, err)
		assert.Greater(t, d, 400.0)
		assert.Less(t, d, 700.0)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := Coordinate{Lat: 50.83, Lng: 12.92}
		b := Coordinate{Lat: 50.84, Lng: 12.93}
		d1, err := DistanceMeters(a, b)
		require.NoError(t, err)
		d2, err := DistanceMeters(b, a)
		require.NoError(t, err)
		assert.InDelta(t, d1, d2, 1e-9)
	})

	t.Run("invalid input rejected", func(t *testing.T) {
		_, err := DistanceMeters(Coordinate{Lat: 95, Lng: 0}, Coordinate{Lat: 0, Lng: 0})
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidCoordinate))
	})
}
