package geo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryan2kptit/location-based-services-search/internal/geo"
)

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{name: "origin", lat: 0, lon: 0},
		{name: "hanoi", lat: 21.0285, lon: 105.8542},
		{name: "extremes", lat: 90, lon: 180},
		{name: "negative extremes", lat: -90, lon: -180},
		{name: "latitude too high", lat: 90.0001, lon: 0, wantErr: true},
		{name: "latitude too low", lat: -91, lon: 0, wantErr: true},
		{name: "longitude too high", lat: 0, lon: 180.5, wantErr: true},
		{name: "longitude too low", lat: 0, lon: -181, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := geo.ValidateCoordinates(tt.lat, tt.lon)
			if tt.wantErr {
				assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDistanceSelfIsZero(t *testing.T) {
	points := []geo.Point{
		{Latitude: 0, Longitude: 0},
		{Latitude: 21.0285, Longitude: 105.8542},
		{Latitude: -33.8688, Longitude: 151.2093},
	}
	for _, p := range points {
		assert.Zero(t, geo.Distance(p, p))
	}
}

func TestDistanceSymmetry(t *testing.T) {
	a := geo.Point{Latitude: 21.0285, Longitude: 105.8542}
	b := geo.Point{Latitude: 21.0355, Longitude: 105.8120}
	assert.InDelta(t, geo.Distance(a, b), geo.Distance(b, a), 1e-9)
}

func TestDistanceKnownOffset(t *testing.T) {
	// 0.01 degrees of latitude is about 1112 meters on a sphere of the
	// radius MySQL's ST_Distance_Sphere uses.
	a := geo.Point{Latitude: 21.0285, Longitude: 105.8542}
	b := geo.Point{Latitude: 21.0385, Longitude: 105.8542}
	d := geo.Distance(a, b)
	require.InDelta(t, 1112.0, d, 5.0)
}

func TestDistanceGrowsWithSeparation(t *testing.T) {
	origin := geo.Point{Latitude: 21.0285, Longitude: 105.8542}
	near := geo.Point{Latitude: 21.0300, Longitude: 105.8542}
	far := geo.Point{Latitude: 21.1000, Longitude: 105.8542}
	assert.Less(t, geo.Distance(origin, near), geo.Distance(origin, far))
}
