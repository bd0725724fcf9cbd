// Package geo provides the spherical distance model shared by validation and
// tests. The SQL search path computes the same great-circle distance with
// ST_Distance_Sphere; both treat coordinates as WGS84 latitude/longitude.
package geo

import (
	"errors"
	"math"
)

// earthRadiusMeters matches the mean radius MySQL's ST_Distance_Sphere uses.
const earthRadiusMeters = 6370986.0

var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Point is a WGS84 coordinate pair.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the point lies within latitude [-90,90] and
// longitude [-180,180].
func (p Point) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// ValidateCoordinates returns ErrInvalidCoordinates unless (lat, lon) is a
// valid WGS84 pair.
func ValidateCoordinates(lat, lon float64) error {
	if !(Point{Latitude: lat, Longitude: lon}).Valid() {
		return ErrInvalidCoordinates
	}
	return nil
}

// Distance returns the great-circle distance between a and b in meters,
// using the haversine formula.
func Distance(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}
