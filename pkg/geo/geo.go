package geo

import (
	"errors"
	"math"
)

// EarthRadiusKm is the mean Earth radius used for haversine distances.
const EarthRadiusKm = 6371.0

var (
	ErrLatitudeOutOfRange  = errors.New("latitude must be between -90 and 90")
	ErrLongitudeOutOfRange = errors.New("longitude must be between -180 and 180")
)

// Coordinates is a point on the globe in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate reports the first bound violated by c, or nil.
func (c Coordinates) Validate() error {
	return ValidateBounds(c.Lat, c.Lng)
}

// IsZero reports whether c is the unset value.
func (c Coordinates) IsZero() bool {
	return c.Lat == 0 && c.Lng == 0
}

// ValidateBounds checks latitude and longitude ranges. NaN fails both checks.
func ValidateBounds(lat, lng float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return ErrLatitudeOutOfRange
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return ErrLongitudeOutOfRange
	}
	return nil
}

// DistanceKm returns the great-circle distance between a and b in kilometres.
func DistanceKm(a, b Coordinates) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// WithinRadius reports whether b lies within radiusKm of a. A negative radius matches nothing.
func WithinRadius(a, b Coordinates, radiusKm float64) bool {
	if radiusKm < 0 || math.IsNaN(radiusKm) {
		return false
	}
	return DistanceKm(a, b) <= radiusKm
}

// RoundKm rounds a distance to two decimals for display.
func RoundKm(d float64) float64 {
	return math.Round(d*100) / 100
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
