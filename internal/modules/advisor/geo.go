// Package advisor: geo holds the great-circle helpers behind the live tip and the trip features.
package advisor

import (
	"math"

	"farecast/internal/types"
)

const (
	earthRadiusMiles = 3958.8
	earthRadiusKm    = 6371.0
)

// haversine returns the central angle in radians between a and b given in
// decimal degrees.
func haversine(a, b types.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// DistanceMiles is the great-circle distance between a and b in miles.
func DistanceMiles(a, b types.Point) float64 {
	return earthRadiusMiles * haversine(a, b)
}

// DistanceKm is the great-circle distance between a and b in kilometres.
func DistanceKm(a, b types.Point) float64 {
	return earthRadiusKm * haversine(a, b)
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
