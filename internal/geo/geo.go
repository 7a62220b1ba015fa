// Package geo provides great-circle distance and proximity math over
// geoquest coordinates. All functions are pure and operate in double
// precision; rounding, if any, happens at the API boundary.
package geo

import (
	"math"

	"github.com/taipeigo/geoquest/internal/geoquest"
)

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000

// Distance returns the great-circle distance between a and b in meters.
// Out-of-range coordinates are not rejected; they degrade to a numeric
// result like any other float input.
func Distance(a, b geoquest.Coordinate) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	dPhi := (b.Lat - a.Lat) * math.Pi / 180
	dLambda := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// PathDistance returns the sum of Distance over consecutive pairs.
// Paths shorter than two points have zero length.
func PathDistance(path []geoquest.Coordinate) float64 {
	if len(path) < 2 {
		return 0
	}
	var total float64
	for i := 0; i < len(path)-1; i++ {
		total += Distance(path[i], path[i+1])
	}
	return total
}

// WithinDistance reports whether p is at most maxMeters from target.
func WithinDistance(p, target geoquest.Coordinate, maxMeters float64) bool {
	return Distance(p, target) <= maxMeters
}
