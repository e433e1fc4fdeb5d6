// Package geo holds the great-circle distance used by every radius decision
// and every "km away" label, so both always agree.
package geo

import "math"

const EarthRadiusKm = 6371.0

// DistanceKm returns the haversine distance in kilometers between two points
// given in degrees. NaN inputs propagate.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
