// Package geo provides the pure geodistance math used by the crossing
// detector. Spherical Earth approximation: good enough for the ~100 m
// proximity threshold, not for sub-10 m precision (no elevation, no
// ellipsoidal correction).
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by the Haversine formula.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance in kilometers between two
// coordinates using the Haversine formula.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*
			math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Box is an axis-aligned latitude/longitude range.
type Box struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// BoundingBox returns a box guaranteed to contain every point within
// radiusKm of the center. It over-approximates near the poles; callers
// filter with DistanceKm afterwards.
func BoundingBox(lat, lng, radiusKm float64) Box {
	dLat := radiusKm / EarthRadiusKm * 180 / math.Pi

	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	dLng := dLat / cosLat

	return Box{
		MinLat: lat - dLat,
		MaxLat: lat + dLat,
		MinLng: lng - dLng,
		MaxLng: lng + dLng,
	}
}

// Contains reports whether the point lies inside the box.
func (b Box) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}
