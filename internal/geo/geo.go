// Package geo holds the small geographic helpers shared by the geocoder
// and report layers.
package geo

import "math"

const earthRadiusKm = 6371

// HaversineKm returns the great-circle distance between two points in
// kilometers.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// Known fallback points geocoding providers return when they cannot
// resolve an address. Results near them are treated as misses.
var genericFallbacks = []struct {
	lat, lon, radiusKm float64
}{
	{-22.563, -47.401, 5},       // old Nominatim fallback (Limeira)
	{-14.235004, -51.92528, 10}, // Google "center of Brazil" fallback
}

// GenericCoordinate reports whether a coordinate pair is a provider
// placeholder rather than a real location.
func GenericCoordinate(lat, lon float64) bool {
	if math.Abs(lat) < 0.0001 && math.Abs(lon) < 0.0001 {
		return true
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return true
	}
	for _, f := range genericFallbacks {
		if HaversineKm(lat, lon, f.lat, f.lon) < f.radiusKm {
			return true
		}
	}
	return false
}
