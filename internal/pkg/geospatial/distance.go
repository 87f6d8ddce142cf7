package geospatial

import "github.com/golang/geo/s2"

// EarthRadiusMeters is the mean Earth radius used for all distance figures.
const EarthRadiusMeters = 6371008.8

// Distance returns the great-circle distance in meters between two points.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * EarthRadiusMeters
}

// Speed returns the average speed in m/s needed to cover the distance between
// two points in seconds. A non-positive duration yields 0.
func Speed(lat1, lon1, lat2, lon2, seconds float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return Distance(lat1, lon1, lat2, lon2) / seconds
}
