package motion

import (
	"math"

	"github.com/samirrijal/markermove/internal/core/domain"
)

// ComputeHeading returns the initial great-circle bearing from one point to
// another, normalised into [-180, 180). Identical points yield 0.
// https://www.movable-type.co.uk/scripts/latlong.html
func ComputeHeading(from, to domain.GeoPoint) domain.Bearing {
	if from == to {
		return 0
	}

	lat1 := toRad(from.Lat)
	lat2 := toRad(to.Lat)
	dLon := toRad(to.Lon - from.Lon)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) -
		math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	return domain.Bearing(Wrap(toDeg(math.Atan2(y, x)), -180, 180))
}

// Wrap folds n into [min, max). Values already in range are returned as is;
// the rest go through a floored modulo so negative inputs wrap instead of
// truncating toward zero.
func Wrap(n, min, max float64) float64 {
	if n >= min && n < max {
		return n
	}
	return floorMod(n-min, max-min) + min
}

func floorMod(x, m float64) float64 {
	r := x - m*math.Floor(x/m)
	// x/m rounding can land exactly on m for tiny negative x.
	if r >= m {
		r -= m
	}
	return r
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
