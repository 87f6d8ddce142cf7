package motion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samirrijal/markermove/internal/core/domain"
)

func TestComputeHeading_KnownValues(t *testing.T) {
	tests := []struct {
		name string
		from domain.GeoPoint
		to   domain.GeoPoint
		want float64
	}{
		{"due east", domain.GeoPoint{Lat: 0, Lon: 0}, domain.GeoPoint{Lat: 0, Lon: 90}, 90},
		{"due north to pole", domain.GeoPoint{Lat: 0, Lon: 0}, domain.GeoPoint{Lat: 90, Lon: 0}, 0},
		{"due west", domain.GeoPoint{Lat: 0, Lon: 0}, domain.GeoPoint{Lat: 0, Lon: -90}, -90},
		{"due south", domain.GeoPoint{Lat: 10, Lon: 20}, domain.GeoPoint{Lat: -10, Lon: 20}, -180},
		{"jakarta south-east hop", domain.GeoPoint{Lat: -6.2, Lon: 106.8}, domain.GeoPoint{Lat: -6.21, Lon: 106.81}, 135.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeHeading(tt.from, tt.to)
			assert.InDelta(t, tt.want, float64(got), 0.1)
		})
	}
}

func TestComputeHeading_SamePointIsZero(t *testing.T) {
	points := []domain.GeoPoint{
		{Lat: 0, Lon: 0},
		{Lat: -6.21462, Lon: 106.84513},
		{Lat: 90, Lon: 180},
		{Lat: -90, Lon: -180},
	}
	for _, p := range points {
		assert.Equal(t, domain.Bearing(0), ComputeHeading(p, p))
	}
}

func TestComputeHeading_InCanonicalRange(t *testing.T) {
	for lat1 := -80.0; lat1 <= 80; lat1 += 20 {
		for lon1 := -180.0; lon1 <= 180; lon1 += 45 {
			for lat2 := -85.0; lat2 <= 85; lat2 += 17 {
				for lon2 := -175.0; lon2 <= 180; lon2 += 35 {
					h := float64(ComputeHeading(
						domain.GeoPoint{Lat: lat1, Lon: lon1},
						domain.GeoPoint{Lat: lat2, Lon: lon2},
					))
					if h < -180 || h >= 180 {
						t.Fatalf("heading %v out of [-180,180) for (%v,%v)->(%v,%v)", h, lat1, lon1, lat2, lon2)
					}
				}
			}
		}
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		n    float64
		want float64
	}{
		{0, 0},
		{179.5, 179.5},
		{180, -180},
		{-180, -180},
		{190, -170},
		{-190, 170},
		{540, -180},
		{-541, 179},
		{720, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Wrap(tt.n, -180, 180), 1e-9, "Wrap(%v)", tt.n)
	}
}

func TestWrap_Idempotent(t *testing.T) {
	for n := -1000.0; n <= 1000; n += 7.3 {
		once := Wrap(n, -180, 180)
		assert.Equal(t, once, Wrap(once, -180, 180), "n=%v", n)
		assert.GreaterOrEqual(t, once, -180.0)
		assert.Less(t, once, 180.0)
	}
}

func TestWrap_TinyNegativeStaysInRange(t *testing.T) {
	got := Wrap(-180-math.SmallestNonzeroFloat64, -180, 180)
	assert.GreaterOrEqual(t, got, -180.0)
	assert.Less(t, got, 180.0)
}
