package domain

import (
	"errors"
	"math"
	"testing"
)

func TestGeoPointValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       GeoPoint
		wantErr bool
	}{
		{"origin", GeoPoint{0, 0}, false},
		{"jakarta", GeoPoint{-6.21462, 106.84513}, false},
		{"corners", GeoPoint{90, -180}, false},
		{"lat too high", GeoPoint{90.5, 0}, true},
		{"lon too low", GeoPoint{0, -181}, true},
		{"nan", GeoPoint{math.NaN(), 0}, true},
		{"inf", GeoPoint{0, math.Inf(-1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidLocation) {
				t.Errorf("error %v does not wrap ErrInvalidLocation", err)
			}
		})
	}
}

func TestFixSourceMode(t *testing.T) {
	if SourceTap.Mode() != ModeTap {
		t.Errorf("tap source mode = %q", SourceTap.Mode())
	}
	for _, s := range []FixSource{SourceGPS, SourceFeed, SourceReplay} {
		if s.Mode() != ModeTracking {
			t.Errorf("%s source mode = %q, want tracking", s, s.Mode())
		}
	}
}
