package domain

import (
	"time"
)

// Bearing is a compass heading in degrees, 0 = north, clockwise.
// Values produced by the bearing calculator lie in [-180, 180).
type Bearing float64

// Mode describes what drives a marker.
type Mode string

const (
	// ModeTracking follows a (debounced) stream of location fixes.
	ModeTracking Mode = "tracking"
	// ModeTap follows user taps on the map, applied immediately.
	ModeTap Mode = "tap"
)

// FixSource identifies where a location sample came from.
type FixSource string

const (
	SourceGPS    FixSource = "gps"
	SourceTap    FixSource = "tap"
	SourceFeed   FixSource = "feed"
	SourceReplay FixSource = "replay"
)

// Mode returns the marker mode a fix from this source drives.
func (s FixSource) Mode() Mode {
	if s == SourceTap {
		return ModeTap
	}
	return ModeTracking
}

// Fix is one accepted location sample for a marker.
type Fix struct {
	ID       int64     `json:"id,omitempty"`
	MarkerID string    `json:"marker_id"`
	Location GeoPoint  `json:"location"`
	Source   FixSource `json:"source"`
	Time     time.Time `json:"time"`
	Accuracy *float64  `json:"accuracy,omitempty"` // meters
	Speed    *float64  `json:"speed,omitempty"`    // m/s
}

// Frame is the marker output for one animation tick.
type Frame struct {
	MarkerID string    `json:"marker_id"`
	Time     time.Time `json:"time"`
	Position GeoPoint  `json:"position"`
	Rotation Bearing   `json:"rotation"`
	Moving   bool      `json:"moving"`
	Rotating bool      `json:"rotating"`
}

// MarkerState is the last known state of a marker.
type MarkerState struct {
	MarkerID      string    `json:"marker_id"`
	Mode          Mode      `json:"mode"`
	Position      GeoPoint  `json:"position"`
	Rotation      Bearing   `json:"rotation"`
	Target        GeoPoint  `json:"target"`
	TargetHeading Bearing   `json:"target_heading"`
	Animating     bool      `json:"animating"`
	LastFix       *GeoPoint `json:"last_fix,omitempty"` // last raw tracking fix, debounced or not
	UpdatedAt     time.Time `json:"updated_at"`
}
