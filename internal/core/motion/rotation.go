package motion

import (
	"time"

	"github.com/samirrijal/markermove/internal/core/domain"
)

const (
	// RotateDuration is the length of every rotation toward a new heading.
	RotateDuration = 300 * time.Millisecond
	// FrameInterval is the tick cadence a renderer is expected to sample at.
	FrameInterval = 16 * time.Millisecond
)

// Rotation is one linear sweep of the marker icon between two headings.
type Rotation struct {
	From     domain.Bearing
	To       domain.Bearing
	Start    time.Time
	Duration time.Duration
}

// BeginRotation starts a RotateDuration sweep at start.
func BeginRotation(from, to domain.Bearing, start time.Time) *Rotation {
	return &Rotation{From: from, To: to, Start: start, Duration: RotateDuration}
}

// Progress returns elapsed/Duration clamped to [0, 1].
func (r *Rotation) Progress(elapsed time.Duration) float64 {
	return clampFraction(elapsed, r.Duration)
}

// Sample returns the rotation to display after elapsed.
//
// Interpolated values below -180 are halved rather than wrapped. This is a
// partial fold, not a shortest-arc correction: some heading pairs still
// sweep the long way round.
func (r *Rotation) Sample(elapsed time.Duration) domain.Bearing {
	t := r.Progress(elapsed)
	rot := t*float64(r.To) + (1-t)*float64(r.From)
	return fold(rot)
}

// SampleAt is Sample for a wall instant.
func (r *Rotation) SampleAt(now time.Time) domain.Bearing {
	return r.Sample(now.Sub(r.Start))
}

// Done reports whether the sweep has reached t >= 1 after elapsed.
func (r *Rotation) Done(elapsed time.Duration) bool {
	return r.Progress(elapsed) >= 1
}

func fold(rot float64) domain.Bearing {
	if -rot > 180 {
		return domain.Bearing(rot / 2)
	}
	return domain.Bearing(rot)
}

// Smoother owns at most one Rotation for a single marker and remembers the
// last rotation it emitted.
type Smoother struct {
	duration  time.Duration
	displayed domain.Bearing
	current   *Rotation
}

// NewSmoother starts with the icon at initial. A non-positive duration means
// RotateDuration.
func NewSmoother(initial domain.Bearing, duration time.Duration) *Smoother {
	if duration <= 0 {
		duration = RotateDuration
	}
	return &Smoother{duration: duration, displayed: initial}
}

// RotateTo replaces any running sweep with one from the currently displayed
// rotation toward target.
func (s *Smoother) RotateTo(target domain.Bearing, now time.Time) *Rotation {
	r := BeginRotation(s.displayed, target, now)
	r.Duration = s.duration
	s.current = r
	return r
}

// Rotation samples the running sweep at now and records the value as
// displayed. Once the sweep is done it is discarded.
func (s *Smoother) Rotation(now time.Time) domain.Bearing {
	if s.current == nil {
		return s.displayed
	}
	s.displayed = s.current.SampleAt(now)
	if s.current.Done(now.Sub(s.current.Start)) {
		s.current = nil
	}
	return s.displayed
}

// IsActive reports whether a sweep is still running at now.
func (s *Smoother) IsActive(now time.Time) bool {
	return s.current != nil && !s.current.Done(now.Sub(s.current.Start))
}

// Displayed returns the last emitted rotation.
func (s *Smoother) Displayed() domain.Bearing {
	return s.displayed
}
