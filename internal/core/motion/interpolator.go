package motion

import (
	"time"

	"github.com/samirrijal/markermove/internal/core/domain"
)

// MoveDuration is the length of every position transition, whatever the
// distance covered.
const MoveDuration = 2000 * time.Millisecond

// Lerp interpolates each axis independently. This is planar interpolation,
// not a great-circle path; hops between consecutive fixes are short enough
// for the difference to stay invisible on the map.
func Lerp(from, to domain.GeoPoint, f float64) domain.GeoPoint {
	return domain.GeoPoint{
		Lat: from.Lat + (to.Lat-from.Lat)*f,
		Lon: from.Lon + (to.Lon-from.Lon)*f,
	}
}

// Transition is one timed move of a marker between two points.
type Transition struct {
	From     domain.GeoPoint
	To       domain.GeoPoint
	Start    time.Time
	Duration time.Duration
}

// BeginTransition starts a MoveDuration transition at start.
func BeginTransition(from, to domain.GeoPoint, start time.Time) *Transition {
	return &Transition{From: from, To: to, Start: start, Duration: MoveDuration}
}

// Fraction returns elapsed/Duration clamped to [0, 1].
func (t *Transition) Fraction(elapsed time.Duration) float64 {
	return clampFraction(elapsed, t.Duration)
}

// Sample returns the interpolated point after elapsed. The endpoints are
// returned exactly at f = 0 and f = 1.
func (t *Transition) Sample(elapsed time.Duration) domain.GeoPoint {
	f := t.Fraction(elapsed)
	switch {
	case f <= 0:
		return t.From
	case f >= 1:
		return t.To
	}
	return Lerp(t.From, t.To, f)
}

// SampleAt is Sample with the elapsed time taken from a wall instant.
func (t *Transition) SampleAt(now time.Time) domain.GeoPoint {
	return t.Sample(now.Sub(t.Start))
}

// Active reports whether the transition is still running after elapsed.
func (t *Transition) Active(elapsed time.Duration) bool {
	return elapsed < t.Duration
}

// ActiveAt is Active for a wall instant.
func (t *Transition) ActiveAt(now time.Time) bool {
	return t.Active(now.Sub(t.Start))
}

// Interpolator owns at most one in-flight Transition for a single marker.
type Interpolator struct {
	duration time.Duration
	rest     domain.GeoPoint
	current  *Transition
}

// NewInterpolator places the marker at start. A non-positive duration means
// MoveDuration.
func NewInterpolator(start domain.GeoPoint, duration time.Duration) *Interpolator {
	if duration <= 0 {
		duration = MoveDuration
	}
	return &Interpolator{duration: duration, rest: start}
}

// MoveTo starts a transition toward target. When a transition is still
// running at now it is dropped and the new one starts from the point it had
// reached, so the marker never jumps. The second result reports whether such
// a retarget happened.
func (ip *Interpolator) MoveTo(target domain.GeoPoint, now time.Time) (*Transition, bool) {
	from := ip.rest
	retargeted := false
	if ip.current != nil {
		if ip.current.ActiveAt(now) {
			from = ip.current.SampleAt(now)
			retargeted = true
		} else {
			from = ip.current.To
		}
	}

	t := BeginTransition(from, target, now)
	t.Duration = ip.duration
	ip.current = t
	ip.rest = from
	return t, retargeted
}

// Position returns the marker position at now. A finished transition is
// discarded and its end point becomes the resting position.
func (ip *Interpolator) Position(now time.Time) domain.GeoPoint {
	if ip.current == nil {
		return ip.rest
	}
	p := ip.current.SampleAt(now)
	if !ip.current.ActiveAt(now) {
		ip.rest = ip.current.To
		ip.current = nil
	}
	return p
}

// IsActive reports whether a transition is running at now.
func (ip *Interpolator) IsActive(now time.Time) bool {
	return ip.current != nil && ip.current.ActiveAt(now)
}

// Current returns the in-flight transition, or nil.
func (ip *Interpolator) Current() *Transition {
	return ip.current
}

// Target is where the marker is heading, or where it rests.
func (ip *Interpolator) Target() domain.GeoPoint {
	if ip.current != nil {
		return ip.current.To
	}
	return ip.rest
}

func clampFraction(elapsed, total time.Duration) float64 {
	if total <= 0 {
		return 1
	}
	f := float64(elapsed) / float64(total)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
