package usecases

import (
	"time"

	"github.com/samirrijal/markermove/internal/core/domain"
	"github.com/samirrijal/markermove/internal/core/motion"
)

// DefaultDebounce is how long a tracking fix must stay the newest before it
// moves the marker.
const DefaultDebounce = 300 * time.Millisecond

// TrackerConfig tunes a single marker's animation.
type TrackerConfig struct {
	MoveDuration   time.Duration
	RotateDuration time.Duration
	Debounce       time.Duration
}

// Move describes a transition started by a fix or tap.
type Move struct {
	From       domain.GeoPoint
	To         domain.GeoPoint
	Heading    domain.Bearing
	Start      time.Time
	Retargeted bool
}

type pendingFix struct {
	point domain.GeoPoint
	due   time.Time
}

// Tracker animates one marker. It is not safe for concurrent use; the owner
// must deliver events and ticks one at a time, in order.
type Tracker struct {
	id       string
	debounce time.Duration
	mode     domain.Mode
	ip       *motion.Interpolator
	sm       *motion.Smoother
	heading  domain.Bearing

	previous  *domain.GeoPoint
	pending   *pendingFix
	lastEvent time.Time
	animating bool
}

// NewTracker places a marker at start with the icon pointing north.
func NewTracker(id string, start domain.GeoPoint, cfg TrackerConfig, now time.Time) *Tracker {
	return &Tracker{
		id:        id,
		debounce:  cfg.Debounce,
		mode:      domain.ModeTracking,
		ip:        motion.NewInterpolator(start, cfg.MoveDuration),
		sm:        motion.NewSmoother(0, cfg.RotateDuration),
		lastEvent: now,
	}
}

// ID returns the marker id.
func (t *Tracker) ID() string { return t.id }

// LastEvent is the time of the most recent fix or tap.
func (t *Tracker) LastEvent() time.Time { return t.lastEvent }

// OnTap moves the marker to p straight away.
func (t *Tracker) OnTap(p domain.GeoPoint, now time.Time) Move {
	t.mode = domain.ModeTap
	t.pending = nil
	t.lastEvent = now
	return t.apply(p, now)
}

// OnFix records a tracking fix. The fix only moves the marker once the
// debounce window passes without a newer one; with no debounce it applies
// at once. replaced reports whether an earlier pending fix was dropped.
func (t *Tracker) OnFix(p domain.GeoPoint, now time.Time) (move *Move, replaced bool) {
	t.mode = domain.ModeTracking
	t.lastEvent = now
	prev := p
	t.previous = &prev

	if t.debounce <= 0 {
		m := t.apply(p, now)
		return &m, false
	}

	replaced = t.pending != nil
	t.pending = &pendingFix{point: p, due: now.Add(t.debounce)}
	return nil, replaced
}

// Flush applies a pending fix whose debounce window has passed by now. The
// transition starts at the instant the window closed.
func (t *Tracker) Flush(now time.Time) *Move {
	if t.pending == nil || now.Before(t.pending.due) {
		return nil
	}
	p := t.pending
	t.pending = nil
	m := t.apply(p.point, p.due)
	return &m
}

func (t *Tracker) apply(target domain.GeoPoint, now time.Time) Move {
	tr, retargeted := t.ip.MoveTo(target, now)
	heading := motion.ComputeHeading(tr.From, target)
	t.sm.Rotation(now)
	t.sm.RotateTo(heading, now)
	t.heading = heading
	return Move{
		From:       tr.From,
		To:         target,
		Heading:    heading,
		Start:      now,
		Retargeted: retargeted,
	}
}

// Tick samples the marker at now. emit is true while the marker is moving or
// rotating, and once more for the frame where it comes to rest.
func (t *Tracker) Tick(now time.Time) (frame domain.Frame, emit bool) {
	pos := t.ip.Position(now)
	rot := t.sm.Rotation(now)
	moving := t.ip.IsActive(now)
	rotating := t.sm.IsActive(now)

	frame = domain.Frame{
		MarkerID: t.id,
		Time:     now,
		Position: pos,
		Rotation: rot,
		Moving:   moving,
		Rotating: rotating,
	}

	active := moving || rotating
	emit = active || t.animating
	t.animating = active
	return frame, emit
}

// Idle reports whether nothing is animating or pending at now.
func (t *Tracker) Idle(now time.Time) bool {
	return t.pending == nil && !t.ip.IsActive(now) && !t.sm.IsActive(now)
}

// State returns the marker state at now.
func (t *Tracker) State(now time.Time) domain.MarkerState {
	return domain.MarkerState{
		MarkerID:      t.id,
		Mode:          t.mode,
		Position:      t.ip.Position(now),
		Rotation:      t.sm.Rotation(now),
		Target:        t.ip.Target(),
		TargetHeading: t.heading,
		Animating:     t.ip.IsActive(now) || t.sm.IsActive(now),
		LastFix:       t.previous,
		UpdatedAt:     now,
	}
}
