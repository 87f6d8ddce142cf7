package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/samirrijal/markermove/internal/core/domain"
	"github.com/samirrijal/markermove/internal/core/motion"
	"github.com/samirrijal/markermove/internal/core/ports"
	"github.com/samirrijal/markermove/internal/pkg/geospatial"
	"github.com/samirrijal/markermove/internal/pkg/metrics"
)

// DefaultIdleTTL is how long a resting marker without events is kept.
const DefaultIdleTTL = 10 * time.Minute

// DefaultStart is where a marker first driven by a tap appears.
var DefaultStart = domain.GeoPoint{Lat: -6.21462, Lon: 106.84513}

// AnimatorConfig tunes the Animator.
type AnimatorConfig struct {
	Tracker       TrackerConfig
	FrameInterval time.Duration
	IdleTTL       time.Duration
	// TapStart is where a new marker sits before its first tap moves it.
	TapStart *domain.GeoPoint
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Animator owns the trackers of every live marker. All events and ticks go
// through one mutex, so each tracker sees them serialized in arrival order.
type Animator struct {
	cfg   AnimatorConfig
	clock ports.Clock

	mu       sync.Mutex
	trackers map[string]*Tracker
}

// NewAnimator creates an Animator. A nil clock means the wall clock.
func NewAnimator(cfg AnimatorConfig, clock ports.Clock) *Animator {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = motion.FrameInterval
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	if cfg.TapStart == nil {
		start := DefaultStart
		cfg.TapStart = &start
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Animator{cfg: cfg, clock: clock, trackers: make(map[string]*Tracker)}
}

// Submit routes a fix to its marker: taps move it at once, everything else
// goes through the tracking debounce.
func (a *Animator) Submit(ctx context.Context, fix domain.Fix) error {
	if fix.MarkerID == "" {
		return fmt.Errorf("%w: empty marker id", domain.ErrInvalidFix)
	}
	if err := fix.Location.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	mode := fix.Source.Mode()
	t, ok := a.trackers[fix.MarkerID]
	if !ok {
		// A tracked marker appears at its first fix; a tapped one starts
		// from the configured point and travels to the tap.
		start := fix.Location
		if mode == domain.ModeTap {
			start = *a.cfg.TapStart
		}
		t = NewTracker(fix.MarkerID, start, a.cfg.Tracker, now)
		a.trackers[fix.MarkerID] = t
		metrics.ActiveMarkers.Set(float64(len(a.trackers)))
	}

	var move *Move
	if mode == domain.ModeTap {
		m := t.OnTap(fix.Location, now)
		move = &m
	} else {
		// Anything still waiting out its window is due by now.
		if m := t.Flush(now); m != nil {
			a.observe(ctx, t.ID(), m)
		}
		var replaced bool
		move, replaced = t.OnFix(fix.Location, now)
		if replaced {
			metrics.FixesDebounced.Inc()
		}
	}
	if move != nil {
		a.observe(ctx, t.ID(), move)
	}
	return nil
}

func (a *Animator) observe(ctx context.Context, markerID string, m *Move) {
	if m.Retargeted {
		metrics.Retargets.Inc()
	}
	metrics.HopDistance.Observe(geospatial.Distance(m.From.Lat, m.From.Lon, m.To.Lat, m.To.Lon))
	slog.DebugContext(ctx, "marker move",
		"marker_id", markerID,
		"old_loc", m.From,
		"new_loc", m.To,
		"heading", float64(m.Heading),
		"retargeted", m.Retargeted,
	)
}

// Tick advances every marker to the current clock reading and returns the
// frames worth publishing. Idle markers past IdleTTL are evicted.
func (a *Animator) Tick(ctx context.Context) []domain.Frame {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	var frames []domain.Frame
	for id, t := range a.trackers {
		if m := t.Flush(now); m != nil {
			a.observe(ctx, id, m)
		}
		if f, emit := t.Tick(now); emit {
			frames = append(frames, f)
		}
		if t.Idle(now) && now.Sub(t.LastEvent()) > a.cfg.IdleTTL {
			delete(a.trackers, id)
			slog.DebugContext(ctx, "marker evicted", "marker_id", id)
		}
	}
	metrics.ActiveMarkers.Set(float64(len(a.trackers)))

	sort.Slice(frames, func(i, j int) bool { return frames[i].MarkerID < frames[j].MarkerID })
	return frames
}

// Run ticks at the frame interval until ctx is cancelled, handing each frame
// to pub. Publish errors are logged and do not stop the loop.
func (a *Animator) Run(ctx context.Context, pub ports.FramePublisher) error {
	ticker := time.NewTicker(a.cfg.FrameInterval)
	defer ticker.Stop()

	slog.Info("animator started", "frame_interval", a.cfg.FrameInterval.String())
	for {
		select {
		case <-ctx.Done():
			slog.Info("animator stopped")
			return nil
		case <-ticker.C:
			for _, f := range a.Tick(ctx) {
				if err := pub.PublishFrame(ctx, &f); err != nil {
					slog.WarnContext(ctx, "publish frame failed", "marker_id", f.MarkerID, "error", err)
					continue
				}
				metrics.FramesPublished.Inc()
			}
		}
	}
}

// Snapshot returns the current state of a marker.
func (a *Animator) Snapshot(markerID string) (domain.MarkerState, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	t, ok := a.trackers[markerID]
	if !ok {
		return domain.MarkerState{}, domain.ErrMarkerNotFound
	}
	now := a.clock.Now()
	if m := t.Flush(now); m != nil {
		a.observe(context.Background(), markerID, m)
	}
	return t.State(now), nil
}

// Markers lists the ids of live markers in order.
func (a *Animator) Markers() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	ids := make([]string, 0, len(a.trackers))
	for id := range a.trackers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
