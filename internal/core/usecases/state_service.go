package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/markermove/internal/core/domain"
	"github.com/samirrijal/markermove/internal/core/ports"
	"github.com/samirrijal/markermove/internal/pkg/metrics"
	"github.com/samirrijal/markermove/internal/pkg/telemetry"
)

// DefaultStateTTL is how long a resting marker state stays cached, in seconds.
const DefaultStateTTL = 60

// Snapshotter reports the live state of a marker.
type Snapshotter interface {
	Snapshot(markerID string) (domain.MarkerState, error)
}

// StateService answers marker state queries. Live markers come from the
// animator; markers that have been evicted fall back to the cache and then
// to the last recorded fix.
type StateService struct {
	live  Snapshotter
	cache ports.CacheService
	fixes ports.FixRepository
	next  ports.FramePublisher
	ttl   int
}

// NewStateService creates a new StateService. cache and next may be nil.
func NewStateService(live Snapshotter, cache ports.CacheService, fixes ports.FixRepository, next ports.FramePublisher, ttlSeconds int) *StateService {
	if ttlSeconds <= 0 {
		ttlSeconds = DefaultStateTTL
	}
	return &StateService{live: live, cache: cache, fixes: fixes, next: next, ttl: ttlSeconds}
}

func stateKey(markerID string) string {
	return "marker:state:" + markerID
}

// PublishFrame caches the state of a marker when it comes to rest and
// passes every frame on to the next publisher.
func (s *StateService) PublishFrame(ctx context.Context, frame *domain.Frame) error {
	if s.cache != nil && !frame.Moving && !frame.Rotating {
		st, err := s.live.Snapshot(frame.MarkerID)
		if err != nil {
			st = domain.MarkerState{
				MarkerID:      frame.MarkerID,
				Position:      frame.Position,
				Rotation:      frame.Rotation,
				Target:        frame.Position,
				TargetHeading: frame.Rotation,
				UpdatedAt:     frame.Time,
			}
		}
		if data, err := json.Marshal(st); err == nil {
			if err := s.cache.Set(ctx, stateKey(frame.MarkerID), data, s.ttl); err != nil {
				slog.DebugContext(ctx, "cache marker state failed", "marker_id", frame.MarkerID, "error", err)
			}
		}
	}

	if s.next == nil {
		return nil
	}
	return s.next.PublishFrame(ctx, frame)
}

// Get returns the state of a marker.
func (s *StateService) Get(ctx context.Context, markerID string) (*domain.MarkerState, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanStateLookup, trace.WithAttributes(
		attribute.String(telemetry.AttrMarkerID, markerID),
	))
	defer span.End()

	st, err := s.live.Snapshot(markerID)
	if err == nil {
		return &st, nil
	}
	if !errors.Is(err, domain.ErrMarkerNotFound) {
		return nil, err
	}

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, stateKey(markerID)); err == nil {
			var cached domain.MarkerState
			if err := json.Unmarshal(data, &cached); err == nil {
				metrics.CacheHits.WithLabelValues("marker_state").Inc()
				return &cached, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("marker_state").Inc()
	}

	if s.fixes == nil {
		return nil, domain.ErrMarkerNotFound
	}
	fix, err := s.fixes.Latest(ctx, markerID)
	if err != nil {
		return nil, err
	}
	return &domain.MarkerState{
		MarkerID:  markerID,
		Mode:      fix.Source.Mode(),
		Position:  fix.Location,
		Target:    fix.Location,
		LastFix:   &fix.Location,
		UpdatedAt: fix.Time,
	}, nil
}
