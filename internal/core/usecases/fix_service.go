package usecases

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/markermove/internal/core/domain"
	"github.com/samirrijal/markermove/internal/core/motion"
	"github.com/samirrijal/markermove/internal/core/ports"
	"github.com/samirrijal/markermove/internal/pkg/geospatial"
	"github.com/samirrijal/markermove/internal/pkg/metrics"
	"github.com/samirrijal/markermove/internal/pkg/telemetry"
)

const (
	defaultTrackLimit = 100
	maxTrackLimit     = 500
)

// FixSink accepts fixes for animation.
type FixSink interface {
	Submit(ctx context.Context, fix domain.Fix) error
}

// FixService records location fixes and feeds them to the animator.
type FixService struct {
	fixes    ports.FixRepository
	animator FixSink
	clock    ports.Clock
}

// NewFixService creates a new FixService. A nil clock means the wall clock.
func NewFixService(fixes ports.FixRepository, animator FixSink, clock ports.Clock) *FixService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &FixService{fixes: fixes, animator: animator, clock: clock}
}

// Ingest validates, stores and animates one fix. A missing time is stamped
// with the current clock reading and a missing source defaults to gps.
func (s *FixService) Ingest(ctx context.Context, fix *domain.Fix) error {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanFixIngest, trace.WithAttributes(
		attribute.String(telemetry.AttrMarkerID, fix.MarkerID),
		attribute.String(telemetry.AttrFixSource, string(fix.Source)),
	))
	defer span.End()

	if fix.MarkerID == "" {
		return fmt.Errorf("%w: marker id is required", domain.ErrInvalidFix)
	}
	if err := fix.Location.Validate(); err != nil {
		return err
	}
	if fix.Source == "" {
		fix.Source = domain.SourceGPS
	}
	if fix.Time.IsZero() {
		fix.Time = s.clock.Now()
	}

	if err := s.fixes.Insert(ctx, fix); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("insert fix: %w", err)
	}

	if err := s.animator.Submit(ctx, *fix); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("animate fix: %w", err)
	}

	metrics.FixesIngested.WithLabelValues(string(fix.Source)).Inc()
	return nil
}

// Track returns the recorded fixes of a marker, newest first.
func (s *FixService) Track(ctx context.Context, markerID string, limit int) ([]domain.Fix, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanFixTrack, trace.WithAttributes(
		attribute.String(telemetry.AttrMarkerID, markerID),
	))
	defer span.End()

	if limit <= 0 {
		limit = defaultTrackLimit
	}
	if limit > maxTrackLimit {
		limit = maxTrackLimit
	}

	fixes, err := s.fixes.ListByMarker(ctx, markerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list fixes: %w", err)
	}
	if len(fixes) == 0 {
		return nil, domain.ErrMarkerNotFound
	}
	return fixes, nil
}

// Replay returns the fixes recorded for a marker in [from, to), oldest
// first.
func (s *FixService) Replay(ctx context.Context, markerID string, from, to time.Time) ([]domain.Fix, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("%w: empty replay window", domain.ErrInvalidFix)
	}
	fixes, err := s.fixes.ListBetween(ctx, markerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list fixes: %w", err)
	}
	return fixes, nil
}

// HeadingResult is the bearing between two points plus the distance
// separating them.
type HeadingResult struct {
	From     domain.GeoPoint `json:"from"`
	To       domain.GeoPoint `json:"to"`
	Heading  domain.Bearing  `json:"heading"`
	Distance float64         `json:"distance_m"`
}

// Heading computes the initial bearing from one point to another.
func (s *FixService) Heading(from, to domain.GeoPoint) (*HeadingResult, error) {
	if err := from.Validate(); err != nil {
		return nil, err
	}
	if err := to.Validate(); err != nil {
		return nil, err
	}
	return &HeadingResult{
		From:     from,
		To:       to,
		Heading:  motion.ComputeHeading(from, to),
		Distance: geospatial.Distance(from.Lat, from.Lon, to.Lat, to.Lon),
	}, nil
}
