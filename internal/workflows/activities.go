package workflows

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/markermove/internal/core/domain"
)

// FixLoader reads recorded fixes for a time window, oldest first.
type FixLoader interface {
	Replay(ctx context.Context, markerID string, from, to time.Time) ([]domain.Fix, error)
}

// FixPublisher puts a fix onto the fix stream.
type FixPublisher interface {
	PublishFix(ctx context.Context, fix *domain.Fix) error
}

// ReplayActivities holds the activity implementations for the replay workflow.
type ReplayActivities struct {
	Fixes     FixLoader
	Publisher FixPublisher
}

// LoadFixes returns up to limit recorded fixes of a marker in [from, to).
func (a *ReplayActivities) LoadFixes(ctx context.Context, markerID string, from, to time.Time, limit int) ([]domain.Fix, error) {
	fixes, err := a.Fixes.Replay(ctx, markerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load fixes for %s: %w", markerID, err)
	}
	if limit > 0 && len(fixes) > limit {
		slog.WarnContext(ctx, "replay window truncated", "marker_id", markerID, "fixes", len(fixes), "limit", limit)
		fixes = fixes[:limit]
	}
	return fixes, nil
}

// PublishFix publishes one replayed fix.
func (a *ReplayActivities) PublishFix(ctx context.Context, fix domain.Fix) error {
	if err := a.Publisher.PublishFix(ctx, &fix); err != nil {
		return fmt.Errorf("publish replayed fix for %s: %w", fix.MarkerID, err)
	}
	return nil
}
