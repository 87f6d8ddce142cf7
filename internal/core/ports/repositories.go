package ports

import (
	"context"
	"time"

	"github.com/samirrijal/markermove/internal/core/domain"
)

// FixRepository persists accepted location fixes.
type FixRepository interface {
	// Insert stores one fix and sets its ID.
	Insert(ctx context.Context, fix *domain.Fix) error
	// InsertBatch bulk-loads fixes and returns the number of rows written.
	InsertBatch(ctx context.Context, fixes []domain.Fix) (int64, error)
	// ListByMarker returns up to limit fixes for a marker, newest first.
	ListByMarker(ctx context.Context, markerID string, limit int) ([]domain.Fix, error)
	// ListBetween returns the fixes recorded in [from, to), oldest first.
	ListBetween(ctx context.Context, markerID string, from, to time.Time) ([]domain.Fix, error)
	// Latest returns the newest fix or domain.ErrMarkerNotFound.
	Latest(ctx context.Context, markerID string) (*domain.Fix, error)
}
