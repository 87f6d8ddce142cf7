package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/markermove/internal/core/domain"
	"github.com/samirrijal/markermove/internal/core/ports"
)

var fixColumns = []string{"marker_id", "time", "source", "lat", "lon", "accuracy", "speed"}

var _ ports.FixRepository = (*FixRepo)(nil)

// FixRepo implements ports.FixRepository with pgx.
type FixRepo struct {
	db *DB
}

// NewFixRepo creates a new FixRepo.
func NewFixRepo(db *DB) *FixRepo {
	return &FixRepo{db: db}
}

// Insert stores a single fix and sets its ID.
func (r *FixRepo) Insert(ctx context.Context, f *domain.Fix) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO marker_fixes (marker_id, time, source, lat, lon, accuracy, speed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, f.MarkerID, f.Time, string(f.Source), f.Location.Lat, f.Location.Lon,
		f.Accuracy, f.Speed).Scan(&f.ID)
}

// InsertBatch bulk-loads fixes with COPY.
func (r *FixRepo) InsertBatch(ctx context.Context, fixes []domain.Fix) (int64, error) {
	n, err := r.db.Pool.CopyFrom(ctx,
		pgx.Identifier{"marker_fixes"},
		fixColumns,
		pgx.CopyFromSlice(len(fixes), func(i int) ([]any, error) {
			f := fixes[i]
			return []any{
				f.MarkerID, f.Time, string(f.Source),
				f.Location.Lat, f.Location.Lon, f.Accuracy, f.Speed,
			}, nil
		}),
	)
	if err != nil {
		return n, fmt.Errorf("copy fixes: %w", err)
	}
	return n, nil
}

// ListByMarker returns up to limit fixes, newest first.
func (r *FixRepo) ListByMarker(ctx context.Context, markerID string, limit int) ([]domain.Fix, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, marker_id, time, source, lat, lon, accuracy, speed
		FROM marker_fixes
		WHERE marker_id = $1
		ORDER BY time DESC, id DESC
		LIMIT $2
	`, markerID, limit)
	if err != nil {
		return nil, err
	}
	return collectFixes(rows)
}

// ListBetween returns fixes recorded in [from, to), oldest first.
func (r *FixRepo) ListBetween(ctx context.Context, markerID string, from, to time.Time) ([]domain.Fix, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, marker_id, time, source, lat, lon, accuracy, speed
		FROM marker_fixes
		WHERE marker_id = $1 AND time >= $2 AND time < $3
		ORDER BY time, id
	`, markerID, from, to)
	if err != nil {
		return nil, err
	}
	return collectFixes(rows)
}

// Latest returns the newest fix of a marker.
func (r *FixRepo) Latest(ctx context.Context, markerID string) (*domain.Fix, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, marker_id, time, source, lat, lon, accuracy, speed
		FROM marker_fixes
		WHERE marker_id = $1
		ORDER BY time DESC, id DESC
		LIMIT 1
	`, markerID)
	if err != nil {
		return nil, err
	}
	f, err := pgx.CollectExactlyOneRow(rows, scanFix)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMarkerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func collectFixes(rows pgx.Rows) ([]domain.Fix, error) {
	fixes, err := pgx.CollectRows(rows, scanFix)
	if err != nil {
		return nil, fmt.Errorf("scan fixes: %w", err)
	}
	return fixes, nil
}

func scanFix(row pgx.CollectableRow) (domain.Fix, error) {
	var f domain.Fix
	var source string
	err := row.Scan(
		&f.ID, &f.MarkerID, &f.Time, &source,
		&f.Location.Lat, &f.Location.Lon, &f.Accuracy, &f.Speed,
	)
	f.Source = domain.FixSource(source)
	return f, err
}
