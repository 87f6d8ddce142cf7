package http_test

import (
	"context"
	"sort"
	"sync"
	"time"

	handler "github.com/samirrijal/markermove/internal/adapters/http"
	"github.com/samirrijal/markermove/internal/core/domain"
	"github.com/samirrijal/markermove/internal/core/usecases"
)

var epoch = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

// ---- Fake clock ----

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: epoch} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// ---- In-memory FixRepository ----

type memFixRepo struct {
	mu    sync.Mutex
	fixes []domain.Fix
	err   error
}

func (m *memFixRepo) Insert(ctx context.Context, fix *domain.Fix) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	fix.ID = int64(len(m.fixes) + 1)
	m.fixes = append(m.fixes, *fix)
	return nil
}

func (m *memFixRepo) InsertBatch(ctx context.Context, fixes []domain.Fix) (int64, error) {
	for i := range fixes {
		if err := m.Insert(ctx, &fixes[i]); err != nil {
			return int64(i), err
		}
	}
	return int64(len(fixes)), nil
}

func (m *memFixRepo) byMarker(markerID string) []domain.Fix {
	var out []domain.Fix
	for _, f := range m.fixes {
		if f.MarkerID == markerID {
			out = append(out, f)
		}
	}
	return out
}

func (m *memFixRepo) ListByMarker(ctx context.Context, markerID string, limit int) ([]domain.Fix, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.byMarker(markerID)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.After(out[j].Time) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memFixRepo) ListBetween(ctx context.Context, markerID string, from, to time.Time) ([]domain.Fix, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Fix
	for _, f := range m.byMarker(markerID) {
		if !f.Time.Before(from) && f.Time.Before(to) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memFixRepo) Latest(ctx context.Context, markerID string) (*domain.Fix, error) {
	out, _ := m.ListByMarker(ctx, markerID, 1)
	if len(out) == 0 {
		return nil, domain.ErrMarkerNotFound
	}
	return &out[0], nil
}

// ---- Wiring ----

type testEnv struct {
	deps     *handler.Dependencies
	repo     *memFixRepo
	clock    *fakeClock
	animator *usecases.Animator
}

func newTestDeps(clock *fakeClock) *testEnv {
	repo := &memFixRepo{}
	animator := usecases.NewAnimator(usecases.AnimatorConfig{
		Tracker: usecases.TrackerConfig{Debounce: usecases.DefaultDebounce},
	}, clock)
	return &testEnv{
		deps: &handler.Dependencies{
			Fixes:    usecases.NewFixService(repo, animator, clock),
			States:   usecases.NewStateService(animator, nil, repo, nil, 0),
			Animator: animator,
		},
		repo:     repo,
		clock:    clock,
		animator: animator,
	}
}
