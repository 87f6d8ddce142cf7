package usecases_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/samirrijal/markermove/internal/core/domain"
)

var errCacheMiss = errors.New("cache miss")

// --- Fake clock ---

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

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

// --- Mock FixRepository ---

type mockFixRepo struct {
	insertFn       func(ctx context.Context, fix *domain.Fix) error
	listByMarkerFn func(ctx context.Context, markerID string, limit int) ([]domain.Fix, error)
	listBetweenFn  func(ctx context.Context, markerID string, from, to time.Time) ([]domain.Fix, error)
	latestFn       func(ctx context.Context, markerID string) (*domain.Fix, error)

	inserted []domain.Fix
}

func (m *mockFixRepo) Insert(ctx context.Context, fix *domain.Fix) error {
	if m.insertFn != nil {
		if err := m.insertFn(ctx, fix); err != nil {
			return err
		}
	}
	fix.ID = int64(len(m.inserted) + 1)
	m.inserted = append(m.inserted, *fix)
	return nil
}

func (m *mockFixRepo) InsertBatch(ctx context.Context, fixes []domain.Fix) (int64, error) {
	m.inserted = append(m.inserted, fixes...)
	return int64(len(fixes)), nil
}

func (m *mockFixRepo) ListByMarker(ctx context.Context, markerID string, limit int) ([]domain.Fix, error) {
	if m.listByMarkerFn != nil {
		return m.listByMarkerFn(ctx, markerID, limit)
	}
	return nil, nil
}

func (m *mockFixRepo) ListBetween(ctx context.Context, markerID string, from, to time.Time) ([]domain.Fix, error) {
	if m.listBetweenFn != nil {
		return m.listBetweenFn(ctx, markerID, from, to)
	}
	return nil, nil
}

func (m *mockFixRepo) Latest(ctx context.Context, markerID string) (*domain.Fix, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx, markerID)
	}
	return nil, domain.ErrMarkerNotFound
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte), ttls: make(map[string]int)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errCacheMiss
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Recording FramePublisher ---

type recordingPublisher struct {
	mu     sync.Mutex
	frames []domain.Frame
	err    error
}

func (p *recordingPublisher) PublishFrame(ctx context.Context, frame *domain.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, *frame)
	return p.err
}

func (p *recordingPublisher) Frames() []domain.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Frame(nil), p.frames...)
}

// --- Mock FixSink ---

type mockSink struct {
	submitted []domain.Fix
	err       error
}

func (m *mockSink) Submit(ctx context.Context, fix domain.Fix) error {
	if m.err != nil {
		return m.err
	}
	m.submitted = append(m.submitted, fix)
	return nil
}
