package usecases_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/samirrijal/markermove/internal/core/domain"
	"github.com/samirrijal/markermove/internal/core/usecases"
)

type stubSnapshotter struct {
	states map[string]domain.MarkerState
}

func (s *stubSnapshotter) Snapshot(id string) (domain.MarkerState, error) {
	if st, ok := s.states[id]; ok {
		return st, nil
	}
	return domain.MarkerState{}, domain.ErrMarkerNotFound
}

func TestStateService_GetLive(t *testing.T) {
	live := &stubSnapshotter{states: map[string]domain.MarkerState{
		"m": {MarkerID: "m", Mode: domain.ModeTracking, Animating: true},
	}}
	svc := usecases.NewStateService(live, newMockCache(), &mockFixRepo{}, nil, 0)

	st, err := svc.Get(context.Background(), "m")
	if err != nil {
		t.Fatal(err)
	}
	if !st.Animating {
		t.Errorf("expected live state, got %+v", st)
	}
}

func TestStateService_RestingFrameIsCached(t *testing.T) {
	live := &stubSnapshotter{states: map[string]domain.MarkerState{
		"m": {MarkerID: "m", Mode: domain.ModeTap, Position: domain.GeoPoint{Lat: 1, Lon: 2}},
	}}
	cache := newMockCache()
	next := &recordingPublisher{}
	svc := usecases.NewStateService(live, cache, nil, next, 0)
	ctx := context.Background()

	_ = svc.PublishFrame(ctx, &domain.Frame{MarkerID: "m", Moving: true})
	if _, err := cache.Get(ctx, "marker:state:m"); err == nil {
		t.Fatal("moving frame should not be cached")
	}

	_ = svc.PublishFrame(ctx, &domain.Frame{MarkerID: "m"})
	data, err := cache.Get(ctx, "marker:state:m")
	if err != nil {
		t.Fatal("resting frame not cached")
	}
	var st domain.MarkerState
	if err := json.Unmarshal(data, &st); err != nil {
		t.Fatal(err)
	}
	if st.Mode != domain.ModeTap || st.Position.Lon != 2 {
		t.Errorf("cached %+v", st)
	}
	if cache.ttls["marker:state:m"] != usecases.DefaultStateTTL {
		t.Errorf("ttl = %d, want %d", cache.ttls["marker:state:m"], usecases.DefaultStateTTL)
	}
	if len(next.Frames()) != 2 {
		t.Errorf("next publisher got %d frames, want 2", len(next.Frames()))
	}

	// Once the animator has evicted the marker the cached copy answers.
	delete(live.states, "m")
	got, err := svc.Get(ctx, "m")
	if err != nil {
		t.Fatal(err)
	}
	if got.Position.Lat != 1 {
		t.Errorf("got %+v from cache", got)
	}
}

func TestStateService_FallsBackToLatestFix(t *testing.T) {
	repo := &mockFixRepo{
		latestFn: func(ctx context.Context, id string) (*domain.Fix, error) {
			return &domain.Fix{MarkerID: id, Location: domain.GeoPoint{Lat: 3, Lon: 4}, Source: domain.SourceFeed, Time: epoch}, nil
		},
	}
	svc := usecases.NewStateService(&stubSnapshotter{}, newMockCache(), repo, nil, 0)

	st, err := svc.Get(context.Background(), "bus")
	if err != nil {
		t.Fatal(err)
	}
	if st.Position != (domain.GeoPoint{Lat: 3, Lon: 4}) || st.Mode != domain.ModeTracking || st.Animating {
		t.Errorf("unexpected state %+v", st)
	}
	if st.LastFix == nil || *st.LastFix != (domain.GeoPoint{Lat: 3, Lon: 4}) {
		t.Errorf("LastFix = %v", st.LastFix)
	}
}

func TestStateService_NotFound(t *testing.T) {
	svc := usecases.NewStateService(&stubSnapshotter{}, nil, &mockFixRepo{}, nil, 0)
	if _, err := svc.Get(context.Background(), "ghost"); !errors.Is(err, domain.ErrMarkerNotFound) {
		t.Errorf("expected ErrMarkerNotFound, got %v", err)
	}
}
