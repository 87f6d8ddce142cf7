package gtfsrt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/samirrijal/markermove/internal/core/domain"
)

func vehicleEntity(entityID, vehicleID string, lat, lon float32, ts uint64) *gtfsrtpb.FeedEntity {
	vp := &gtfsrtpb.VehiclePosition{
		Position: &gtfsrtpb.Position{
			Latitude:  proto.Float32(lat),
			Longitude: proto.Float32(lon),
		},
	}
	if vehicleID != "" {
		vp.Vehicle = &gtfsrtpb.VehicleDescriptor{Id: proto.String(vehicleID)}
	}
	if ts > 0 {
		vp.Timestamp = proto.Uint64(ts)
	}
	return &gtfsrtpb.FeedEntity{Id: proto.String(entityID), Vehicle: vp}
}

func sampleFeed(t *testing.T) []byte {
	t.Helper()
	withSpeed := vehicleEntity("e2", "", -6.21, 106.81, 0)
	withSpeed.Vehicle.Position.Speed = proto.Float32(12.5)

	feed := &gtfsrtpb.FeedMessage{
		Header: &gtfsrtpb.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Timestamp:           proto.Uint64(1569916800),
		},
		Entity: []*gtfsrtpb.FeedEntity{
			vehicleEntity("e1", "bus-1", -6.2, 106.8, 1569916790),
			withSpeed,
			vehicleEntity("e3", "bad", 95, 0, 0),
			{Id: proto.String("alert-1"), Alert: &gtfsrtpb.Alert{}},
		},
	}
	data, err := proto.Marshal(feed)
	if err != nil {
		t.Fatalf("marshal feed: %v", err)
	}
	return data
}

func TestDecode(t *testing.T) {
	fixes, err := Decode(sampleFeed(t), "vehicle-", time.Now())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(fixes) != 2 {
		t.Fatalf("expected 2 fixes, got %d: %+v", len(fixes), fixes)
	}

	first := fixes[0]
	if first.MarkerID != "vehicle-bus-1" || first.Source != domain.SourceFeed {
		t.Errorf("unexpected first fix %+v", first)
	}
	if !first.Time.Equal(time.Unix(1569916790, 0)) {
		t.Errorf("first fix time = %v", first.Time)
	}
	if diff := first.Location.Lat - (-6.2); diff > 1e-5 || diff < -1e-5 {
		t.Errorf("lat = %v", first.Location.Lat)
	}

	second := fixes[1]
	if second.MarkerID != "vehicle-e2" {
		t.Errorf("entity id fallback: got %q", second.MarkerID)
	}
	if !second.Time.Equal(time.Unix(1569916800, 0)) {
		t.Errorf("header timestamp fallback: got %v", second.Time)
	}
	if second.Speed == nil || *second.Speed != 12.5 {
		t.Errorf("speed = %v", second.Speed)
	}
}

func TestDecode_Garbage(t *testing.T) {
	if _, err := Decode([]byte{0xff, 0xff, 0xff}, "", time.Now()); err == nil {
		t.Error("expected error for malformed protobuf")
	}
}

type collectingPublisher struct {
	mu    sync.Mutex
	fixes []domain.Fix
}

func (c *collectingPublisher) PublishFix(ctx context.Context, fix *domain.Fix) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fixes = append(c.fixes, *fix)
	return nil
}

func TestPoller_Poll(t *testing.T) {
	data := sampleFeed(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-protobuf")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	pub := &collectingPublisher{}
	p := NewPoller(srv.Client(), srv.URL, "v-", pub)

	n, err := p.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if n != 2 || len(pub.fixes) != 2 {
		t.Fatalf("published %d (%d collected), want 2", n, len(pub.fixes))
	}
	if pub.fixes[0].MarkerID != "v-bus-1" {
		t.Errorf("marker id = %q", pub.fixes[0].MarkerID)
	}
}

func TestPoller_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewPoller(srv.Client(), srv.URL, "", &collectingPublisher{})
	if _, err := p.Poll(context.Background()); err == nil {
		t.Error("expected error for 503")
	}
}
