// Package gtfsrt turns GTFS-Realtime VehiclePositions feeds into marker
// fixes.
package gtfsrt

import (
	"fmt"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/samirrijal/markermove/internal/core/domain"
)

// Decode parses a protobuf FeedMessage and returns one fix per vehicle
// entity that carries a valid position. Marker ids are the vehicle id (or
// label, or entity id) with prefix prepended. Entities without a timestamp
// take the feed header timestamp, or now when the header has none.
func Decode(data []byte, prefix string, now time.Time) ([]domain.Fix, error) {
	feed := &gtfsrtpb.FeedMessage{}
	if err := proto.Unmarshal(data, feed); err != nil {
		return nil, fmt.Errorf("unmarshal protobuf: %w", err)
	}

	fallback := now
	if ts := feed.GetHeader().GetTimestamp(); ts > 0 {
		fallback = time.Unix(int64(ts), 0).UTC()
	}

	var fixes []domain.Fix
	for _, entity := range feed.GetEntity() {
		vp := entity.GetVehicle()
		if vp == nil || vp.GetPosition() == nil {
			continue
		}
		pos := vp.GetPosition()

		id := vehicleID(entity)
		if id == "" {
			continue
		}

		loc := domain.GeoPoint{
			Lat: float64(pos.GetLatitude()),
			Lon: float64(pos.GetLongitude()),
		}
		if loc.Validate() != nil {
			continue
		}

		ts := fallback
		if vp.Timestamp != nil {
			ts = time.Unix(int64(vp.GetTimestamp()), 0).UTC()
		}

		fix := domain.Fix{
			MarkerID: prefix + id,
			Location: loc,
			Source:   domain.SourceFeed,
			Time:     ts,
		}
		if pos.Speed != nil {
			speed := float64(pos.GetSpeed())
			fix.Speed = &speed
		}
		fixes = append(fixes, fix)
	}
	return fixes, nil
}

func vehicleID(entity *gtfsrtpb.FeedEntity) string {
	if v := entity.GetVehicle().GetVehicle(); v != nil {
		if id := v.GetId(); id != "" {
			return id
		}
		if label := v.GetLabel(); label != "" {
			return label
		}
	}
	return entity.GetId()
}
