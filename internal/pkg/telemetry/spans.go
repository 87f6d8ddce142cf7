package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope for every span the service starts.
const TracerName = "github.com/samirrijal/markermove"

// Span names used for instrumentation.
const (
	SpanFixIngest   = "fix.ingest"
	SpanFixTrack    = "fix.track"
	SpanStateLookup = "state.lookup"
	SpanFeedPoll    = "feed.poll"
	SpanReplay      = "replay.publish"
)

// Attribute keys attached to spans.
const (
	AttrMarkerID  = "marker.id"
	AttrFixSource = "fix.source"
	AttrFeedURL   = "feed.url"
)

// Tracer returns the service tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}
