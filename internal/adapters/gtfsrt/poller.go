package gtfsrt

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/markermove/internal/core/domain"
	"github.com/samirrijal/markermove/internal/pkg/metrics"
	"github.com/samirrijal/markermove/internal/pkg/telemetry"
)

// FixPublisher hands decoded fixes on.
type FixPublisher interface {
	PublishFix(ctx context.Context, fix *domain.Fix) error
}

// Poller fetches a VehiclePositions feed and publishes its fixes.
type Poller struct {
	client    *http.Client
	url       string
	prefix    string
	publisher FixPublisher
	now       func() time.Time
}

// NewPoller creates a Poller. A nil client gets a 30s timeout client.
func NewPoller(client *http.Client, url, markerPrefix string, publisher FixPublisher) *Poller {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Poller{client: client, url: url, prefix: markerPrefix, publisher: publisher, now: time.Now}
}

// Fetch downloads the raw feed.
func (p *Poller) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/x-protobuf")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", p.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, p.url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// Poll fetches, decodes and publishes the feed once, returning the number of
// fixes published. A failed publish is logged and skipped.
func (p *Poller) Poll(ctx context.Context) (int, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanFeedPoll, trace.WithAttributes(
		attribute.String(telemetry.AttrFeedURL, p.url),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.FeedPollDuration.WithLabelValues(p.prefix).Observe(time.Since(start).Seconds())
	}()

	data, err := p.Fetch(ctx)
	if err != nil {
		metrics.FeedPollErrors.WithLabelValues(p.prefix).Inc()
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	fixes, err := Decode(data, p.prefix, p.now())
	if err != nil {
		metrics.FeedPollErrors.WithLabelValues(p.prefix).Inc()
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	published := 0
	for i := range fixes {
		if err := p.publisher.PublishFix(ctx, &fixes[i]); err != nil {
			slog.WarnContext(ctx, "publish feed fix failed", "marker_id", fixes[i].MarkerID, "error", err)
			continue
		}
		published++
	}
	return published, nil
}

// Run polls once immediately and then every interval until ctx is done.
func (p *Poller) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := p.Poll(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "feed poll failed", "url", p.url, "error", err)
		} else if n > 0 {
			slog.InfoContext(ctx, "feed polled", "url", p.url, "fixes", n)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
