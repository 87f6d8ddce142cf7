package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/samirrijal/markermove/internal/adapters/gtfsrt"
	natsadapter "github.com/samirrijal/markermove/internal/adapters/nats"
	"github.com/samirrijal/markermove/internal/pkg/config"
	"github.com/samirrijal/markermove/internal/pkg/logging"
	"github.com/samirrijal/markermove/internal/pkg/telemetry"
)

// feeder polls a GTFS-Realtime VehiclePositions feed and publishes every
// vehicle as a marker fix.
func main() {
	cfg, err := config.Load("markermove-feeder")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("markermove-feeder", cfg.Log.Level, cfg.Log.Format)

	if cfg.Feed.URL == "" {
		log.Fatal("feed.url is required (MARKERMOVE_FEED_URL)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint, cfg.Telemetry.SampleRatio)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer pub.Close()

	client := &http.Client{Timeout: 30 * time.Second}
	poller := gtfsrt.NewPoller(client, cfg.Feed.URL, cfg.Feed.MarkerPrefix, pub)

	slog.Info("feeder started", "url", cfg.Feed.URL, "interval", cfg.Feed.PollInterval)
	if err := poller.Run(ctx, cfg.Feed.PollInterval); err != nil {
		slog.Error("feeder stopped", "error", err)
	}
	slog.Info("feeder stopped")
}
