package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/markermove/internal/adapters/http"
	natsadapter "github.com/samirrijal/markermove/internal/adapters/nats"
	"github.com/samirrijal/markermove/internal/adapters/postgres"
	"github.com/samirrijal/markermove/internal/adapters/valkey"
	"github.com/samirrijal/markermove/internal/core/domain"
	"github.com/samirrijal/markermove/internal/core/ports"
	"github.com/samirrijal/markermove/internal/core/usecases"
	"github.com/samirrijal/markermove/internal/pkg/config"
	"github.com/samirrijal/markermove/internal/pkg/logging"
	"github.com/samirrijal/markermove/internal/pkg/metrics"
	"github.com/samirrijal/markermove/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("markermove-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup("markermove-api", cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint, cfg.Telemetry.SampleRatio)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(), 0)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache
	var cache ports.CacheService
	valkeyCache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, marker state is not cached", "error", err)
	} else {
		defer valkeyCache.Close()
		cache = valkeyCache
	}

	// NATS: frames out, fixes in
	var frames ports.FramePublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, frames are not relayed", "error", err)
	} else {
		defer pub.Close()
		frames = pub
	}

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, cfg.NATS.Durable)
	if err != nil {
		slog.Warn("nats fix subscriber unavailable", "error", err)
	} else {
		defer sub.Close()
	}

	// Use cases
	start := domain.GeoPoint{Lat: cfg.Motion.StartLat, Lon: cfg.Motion.StartLon}
	animator := usecases.NewAnimator(usecases.AnimatorConfig{
		Tracker: usecases.TrackerConfig{
			MoveDuration:   cfg.Motion.MoveDuration,
			RotateDuration: cfg.Motion.RotateDuration,
			Debounce:       cfg.Motion.Debounce,
		},
		FrameInterval: cfg.Motion.FrameInterval,
		IdleTTL:       cfg.Motion.IdleTTL,
		TapStart:      &start,
	}, nil)

	fixRepo := postgres.NewFixRepo(db)
	fixSvc := usecases.NewFixService(fixRepo, animator, nil)
	stateSvc := usecases.NewStateService(animator, cache, fixRepo, frames, cfg.Valkey.StateTTL)

	deps := &http.Dependencies{
		Fixes:    fixSvc,
		States:   stateSvc,
		Animator: animator,
		DB:       db,
		Cache:    valkeyCache,
	}
	if pub != nil {
		deps.NATS = pub.Conn()
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "Markermove API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Fixes published by feeders and replays arrive over JetStream.
	if sub != nil {
		if err := sub.SubscribeFixes(ctx, fixSvc.Ingest); err != nil {
			slog.Warn("subscribe to fixes failed", "error", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		return app.Listen(addr)
	})

	// Animation loop: frames go through the state cache to NATS.
	g.Go(func() error {
		return animator.Run(gctx, stateSvc)
	})

	g.Go(func() error {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Stat())
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, draining connections...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("api stopped with error", "error", err)
	}
	slog.Info("server stopped")
}
