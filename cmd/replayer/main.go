package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/markermove/internal/adapters/nats"
	"github.com/samirrijal/markermove/internal/adapters/postgres"
	"github.com/samirrijal/markermove/internal/core/usecases"
	"github.com/samirrijal/markermove/internal/pkg/config"
	"github.com/samirrijal/markermove/internal/pkg/logging"
	"github.com/samirrijal/markermove/internal/workflows"
)

// replayer hosts the track replay workflow ("worker") or starts one
// ("start -marker bus-1 -from ... -to ...").
func main() {
	cfg, err := config.Load("markermove-replayer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("markermove-replayer", cfg.Log.Level, cfg.Log.Format)

	if len(os.Args) < 2 {
		log.Fatal("usage: replayer <worker|start> [flags]")
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	switch os.Args[1] {
	case "worker":
		runWorker(c, cfg)
	case "start":
		startReplay(c, cfg, os.Args[2:])
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func runWorker(c client.Client, cfg *config.Config) {
	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 4)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer pub.Close()

	// Replays only read history; the api process animates what we publish.
	fixes := usecases.NewFixService(postgres.NewFixRepo(db), nil, nil)

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.TrackReplayWorkflow)
	w.RegisterActivity(&workflows.ReplayActivities{
		Fixes:     fixes,
		Publisher: pub,
	})

	slog.Info("replay worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

func startReplay(c client.Client, cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	marker := fs.String("marker", "", "marker whose track is replayed")
	target := fs.String("as", "", "marker id to replay onto (default: same marker)")
	from := fs.String("from", "", "window start, RFC 3339")
	to := fs.String("to", "", "window end, RFC 3339 (default: now)")
	speed := fs.Float64("speed", 1, "playback speed multiplier")
	wait := fs.Bool("wait", false, "block until the replay finishes")
	_ = fs.Parse(args)

	if *marker == "" || *from == "" {
		log.Fatal("start: -marker and -from are required")
	}
	input := workflows.ReplayInput{
		SourceMarkerID: *marker,
		TargetMarkerID: *target,
		Speed:          *speed,
		To:             time.Now().UTC(),
	}
	var err error
	if input.From, err = time.Parse(time.RFC3339, *from); err != nil {
		log.Fatalf("start: -from: %v", err)
	}
	if *to != "" {
		if input.To, err = time.Parse(time.RFC3339, *to); err != nil {
			log.Fatalf("start: -to: %v", err)
		}
	}

	ctx := context.Background()
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        fmt.Sprintf("replay-%s-%d", *marker, time.Now().Unix()),
		TaskQueue: cfg.Temporal.TaskQueue,
	}, workflows.TrackReplayWorkflow, input)
	if err != nil {
		log.Fatalf("start replay: %v", err)
	}
	slog.Info("replay started", "workflow_id", run.GetID(), "run_id", run.GetRunID())

	if !*wait {
		return
	}
	var progress workflows.ReplayProgress
	if err := run.Get(ctx, &progress); err != nil {
		log.Fatalf("replay failed: %v", err)
	}
	slog.Info("replay finished", "published", progress.Published, "total", progress.Total)
}
