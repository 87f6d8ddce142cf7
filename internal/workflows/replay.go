package workflows

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/markermove/internal/core/domain"
)

const (
	// TaskQueue is the default queue replay workers poll.
	TaskQueue = "markermove-replay"

	// ProgressQuery returns the ReplayProgress of a running replay.
	ProgressQuery = "progress"

	defaultMaxGap   = 30 * time.Second
	defaultMaxFixes = 5000
)

// ReplayInput is the input for the replay workflow.
type ReplayInput struct {
	SourceMarkerID string
	// TargetMarkerID receives the replayed fixes; empty means the source.
	TargetMarkerID string
	From           time.Time
	To             time.Time
	// Speed scales playback: 2 replays twice as fast. Zero means 1.
	Speed float64
	// MaxGap caps the pause between two fixes.
	MaxGap   time.Duration
	MaxFixes int
}

// ReplayProgress reports how far a replay has come.
type ReplayProgress struct {
	Total     int
	Published int
}

var errNothingToReplay = errors.New("no fixes in replay window")

// TrackReplayWorkflow loads the fixes a marker recorded in a time window and
// publishes them again, in order, spaced like the originals. Replayed fixes
// carry source "replay" and are stamped with the time they are published.
func TrackReplayWorkflow(ctx workflow.Context, input ReplayInput) (ReplayProgress, error) {
	logger := workflow.GetLogger(ctx)

	if input.TargetMarkerID == "" {
		input.TargetMarkerID = input.SourceMarkerID
	}
	if input.Speed <= 0 {
		input.Speed = 1
	}
	if input.MaxGap <= 0 {
		input.MaxGap = defaultMaxGap
	}
	if input.MaxFixes <= 0 {
		input.MaxFixes = defaultMaxFixes
	}

	var progress ReplayProgress
	if err := workflow.SetQueryHandler(ctx, ProgressQuery, func() (ReplayProgress, error) {
		return progress, nil
	}); err != nil {
		return progress, err
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})

	var fixes []domain.Fix
	err := workflow.ExecuteActivity(ctx, "LoadFixes", input.SourceMarkerID, input.From, input.To, input.MaxFixes).Get(ctx, &fixes)
	if err != nil {
		return progress, err
	}
	if len(fixes) == 0 {
		return progress, temporal.NewNonRetryableApplicationError(errNothingToReplay.Error(), "NothingToReplay", errNothingToReplay)
	}
	progress.Total = len(fixes)
	logger.Info("Starting replay", "source", input.SourceMarkerID, "target", input.TargetMarkerID, "fixes", len(fixes))

	for i, fix := range fixes {
		if i > 0 {
			if gap := replayGap(fixes[i-1].Time, fix.Time, input.Speed, input.MaxGap); gap > 0 {
				if err := workflow.Sleep(ctx, gap); err != nil {
					return progress, err
				}
			}
		}

		fix.ID = 0
		fix.MarkerID = input.TargetMarkerID
		fix.Source = domain.SourceReplay
		fix.Time = workflow.Now(ctx)
		if err := workflow.ExecuteActivity(ctx, "PublishFix", fix).Get(ctx, nil); err != nil {
			logger.Warn("replay aborted", "published", progress.Published, "error", err)
			return progress, err
		}
		progress.Published++
	}

	logger.Info("Replay finished", "published", progress.Published)
	return progress, nil
}

// replayGap is the pause between two recorded fixes at the given speed,
// capped at maxGap. Out-of-order timestamps give no pause.
func replayGap(prev, next time.Time, speed float64, maxGap time.Duration) time.Duration {
	gap := time.Duration(float64(next.Sub(prev)) / speed)
	if gap < 0 {
		return 0
	}
	if gap > maxGap {
		return maxGap
	}
	return gap
}
