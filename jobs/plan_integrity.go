package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
)

// CompletionSweeper finds and removes orphaned completion rows.
type CompletionSweeper interface {
	CountOrphanedCompletions(ctx context.Context) (int64, error)
	DeleteOrphanedCompletions(ctx context.Context) (int64, error)
}

// PlanIntegrityJob removes completion rows that nothing backs anymore.
// A row is orphaned only when its (date, product) has no plan row AND no
// live order items: days scheduled before the plan table existed resolve
// their quantities from orders, and their completion bookkeeping must
// survive the sweep.
type PlanIntegrityJob struct {
	Sweeper CompletionSweeper
	Logger  *slog.Logger
}

// NewPlanIntegrityJob initialises the integrity sweep handler.
func NewPlanIntegrityJob(sweeper CompletionSweeper, logger *slog.Logger) *PlanIntegrityJob {
	return &PlanIntegrityJob{Sweeper: sweeper, Logger: logger}
}

// Handle executes the integrity sweep.
func (j *PlanIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Sweeper == nil {
		return errors.New("plan integrity: handler not configured")
	}
	var payload PlanIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	logger := j.logger().With(slog.Bool("dry_run", payload.DryRun))
	logger.Info("starting plan integrity sweep")

	if payload.DryRun {
		count, err := j.Sweeper.CountOrphanedCompletions(ctx)
		if err != nil {
			logger.Error("sweep failed", slog.Any("error", err))
			return err
		}
		logger.Info("plan integrity sweep finished", slog.Int64("orphaned_completions", count))
		return nil
	}

	removed, err := j.Sweeper.DeleteOrphanedCompletions(ctx)
	if err != nil {
		logger.Error("sweep failed", slog.Any("error", err))
		return err
	}
	logger.Info("plan integrity sweep finished", slog.Int64("removed_completions", removed))
	return nil
}

func (j *PlanIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
