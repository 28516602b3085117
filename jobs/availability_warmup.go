package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/prepline/prepline/internal/availability"
)

// AvailabilityWarmupJob pre-computes the availability overview so the first
// morning request hits a warm cache.
type AvailabilityWarmupJob struct {
	Service *availability.Service
	Logger  *slog.Logger
}

// NewAvailabilityWarmupJob initialises the warmup handler.
func NewAvailabilityWarmupJob(service *availability.Service, logger *slog.Logger) *AvailabilityWarmupJob {
	return &AvailabilityWarmupJob{Service: service, Logger: logger}
}

// Handle executes the warmup.
func (j *AvailabilityWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("availability warmup: handler not configured")
	}
	var payload AvailabilityWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	overview, err := j.Service.Overview(ctx, payload.AsOf)
	if err != nil {
		j.logger().Error("availability warmup failed", slog.Any("error", err))
		return err
	}
	j.logger().Info("availability warmup finished",
		slog.String("as_of", overview.AsOf),
		slog.Int("products", len(overview.Items)))
	return nil
}

func (j *AvailabilityWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
