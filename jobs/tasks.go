package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPlanIntegrity schedules the plan/completion integrity sweep.
	TaskPlanIntegrity = "plan:integrity"
	// TaskAvailabilityWarmup schedules the availability cache warmup.
	TaskAvailabilityWarmup = "availability:warmup"
)

// PlanIntegrityPayload configures the integrity sweep.
type PlanIntegrityPayload struct {
	// DryRun reports orphaned completion rows without deleting them.
	DryRun bool `json:"dry_run"`
}

// NewPlanIntegrityTask constructs an Asynq task.
func NewPlanIntegrityTask(payload PlanIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPlanIntegrity, data), nil
}

// AvailabilityWarmupPayload configures the warmup run.
type AvailabilityWarmupPayload struct {
	// AsOf is the day to warm; empty means today.
	AsOf string `json:"as_of,omitempty"`
}

// NewAvailabilityWarmupTask constructs an Asynq task.
func NewAvailabilityWarmupTask(payload AvailabilityWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAvailabilityWarmup, data), nil
}
