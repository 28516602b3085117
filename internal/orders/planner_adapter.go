package orders

import (
	"context"

	"github.com/prepline/prepline/internal/production"
)

// PlannerAdapter bridges the order store to the production planner.
type PlannerAdapter struct {
	svc *production.Service
}

// NewPlannerAdapter constructs PlannerAdapter.
func NewPlannerAdapter(svc *production.Service) *PlannerAdapter {
	return &PlannerAdapter{svc: svc}
}

func (a *PlannerAdapter) Unschedule(ctx context.Context, date string) error {
	return a.svc.Unschedule(ctx, date)
}
