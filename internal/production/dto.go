package production

// ScheduleRequest replaces a day's plan.
type ScheduleRequest struct {
	ProductionDate string         `json:"production_date" validate:"required"`
	Quantities     map[string]int `json:"quantities" validate:"required,min=1"`
}

// ScheduleResponse reports how many products were planned.
type ScheduleResponse struct {
	PlannedProducts int `json:"planned_products"`
}

// StatusRequest transitions a product's completion state.
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending completed"`
}

// UnscheduleResponse confirms a cleared day.
type UnscheduleResponse struct {
	Cleared bool `json:"cleared"`
}
