package production

import (
	"errors"
	"time"
)

// DateLayout is the canonical day key format for production dates.
const DateLayout = "2006-01-02"

// CompletionStatus tracks whether a planned product has been produced.
type CompletionStatus string

const (
	// StatusPending means the kitchen has not finished the batch.
	StatusPending CompletionStatus = "pending"
	// StatusCompleted means the full planned quantity was produced.
	StatusCompleted CompletionStatus = "completed"
)

// IsValid reports whether the status is a known completion status.
func (s CompletionStatus) IsValid() bool {
	return s == StatusPending || s == StatusCompleted
}

// PlanEntry is one (production date, product) promise.
type PlanEntry struct {
	ProductionDate string `json:"production_date"`
	ProductName    string `json:"product_name"`
	Quantity       int    `json:"quantity"`
}

// CompletionRecord is the kitchen's bookkeeping for one plan entry.
type CompletionRecord struct {
	ProductionDate    string           `json:"production_date"`
	ProductName       string           `json:"product_name"`
	CompletedQuantity int              `json:"completed_quantity"`
	Status            CompletionStatus `json:"status"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// DayItem is one row of a production day view. Totals come from the plan
// (or the order fallback); pending is clamped so it never goes negative.
type DayItem struct {
	ProductName       string `json:"product_name"`
	TotalQuantity     int    `json:"total_quantity"`
	PendingQuantity   int    `json:"pending_quantity"`
	CompletedQuantity int    `json:"completed_quantity"`
}

// StatusResult reports the state after a completion transition.
type StatusResult struct {
	ProductionDate    string           `json:"production_date"`
	ProductName       string           `json:"product_name"`
	Status            CompletionStatus `json:"status"`
	PlannedQuantity   int              `json:"planned_quantity"`
	CompletedQuantity int              `json:"completed_quantity"`
	PendingQuantity   int              `json:"pending_quantity"`
}

// ErrNotFound indicates no plan or order line items resolve for a date/product.
var ErrNotFound = errors.New("production: no plan or orders for date and product")

// ErrInvalidDate indicates a malformed production date.
var ErrInvalidDate = errors.New("production: invalid production date")

// ErrEmptyPlan indicates a schedule request without quantities.
var ErrEmptyPlan = errors.New("production: quantities required")

// ErrInvalidStatus indicates an unknown completion status.
var ErrInvalidStatus = errors.New("production: status must be pending or completed")

// ParseDate validates a day key and returns its canonical form.
func ParseDate(value string) (string, error) {
	if value == "" {
		return "", ErrInvalidDate
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return "", ErrInvalidDate
	}
	return t.Format(DateLayout), nil
}
