package production

import (
	"context"
	"fmt"

	"github.com/prepline/prepline/internal/inventory"
)

// StockAdapter adapts the inventory.Service to the StockPort interface
// required by the production service.
type StockAdapter struct {
	service *inventory.Service
}

// NewStockAdapter creates a new stock adapter.
func NewStockAdapter(service *inventory.Service) *StockAdapter {
	return &StockAdapter{service: service}
}

// ApplyProductionDelta forwards a completion stock delta to inventory.
func (a *StockAdapter) ApplyProductionDelta(ctx context.Context, productName string, delta int) error {
	if a.service == nil {
		return fmt.Errorf("inventory service not initialised")
	}
	if err := a.service.ApplyProductionDelta(ctx, productName, delta); err != nil {
		return fmt.Errorf("apply production delta: %w", err)
	}
	return nil
}
