package orders

import (
	"context"

	"github.com/prepline/prepline/internal/inventory"
)

// InventoryAdapter bridges the order store to the inventory reconciler.
type InventoryAdapter struct {
	svc *inventory.Service
}

// NewInventoryAdapter constructs InventoryAdapter.
func NewInventoryAdapter(svc *inventory.Service) *InventoryAdapter {
	return &InventoryAdapter{svc: svc}
}

func (a *InventoryAdapter) ShipItems(ctx context.Context, items []StockItem) error {
	return a.svc.ApplyShippingDelta(ctx, toShippingItems(items), inventory.DirectionShip)
}

func (a *InventoryAdapter) UnshipItems(ctx context.Context, items []StockItem) error {
	return a.svc.ApplyShippingDelta(ctx, toShippingItems(items), inventory.DirectionUnship)
}

func (a *InventoryAdapter) ReconcileShippedEdit(ctx context.Context, oldItems, newItems []StockItem) error {
	return a.svc.ApplyShippedEditDiff(ctx, toShippingItems(oldItems), toShippingItems(newItems))
}

func toShippingItems(items []StockItem) []inventory.ShippingItem {
	result := make([]inventory.ShippingItem, 0, len(items))
	for _, item := range items {
		result = append(result, inventory.ShippingItem{ProductName: item.ProductName, Quantity: item.Quantity})
	}
	return result
}
