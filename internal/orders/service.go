package orders

import (
	"context"
	"log/slog"

	"github.com/prepline/prepline/internal/production"
)

// StockItem is one line item as handed to the inventory reconciler.
type StockItem struct {
	ProductName string
	Quantity    int
}

// InventoryClient applies stock deltas for shipping transitions.
type InventoryClient interface {
	ShipItems(ctx context.Context, items []StockItem) error
	UnshipItems(ctx context.Context, items []StockItem) error
	ReconcileShippedEdit(ctx context.Context, oldItems, newItems []StockItem) error
}

// PlannerClient clears production days left without orders.
type PlannerClient interface {
	Unschedule(ctx context.Context, date string) error
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, req ListOrdersRequest) ([]Order, int, error)
}

// Service provides business logic for the order store.
type Service struct {
	repo      RepositoryPort
	inventory InventoryClient
	planner   PlannerClient
	logger    *slog.Logger
}

// NewService creates a new service. Planner is optional.
func NewService(repo RepositoryPort, inventory InventoryClient, planner PlannerClient, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, inventory: inventory, planner: planner, logger: logger}
}

// Create stores a new order in the pending shipping state.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrNoItems
	}
	if req.ProductionDate != nil {
		date, err := production.ParseDate(*req.ProductionDate)
		if err != nil {
			return nil, err
		}
		req.ProductionDate = &date
	}

	var id int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order := Order{
			CustomerName:   req.CustomerName,
			OrderDate:      req.OrderDate,
			DeliveryDate:   req.DeliveryDate,
			ProductionDate: req.ProductionDate,
			ShippingStatus: ShippingStatusPending,
			Notes:          req.Notes,
		}
		var err error
		id, err = tx.InsertOrder(ctx, order)
		if err != nil {
			return err
		}
		return tx.InsertItems(ctx, id, itemsFromRequest(id, req.Items))
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Get loads one order.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.repo.Get(ctx, id)
}

// List returns orders matching the filter with a total count.
func (s *Service) List(ctx context.Context, req ListOrdersRequest) ([]Order, int, error) {
	return s.repo.List(ctx, req)
}

// Update edits order fields and optionally replaces the item list. When a
// shipped order's items change, the reconciler applies the signed multiset
// difference so stock follows the edit.
func (s *Service) Update(ctx context.Context, id int64, req UpdateOrderRequest) (*Order, error) {
	if req.ProductionDate != nil && *req.ProductionDate != "" {
		date, err := production.ParseDate(*req.ProductionDate)
		if err != nil {
			return nil, err
		}
		req.ProductionDate = &date
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if req.Items != nil {
			if len(*req.Items) == 0 {
				return ErrNoItems
			}
			newItems := itemsFromRequest(id, *req.Items)
			if order.ShippingStatus.Shipped() {
				if err := s.inventory.ReconcileShippedEdit(ctx, stockItems(order.Items), stockItemsFromLines(newItems)); err != nil {
					return err
				}
			}
			if err := tx.DeleteItems(ctx, id); err != nil {
				return err
			}
			if err := tx.InsertItems(ctx, id, newItems); err != nil {
				return err
			}
		}

		updated := *order
		if req.CustomerName != nil {
			updated.CustomerName = req.CustomerName
		}
		if req.DeliveryDate != nil {
			updated.DeliveryDate = req.DeliveryDate
		}
		if req.ProductionDate != nil {
			if *req.ProductionDate == "" {
				updated.ProductionDate = nil
			} else {
				updated.ProductionDate = req.ProductionDate
			}
		}
		if req.Notes != nil {
			updated.Notes = req.Notes
		}
		return tx.UpdateFields(ctx, id, updated)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes an order. When the deletion leaves its production day
// without any remaining orders, the day's plan is cleared as well.
func (s *Service) Delete(ctx context.Context, id int64) error {
	var orphanedDate string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteOrder(ctx, id); err != nil {
			return err
		}
		if order.ProductionDate != nil {
			remaining, err := tx.CountOrdersForProductionDate(ctx, *order.ProductionDate, id)
			if err != nil {
				return err
			}
			if remaining == 0 {
				orphanedDate = *order.ProductionDate
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if orphanedDate != "" && s.planner != nil {
		if err := s.planner.Unschedule(ctx, orphanedDate); err != nil {
			s.logger.Warn("clear orphaned production day failed",
				slog.String("date", orphanedDate),
				slog.Any("error", err))
		}
	}
	return nil
}

// UpdateShippingStatus transitions an order's shipping status. Unchanged
// statuses are a strict no-op. Stock deltas fire only when the transition
// crosses the shipped boundary, and the status write itself happens last
// so a failed delta leaves the order in its pre-transition state.
func (s *Service) UpdateShippingStatus(ctx context.Context, id int64, status ShippingStatus) (ShippingStatusResponse, error) {
	if !status.IsValid() {
		return ShippingStatusResponse{}, ErrInvalidStatus
	}

	var result ShippingStatusResponse
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		result = ShippingStatusResponse{OrderID: id, ShippingStatus: status}
		if order.ShippingStatus == status {
			return nil
		}

		switch {
		case !order.ShippingStatus.Shipped() && status.Shipped():
			if err := s.inventory.ShipItems(ctx, stockItems(order.Items)); err != nil {
				return err
			}
		case order.ShippingStatus.Shipped() && !status.Shipped():
			if err := s.inventory.UnshipItems(ctx, stockItems(order.Items)); err != nil {
				return err
			}
		}
		return tx.UpdateShippingStatus(ctx, id, status)
	})
	if err != nil {
		return ShippingStatusResponse{}, err
	}

	s.logger.Info("shipping status updated",
		slog.Int64("order_id", id),
		slog.String("status", string(status)))
	return result, nil
}

func itemsFromRequest(orderID int64, reqs []LineItemRequest) []LineItem {
	items := make([]LineItem, 0, len(reqs))
	for i, req := range reqs {
		items = append(items, LineItem{
			OrderID:     orderID,
			ProductName: req.ProductName,
			Quantity:    req.Quantity,
			UnitPrice:   req.UnitPrice,
			IsGift:      req.IsGift,
			Position:    i,
		})
	}
	return items
}

func stockItems(items []LineItem) []StockItem {
	return stockItemsFromLines(items)
}

func stockItemsFromLines(items []LineItem) []StockItem {
	result := make([]StockItem, 0, len(items))
	for _, item := range items {
		result = append(result, StockItem{ProductName: item.ProductName, Quantity: item.Quantity})
	}
	return result
}
