package inventory

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, name string) (Product, error)
	CreateProduct(ctx context.Context, name string, stock int) (Product, error)
}

// Service reconciles product stock with production and shipping events.
type Service struct {
	repo     RepositoryPort
	logger   *slog.Logger
	allowNeg bool
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	AllowNegativeStock bool
}

// NewService builds Service.
func NewService(repo RepositoryPort, logger *slog.Logger, cfg ServiceConfig) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, allowNeg: cfg.AllowNegativeStock}
}

// ListProducts returns the catalog with current stock.
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.repo.ListProducts(ctx)
}

// GetProduct returns one product by exact name.
func (s *Service) GetProduct(ctx context.Context, name string) (Product, error) {
	return s.repo.GetProduct(ctx, name)
}

// CreateProduct adds a catalog entry.
func (s *Service) CreateProduct(ctx context.Context, name string, stock int) (Product, error) {
	if name == "" {
		return Product{}, errors.New("inventory: product name required")
	}
	if stock < 0 {
		return Product{}, ErrInvalidStock
	}
	return s.repo.CreateProduct(ctx, name, stock)
}

// SetStock overwrites a product's stock count (operator reset). The reset
// leaves a MANUAL movement on the audit trail like every other delta.
func (s *Service) SetStock(ctx context.Context, name string, stock int) (Product, error) {
	if stock < 0 {
		return Product{}, ErrInvalidStock
	}
	var out Product
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := tx.GetProductForUpdate(ctx, name)
		if err != nil {
			return err
		}
		delta := stock - product.CurrentStock
		if delta == 0 {
			out = product
			return nil
		}
		if err := tx.UpdateStock(ctx, product.ID, stock); err != nil {
			return err
		}
		if err := tx.InsertMovement(ctx, Movement{
			ProductID:   product.ID,
			ProductName: product.Name,
			Delta:       delta,
			Reason:      ReasonManual,
			RefID:       uuid.NewString(),
		}); err != nil {
			return err
		}
		product.CurrentStock = stock
		out = product
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	s.logger.Info("stock reset",
		slog.String("product", name),
		slog.Int("stock", stock))
	return out, nil
}

// ApplyProductionDelta credits (or, on reversal, debits) a product's stock
// when its planned production is marked completed or un-completed. The
// product is matched by exact name; a missing product is skipped, never
// created at this layer.
func (s *Service) ApplyProductionDelta(ctx context.Context, productName string, delta int) error {
	if delta == 0 {
		return nil
	}
	reason := ReasonProductionComplete
	if delta < 0 {
		reason = ReasonProductionRevert
	}
	ref := uuid.NewString()
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := tx.GetProductForUpdate(ctx, productName)
		if err != nil {
			if errors.Is(err, ErrProductNotFound) {
				s.logger.Warn("production delta skipped, product not in catalog",
					slog.String("product", productName),
					slog.Int("delta", delta))
				return nil
			}
			return err
		}
		return s.applyDelta(ctx, tx, product, delta, reason, ref)
	})
}

// ApplyShippingDelta adjusts stock for every line item of an order whose
// shipping status transitioned into (DirectionShip) or out of
// (DirectionUnship) the shipped state. Items are matched against the
// catalog by normalised name; unmatched items are skipped and logged.
func (s *Service) ApplyShippingDelta(ctx context.Context, items []ShippingItem, direction ShipDirection) error {
	quantities := aggregateItems(items)
	if len(quantities) == 0 {
		return nil
	}
	sign := -1
	reason := ReasonOrderShipped
	if direction == DirectionUnship {
		sign = 1
		reason = ReasonOrderUnshipped
	}
	ref := uuid.NewString()
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, entry := range quantities {
			product, err := tx.GetProductForUpdateNormalized(ctx, entry.normalized)
			if err != nil {
				if errors.Is(err, ErrProductNotFound) {
					s.logger.Warn("shipping delta skipped, no catalog match",
						slog.String("item", entry.name),
						slog.Int("quantity", entry.quantity))
					continue
				}
				return err
			}
			if err := s.applyDelta(ctx, tx, product, sign*entry.quantity, reason, ref); err != nil {
				return err
			}
		}
		return nil
	})
}

// ApplyShippedEditDiff reconciles stock after the line items of an
// already-shipped order were edited. The signed difference is computed
// over the full multiset of items per product, so a product appearing on
// several lines is adjusted once.
func (s *Service) ApplyShippedEditDiff(ctx context.Context, oldItems, newItems []ShippingItem) error {
	diff := map[string]*itemQuantity{}
	for _, entry := range aggregateItems(newItems) {
		diff[entry.normalized] = &itemQuantity{name: entry.name, normalized: entry.normalized, quantity: entry.quantity}
	}
	for _, entry := range aggregateItems(oldItems) {
		if d, ok := diff[entry.normalized]; ok {
			d.quantity -= entry.quantity
		} else {
			diff[entry.normalized] = &itemQuantity{name: entry.name, normalized: entry.normalized, quantity: -entry.quantity}
		}
	}

	ref := uuid.NewString()
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, entry := range diff {
			if entry.quantity == 0 {
				continue
			}
			product, err := tx.GetProductForUpdateNormalized(ctx, entry.normalized)
			if err != nil {
				if errors.Is(err, ErrProductNotFound) {
					s.logger.Warn("shipped edit diff skipped, no catalog match",
						slog.String("item", entry.name),
						slog.Int("diff", entry.quantity))
					continue
				}
				return err
			}
			// Shipped quantity growing removes more stock; shrinking returns it.
			if err := s.applyDelta(ctx, tx, product, -entry.quantity, ReasonShippedEdit, ref); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) applyDelta(ctx context.Context, tx TxRepository, product Product, delta int, reason MovementReason, ref string) error {
	newStock := product.CurrentStock + delta
	clamped := false
	if newStock < 0 && !s.allowNeg {
		s.logger.Warn("stock underflow clamped to zero",
			slog.String("product", product.Name),
			slog.Int("stock", product.CurrentStock),
			slog.Int("delta", delta),
			slog.String("reason", string(reason)))
		newStock = 0
		clamped = true
	}
	if err := tx.UpdateStock(ctx, product.ID, newStock); err != nil {
		return err
	}
	return tx.InsertMovement(ctx, Movement{
		ProductID:   product.ID,
		ProductName: product.Name,
		Delta:       delta,
		Reason:      reason,
		RefID:       ref,
		Clamped:     clamped,
	})
}

type itemQuantity struct {
	name       string
	normalized string
	quantity   int
}

// aggregateItems folds a line item multiset into per-product quantities
// keyed by normalised name. Zero and negative quantities are ignored.
func aggregateItems(items []ShippingItem) []itemQuantity {
	index := map[string]int{}
	var result []itemQuantity
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		key := NormalizeName(item.ProductName)
		if pos, ok := index[key]; ok {
			result[pos].quantity += item.Quantity
			continue
		}
		index[key] = len(result)
		result = append(result, itemQuantity{name: item.ProductName, normalized: key, quantity: item.Quantity})
	}
	return result
}
