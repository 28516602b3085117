package production

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/prepline/prepline/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetDay(ctx context.Context, date string) ([]DayItem, error)
	GetDayFromOrders(ctx context.Context, date string) ([]DayItem, error)
}

// StockPort applies stock deltas when completion status changes.
type StockPort interface {
	ApplyProductionDelta(ctx context.Context, productName string, delta int) error
}

// CacheBumper invalidates derived read models after plan mutations.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// Service owns the production plan and its completion tracking.
type Service struct {
	repo   RepositoryPort
	stock  StockPort
	locks  *shared.KeyedMutex
	cache  CacheBumper
	logger *slog.Logger
}

// NewService builds Service. The cache bumper is optional.
func NewService(repo RepositoryPort, stock StockPort, locks *shared.KeyedMutex, cache CacheBumper, logger *slog.Logger) *Service {
	if locks == nil {
		locks = shared.NewKeyedMutex()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, stock: stock, locks: locks, cache: cache, logger: logger}
}

// Schedule replaces the whole plan for a production date with the given
// quantities. Completion records for the date are wiped as well: the plan
// is the source of truth and completion is always re-derived against the
// current plan. Entries with quantity <= 0 are dropped, not stored.
func (s *Service) Schedule(ctx context.Context, productionDate string, quantities map[string]int) (int, error) {
	date, err := ParseDate(productionDate)
	if err != nil {
		return 0, err
	}
	if len(quantities) == 0 {
		return 0, ErrEmptyPlan
	}

	names := make([]string, 0, len(quantities))
	for name, qty := range quantities {
		if name == "" || qty <= 0 {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.DeleteCompletions(ctx, date); err != nil {
			return err
		}
		if err := tx.DeletePlan(ctx, date); err != nil {
			return err
		}
		for _, name := range names {
			entry := PlanEntry{ProductionDate: date, ProductName: name, Quantity: quantities[name]}
			if err := tx.InsertPlanEntry(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.bumpCache(ctx)
	s.logger.Info("production day scheduled",
		slog.String("date", date),
		slog.Int("products", len(names)))
	return len(names), nil
}

// Unschedule clears the plan and completion records for a date. Orders
// referencing the date are not touched.
func (s *Service) Unschedule(ctx context.Context, productionDate string) error {
	date, err := ParseDate(productionDate)
	if err != nil {
		return err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.DeleteCompletions(ctx, date); err != nil {
			return err
		}
		return tx.DeletePlan(ctx, date)
	})
	if err != nil {
		return err
	}
	s.bumpCache(ctx)
	s.logger.Info("production day cleared", slog.String("date", date))
	return nil
}

// GetDay returns the day view from the plan, falling back to live order
// line items for days scheduled before a plan existed.
func (s *Service) GetDay(ctx context.Context, productionDate string) ([]DayItem, error) {
	date, err := ParseDate(productionDate)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.GetDay(ctx, date)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		return items, nil
	}
	return s.repo.GetDayFromOrders(ctx, date)
}

// SetStatus transitions a product's completion state for a production day.
// Completion is all-or-nothing: completing writes the full planned
// quantity, reverting writes zero. The stock delta is applied only on an
// actual pending->completed transition (and reversed only on
// completed->pending), so repeated calls never double-credit inventory.
func (s *Service) SetStatus(ctx context.Context, productionDate, productName string, status CompletionStatus) (StatusResult, error) {
	date, err := ParseDate(productionDate)
	if err != nil {
		return StatusResult{}, err
	}
	if productName == "" {
		return StatusResult{}, ErrNotFound
	}
	if !status.IsValid() {
		return StatusResult{}, ErrInvalidStatus
	}

	unlock := s.locks.Lock(shared.ProductionLockKey(date, productName))
	defer unlock()

	var result StatusResult
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		planned, err := tx.GetPlanQuantity(ctx, date, productName)
		if err != nil {
			return err
		}
		if planned == 0 {
			// Back-compat: days scheduled before the plan table existed
			// resolve against live orders.
			planned, err = tx.SumOrderItems(ctx, date, productName)
			if err != nil {
				return err
			}
		}
		if planned == 0 {
			return ErrNotFound
		}

		previous, err := tx.GetCompletion(ctx, date, productName)
		if err != nil {
			if !errors.Is(err, ErrCompletionNotFound) {
				return err
			}
			previous = CompletionRecord{Status: StatusPending}
		}

		completedQty := 0
		if status == StatusCompleted {
			completedQty = planned
		}

		// Guard on the previously recorded status: only a real transition
		// moves stock. The completion write happens last so a failed stock
		// delta leaves the record in its pre-transition state.
		if status == StatusCompleted && previous.Status != StatusCompleted {
			if err := s.stock.ApplyProductionDelta(ctx, productName, planned); err != nil {
				return err
			}
		}
		if status == StatusPending && previous.Status == StatusCompleted {
			if err := s.stock.ApplyProductionDelta(ctx, productName, -previous.CompletedQuantity); err != nil {
				return err
			}
		}

		record := CompletionRecord{
			ProductionDate:    date,
			ProductName:       productName,
			CompletedQuantity: completedQty,
			Status:            status,
		}
		if err := tx.UpsertCompletion(ctx, record); err != nil {
			return err
		}

		pending := planned - completedQty
		if pending < 0 {
			pending = 0
		}
		result = StatusResult{
			ProductionDate:    date,
			ProductName:       productName,
			Status:            status,
			PlannedQuantity:   planned,
			CompletedQuantity: completedQty,
			PendingQuantity:   pending,
		}
		return nil
	})
	if err != nil {
		return StatusResult{}, err
	}

	s.bumpCache(ctx)
	s.logger.Info("completion status updated",
		slog.String("date", date),
		slog.String("product", productName),
		slog.String("status", string(status)))
	return result, nil
}

func (s *Service) bumpCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("availability cache bump failed", slog.Any("error", err))
	}
}
