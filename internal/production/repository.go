package production

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prepline/prepline/internal/platform/db"
)

// Repository persists the production plan and kitchen completion state.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	DeletePlan(ctx context.Context, date string) error
	DeleteCompletions(ctx context.Context, date string) error
	InsertPlanEntry(ctx context.Context, entry PlanEntry) error
	GetPlanQuantity(ctx context.Context, date, product string) (int, error)
	SumOrderItems(ctx context.Context, date, product string) (int, error)
	GetCompletion(ctx context.Context, date, product string) (CompletionRecord, error)
	UpsertCompletion(ctx context.Context, record CompletionRecord) error
}

type txRepository struct {
	tx pgx.Tx
}

// ErrCompletionNotFound indicates a missing completion row; callers treat
// the product as pending with zero completed.
var ErrCompletionNotFound = errors.New("production: completion record not found")

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("production repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// GetDay returns the planned products for a date joined with completion
// state, ordered by product name. Empty when the day has no plan rows.
func (r *Repository) GetDay(ctx context.Context, date string) ([]DayItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT pp.product_name, pp.quantity, COALESCE(k.completed_quantity, 0)
FROM production_plan pp
LEFT JOIN kitchen_production_status k
  ON k.production_date = pp.production_date AND k.product_name = pp.product_name
WHERE pp.production_date = $1::date
ORDER BY pp.product_name ASC`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDayItems(rows)
}

// GetDayFromOrders derives a day view from live order line items, for days
// scheduled before the plan table existed.
func (r *Repository) GetDayFromOrders(ctx context.Context, date string) ([]DayItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT oi.product_name, SUM(oi.quantity)::int, COALESCE(MAX(k.completed_quantity), 0)
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
LEFT JOIN kitchen_production_status k
  ON k.production_date = o.production_date AND k.product_name = oi.product_name
WHERE o.production_date = $1::date AND o.shipping_status <> 'cancelled'
GROUP BY oi.product_name
ORDER BY oi.product_name ASC`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDayItems(rows)
}

func scanDayItems(rows pgx.Rows) ([]DayItem, error) {
	items := []DayItem{}
	for rows.Next() {
		var item DayItem
		if err := rows.Scan(&item.ProductName, &item.TotalQuantity, &item.CompletedQuantity); err != nil {
			return nil, err
		}
		item.PendingQuantity = item.TotalQuantity - item.CompletedQuantity
		if item.PendingQuantity < 0 {
			item.PendingQuantity = 0
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Orphaned completions are rows that neither a plan row nor live order
// items resolve for. Days scheduled before the plan table existed have no
// plan rows but are still backed by order items, so those are not orphans.
const orphanedCompletionFilter = `FROM kitchen_production_status ks
WHERE NOT EXISTS (
    SELECT 1 FROM production_plan pp
    WHERE pp.production_date = ks.production_date
      AND pp.product_name = ks.product_name
)
AND NOT EXISTS (
    SELECT 1 FROM order_items oi
    JOIN orders o ON o.id = oi.order_id
    WHERE o.production_date = ks.production_date
      AND oi.product_name = ks.product_name
      AND o.shipping_status <> 'cancelled'
)`

// CountOrphanedCompletions reports completion rows no plan or orders back.
func (r *Repository) CountOrphanedCompletions(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+orphanedCompletionFilter).Scan(&count)
	return count, err
}

// DeleteOrphanedCompletions removes completion rows no plan or orders back.
func (r *Repository) DeleteOrphanedCompletions(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, "DELETE "+orphanedCompletionFilter)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *txRepository) DeletePlan(ctx context.Context, date string) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM production_plan WHERE production_date = $1::date`, date)
	return err
}

func (r *txRepository) DeleteCompletions(ctx context.Context, date string) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM kitchen_production_status WHERE production_date = $1::date`, date)
	return err
}

func (r *txRepository) InsertPlanEntry(ctx context.Context, entry PlanEntry) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO production_plan (production_date, product_name, quantity)
VALUES ($1::date, $2, $3)`, entry.ProductionDate, entry.ProductName, entry.Quantity)
	return err
}

func (r *txRepository) GetPlanQuantity(ctx context.Context, date, product string) (int, error) {
	var qty int
	err := r.tx.QueryRow(ctx, `SELECT quantity FROM production_plan
WHERE production_date = $1::date AND product_name = $2`, date, product).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return qty, nil
}

func (r *txRepository) SumOrderItems(ctx context.Context, date, product string) (int, error) {
	var qty int
	err := r.tx.QueryRow(ctx, `SELECT COALESCE(SUM(oi.quantity), 0)::int
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
WHERE o.production_date = $1::date AND oi.product_name = $2 AND o.shipping_status <> 'cancelled'`, date, product).Scan(&qty)
	if err != nil {
		return 0, err
	}
	return qty, nil
}

func (r *txRepository) GetCompletion(ctx context.Context, date, product string) (CompletionRecord, error) {
	var rec CompletionRecord
	err := r.tx.QueryRow(ctx, `SELECT production_date::text, product_name, completed_quantity, status, updated_at
FROM kitchen_production_status
WHERE production_date = $1::date AND product_name = $2
FOR UPDATE`, date, product).
		Scan(&rec.ProductionDate, &rec.ProductName, &rec.CompletedQuantity, &rec.Status, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CompletionRecord{}, ErrCompletionNotFound
		}
		return CompletionRecord{}, err
	}
	return rec, nil
}

func (r *txRepository) UpsertCompletion(ctx context.Context, record CompletionRecord) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO kitchen_production_status (production_date, product_name, completed_quantity, status, updated_at)
VALUES ($1::date, $2, $3, $4, NOW())
ON CONFLICT (production_date, product_name)
DO UPDATE SET completed_quantity = EXCLUDED.completed_quantity, status = EXCLUDED.status, updated_at = NOW()`,
		record.ProductionDate, record.ProductName, record.CompletedQuantity, string(record.Status))
	return err
}
