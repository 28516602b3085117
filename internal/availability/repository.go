package availability

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the availability projection from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Overview computes one row per product: current stock and the planned
// quantity still outstanding on or after the as-of date. Completed
// production counts against the commitment, clamped per day so one
// over-completed day cannot mask a shortfall on another.
func (r *Repository) Overview(ctx context.Context, asOf string) ([]Row, error) {
	rows, err := r.pool.Query(ctx, `
SELECT p.name,
       p.current_stock,
       COALESCE(SUM(GREATEST(pp.quantity - COALESCE(ks.completed_quantity, 0), 0)), 0) AS committed
FROM products p
LEFT JOIN production_plan pp
       ON pp.product_name = p.name AND pp.production_date >= $1::date
LEFT JOIN kitchen_production_status ks
       ON ks.production_date = pp.production_date AND ks.product_name = pp.product_name
GROUP BY p.name, p.current_stock
ORDER BY p.name`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Row{}
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.ProductName, &row.CurrentStock, &row.CommittedOutstanding); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
