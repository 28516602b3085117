package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prepline/prepline/internal/platform/db"
	"github.com/prepline/prepline/internal/production"
)

// Repository persists orders and line items in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (*Order, error)
	InsertOrder(ctx context.Context, order Order) (int64, error)
	InsertItems(ctx context.Context, orderID int64, items []LineItem) error
	DeleteItems(ctx context.Context, orderID int64) error
	UpdateFields(ctx context.Context, id int64, order Order) error
	UpdateShippingStatus(ctx context.Context, id int64, status ShippingStatus) error
	DeleteOrder(ctx context.Context, id int64) error
	CountOrdersForProductionDate(ctx context.Context, date string, excludeID int64) (int, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("orders repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// Get loads one order with its items.
func (r *Repository) Get(ctx context.Context, id int64) (*Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, selectOrder+` WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	items, err := loadItems(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

// List returns orders matching the filter, newest first, with the total count.
func (r *Repository) List(ctx context.Context, req ListOrdersRequest) ([]Order, int, error) {
	conditions := []string{"TRUE"}
	args := []any{}
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("shipping_status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("order_date >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("order_date <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM orders "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf("%s %s ORDER BY order_date DESC, id DESC LIMIT $%d OFFSET $%d", selectOrder, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range result {
		items, err := loadItems(ctx, r.pool, result[i].ID)
		if err != nil {
			return nil, 0, err
		}
		result[i].Items = items
	}
	return result, total, nil
}

const selectOrder = `SELECT id, customer_name, order_date, delivery_date, production_date, shipping_status, notes, created_at, updated_at FROM orders`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	var productionDate *time.Time
	err := row.Scan(&o.ID, &o.CustomerName, &o.OrderDate, &o.DeliveryDate, &productionDate, &o.ShippingStatus, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if productionDate != nil {
		formatted := productionDate.Format(production.DateLayout)
		o.ProductionDate = &formatted
	}
	return &o, nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadItems(ctx context.Context, q queryer, orderID int64) ([]LineItem, error) {
	rows, err := q.Query(ctx, `SELECT id, order_id, product_name, quantity, unit_price, is_gift, position
FROM order_items WHERE order_id = $1 ORDER BY position ASC, id ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []LineItem{}
	for rows.Next() {
		var item LineItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductName, &item.Quantity, &item.UnitPrice, &item.IsGift, &item.Position); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (*Order, error) {
	order, err := scanOrder(r.tx.QueryRow(ctx, selectOrder+` WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	items, err := loadItems(ctx, r.tx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *txRepository) InsertOrder(ctx context.Context, order Order) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO orders (customer_name, order_date, delivery_date, production_date, shipping_status, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4::date, $5, $6, NOW(), NOW()) RETURNING id`,
		order.CustomerName, order.OrderDate, order.DeliveryDate, order.ProductionDate, string(order.ShippingStatus), order.Notes).Scan(&id)
	return id, err
}

func (r *txRepository) InsertItems(ctx context.Context, orderID int64, items []LineItem) error {
	for i, item := range items {
		if _, err := r.tx.Exec(ctx, `INSERT INTO order_items (order_id, product_name, quantity, unit_price, is_gift, position)
VALUES ($1, $2, $3, $4, $5, $6)`, orderID, item.ProductName, item.Quantity, item.UnitPrice, item.IsGift, i); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) DeleteItems(ctx context.Context, orderID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID)
	return err
}

func (r *txRepository) UpdateFields(ctx context.Context, id int64, order Order) error {
	_, err := r.tx.Exec(ctx, `UPDATE orders SET customer_name = $2, delivery_date = $3, production_date = $4::date, notes = $5, updated_at = NOW()
WHERE id = $1`, id, order.CustomerName, order.DeliveryDate, order.ProductionDate, order.Notes)
	return err
}

func (r *txRepository) UpdateShippingStatus(ctx context.Context, id int64, status ShippingStatus) error {
	tag, err := r.tx.Exec(ctx, `UPDATE orders SET shipping_status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) DeleteOrder(ctx context.Context, id int64) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return err
	}
	tag, err := r.tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) CountOrdersForProductionDate(ctx context.Context, date string, excludeID int64) (int, error) {
	var count int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE production_date = $1::date AND id <> $2`, date, excludeID).Scan(&count)
	return count, err
}
