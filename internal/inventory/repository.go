package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prepline/prepline/internal/platform/db"
)

// Repository persists products and stock movements in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the reconciler.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, name string) (Product, error)
	GetProductForUpdateNormalized(ctx context.Context, normalized string) (Product, error)
	UpdateStock(ctx context.Context, productID int64, stock int) error
	InsertMovement(ctx context.Context, m Movement) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("inventory repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// ListProducts returns the catalog ordered by name.
func (r *Repository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, current_stock, created_at, updated_at FROM products ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	products := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.CurrentStock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetProduct looks a product up by exact name.
func (r *Repository) GetProduct(ctx context.Context, name string) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `SELECT id, name, current_stock, created_at, updated_at FROM products WHERE name=$1`, name).
		Scan(&p.ID, &p.Name, &p.CurrentStock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, err
	}
	return p, nil
}

// CreateProduct inserts a catalog row with its normalised name.
func (r *Repository) CreateProduct(ctx context.Context, name string, stock int) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `INSERT INTO products (name, name_normalized, current_stock, created_at, updated_at)
VALUES ($1, $2, $3, NOW(), NOW())
RETURNING id, name, current_stock, created_at, updated_at`, name, NormalizeName(name), stock).
		Scan(&p.ID, &p.Name, &p.CurrentStock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Product{}, ErrProductExists
		}
		return Product{}, err
	}
	return p, nil
}

func (r *txRepository) GetProductForUpdate(ctx context.Context, name string) (Product, error) {
	var p Product
	err := r.tx.QueryRow(ctx, `SELECT id, name, current_stock, created_at, updated_at FROM products WHERE name=$1 FOR UPDATE`, name).
		Scan(&p.ID, &p.Name, &p.CurrentStock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *txRepository) GetProductForUpdateNormalized(ctx context.Context, normalized string) (Product, error) {
	var p Product
	err := r.tx.QueryRow(ctx, `SELECT id, name, current_stock, created_at, updated_at FROM products WHERE name_normalized=$1 FOR UPDATE`, normalized).
		Scan(&p.ID, &p.Name, &p.CurrentStock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *txRepository) UpdateStock(ctx context.Context, productID int64, stock int) error {
	_, err := r.tx.Exec(ctx, `UPDATE products SET current_stock=$2, updated_at=NOW() WHERE id=$1`, productID, stock)
	return err
}

func (r *txRepository) InsertMovement(ctx context.Context, m Movement) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO stock_movements (product_id, product_name, delta, reason, ref_id, clamped, created_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW())`, m.ProductID, m.ProductName, m.Delta, string(m.Reason), m.RefID, m.Clamped)
	return err
}
