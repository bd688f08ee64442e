package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vickyyylii/pixel-haven/internal/shared"
)

// Repository defines persistence operations for products.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]Product, int, error)
	Get(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
	AdjustStock(ctx context.Context, id int64, delta int) (*Product, error)
	Categories(ctx context.Context) ([]string, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool

	lowStockThreshold int
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool, lowStockThreshold int) *PGRepository {
	if lowStockThreshold <= 0 {
		lowStockThreshold = 10
	}
	return &PGRepository{pool: pool, lowStockThreshold: lowStockThreshold}
}

const productColumns = `p.id, p.name, COALESCE(p.description, ''), p.category, p.price, p.stock_quantity, p.supplier_id, s.name, p.created_at, p.updated_at`

func scanProduct(row pgx.Row, p *Product) error {
	return row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.StockQuantity, &p.SupplierID, &p.SupplierName, &p.CreatedAt, &p.UpdatedAt)
}

// List returns products matching the filter with supplier names joined in.
func (r *PGRepository) List(ctx context.Context, filter Filter) ([]Product, int, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d)", n, n))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("p.category = $%d", len(args)))
	}
	if filter.SupplierID > 0 {
		args = append(args, filter.SupplierID)
		conds = append(conds, fmt.Sprintf("p.supplier_id = $%d", len(args)))
	}
	if filter.LowStock {
		args = append(args, r.lowStockThreshold)
		conds = append(conds, fmt.Sprintf("p.stock_quantity < $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM products p" + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + productColumns + " FROM products p JOIN suppliers s ON s.id = p.supplier_id" + where + sortOrder(filter.Sort)
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func sortOrder(sort string) string {
	switch sort {
	case "price_asc":
		return " ORDER BY p.price ASC, p.id ASC"
	case "price_desc":
		return " ORDER BY p.price DESC, p.id ASC"
	case "stock_asc":
		return " ORDER BY p.stock_quantity ASC, p.id ASC"
	case "newest":
		return " ORDER BY p.created_at DESC, p.id DESC"
	default:
		return " ORDER BY p.name ASC, p.id ASC"
	}
}

// Get fetches a single product by ID.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Product, error) {
	query := "SELECT " + productColumns + " FROM products p JOIN suppliers s ON s.id = p.supplier_id WHERE p.id = $1"
	var p Product
	if err := scanProduct(r.pool.QueryRow(ctx, query, id), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a new product.
func (r *PGRepository) Create(ctx context.Context, p *Product) error {
	const query = `INSERT INTO products (name, description, category, price, stock_quantity, supplier_id, created_at, updated_at)
VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, NOW(), NOW())
RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query, p.Name, p.Description, p.Category, p.Price, p.StockQuantity, p.SupplierID).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return mapPGError(err)
}

// Update persists changes to an existing product.
func (r *PGRepository) Update(ctx context.Context, p *Product) error {
	const query = `UPDATE products SET name = $1, description = NULLIF($2, ''), category = $3, price = $4, stock_quantity = $5, supplier_id = $6, updated_at = NOW()
WHERE id = $7
RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query, p.Name, p.Description, p.Category, p.Price, p.StockQuantity, p.SupplierID, p.ID).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	return mapPGError(err)
}

// Delete removes a product. Order items referencing it block the delete.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return mapPGError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AdjustStock applies a delta to stock under a row lock so concurrent
// adjustments never drive the quantity negative.
func (r *PGRepository) AdjustStock(ctx context.Context, id int64, delta int) (*Product, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current int
	err = tx.QueryRow(ctx, `SELECT stock_quantity FROM products WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if current+delta < 0 {
		return nil, shared.ErrOutOfStock
	}

	_, err = tx.Exec(ctx, `UPDATE products SET stock_quantity = stock_quantity + $1, updated_at = NOW() WHERE id = $2`, delta, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Categories returns the distinct category names currently in the catalog.
func (r *PGRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT category FROM products ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func mapPGError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return shared.ErrDuplicate
		case "23503":
			if strings.Contains(pgErr.ConstraintName, "supplier") {
				return fmt.Errorf("%w: supplier does not exist", shared.ErrValidation)
			}
			return shared.ErrInUse
		}
	}
	return err
}

var _ Repository = (*PGRepository)(nil)
