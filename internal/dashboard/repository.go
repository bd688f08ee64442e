package dashboard

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Totals counts the main entities and sums revenue over non-cancelled orders.
func (r *PGRepository) Totals(ctx context.Context) (Totals, error) {
	const query = `SELECT
	(SELECT COUNT(*) FROM products),
	(SELECT COUNT(*) FROM suppliers),
	(SELECT COUNT(*) FROM customers),
	(SELECT COUNT(*) FROM orders),
	(SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status <> 'cancelled')`
	var t Totals
	err := r.pool.QueryRow(ctx, query).Scan(&t.Products, &t.Suppliers, &t.Customers, &t.Orders, &t.Revenue)
	return t, err
}

// LowStock lists products under the threshold, lowest first.
func (r *PGRepository) LowStock(ctx context.Context, threshold int) ([]LowStockProduct, error) {
	const query = `SELECT id, name, category, stock_quantity FROM products WHERE stock_quantity < $1 ORDER BY stock_quantity ASC, name ASC`
	rows, err := r.pool.Query(ctx, query, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LowStockProduct
	for rows.Next() {
		var p LowStockProduct
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.StockQuantity); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CategoryCounts counts products per category.
func (r *PGRepository) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	rows, err := r.pool.Query(ctx, `SELECT category, COUNT(*) FROM products GROUP BY category ORDER BY COUNT(*) DESC, category ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// PriceBands buckets the catalog into the store's standard price ranges.
func (r *PGRepository) PriceBands(ctx context.Context) (PriceBands, error) {
	const query = `SELECT
	COUNT(*) FILTER (WHERE price < 50),
	COUNT(*) FILTER (WHERE price >= 50 AND price < 100),
	COUNT(*) FILTER (WHERE price >= 100 AND price < 200),
	COUNT(*) FILTER (WHERE price >= 200)
FROM products`
	var b PriceBands
	err := r.pool.QueryRow(ctx, query).Scan(&b.Under50, &b.From50To99, &b.From100To199, &b.Over200)
	return b, err
}

var _ Repository = (*PGRepository)(nil)
