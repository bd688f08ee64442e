package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vickyyylii/pixel-haven/internal/platform/db"
	"github.com/vickyyylii/pixel-haven/internal/shared"
)

// Repository defines persistence operations for orders. WithTx hands the
// callback a Repository scoped to a single transaction so the order
// workflow can hold row locks across its steps.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]Order, int, error)
	Get(ctx context.Context, id int64) (*Order, error)
	WithTx(ctx context.Context, fn func(Repository) error) error

	CustomerExists(ctx context.Context, id int64) (bool, error)
	GetProductForUpdate(ctx context.Context, id int64) (*LockedProduct, error)
	AdjustProductStock(ctx context.Context, id int64, delta int) error
	InsertOrder(ctx context.Context, o *Order) error
	InsertItem(ctx context.Context, item *OrderItem) error
	GetItemsForUpdate(ctx context.Context, orderID int64) ([]OrderItem, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	DeleteOrder(ctx context.Context, id int64) error
}

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{db: pool, pool: pool}
}

// WithTx runs fn against a transaction-scoped view of the repository.
func (r *PGRepository) WithTx(ctx context.Context, fn func(Repository) error) error {
	if r.pool == nil {
		return errors.New("orders: WithTx on transaction-scoped repository")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&PGRepository{db: tx})
	})
}

// List returns orders with the customer name joined in. Items are not
// loaded for listings.
func (r *PGRepository) List(ctx context.Context, filter Filter) ([]Order, int, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("o.status = $%d", len(args)))
	}
	if filter.CustomerID > 0 {
		args = append(args, filter.CustomerID)
		conds = append(conds, fmt.Sprintf("o.customer_id = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		conds = append(conds, fmt.Sprintf("o.order_date >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		conds = append(conds, fmt.Sprintf("o.order_date < $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM orders o"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT o.id, o.customer_id, c.name, o.employee_id, o.status, o.total_amount, o.order_date
FROM orders o JOIN customers c ON c.id = o.customer_id` + where + " ORDER BY o.order_date DESC, o.id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.CustomerName, &o.EmployeeID, &o.Status, &o.TotalAmount, &o.OrderDate); err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

// Get fetches a single order with its items.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Order, error) {
	const query = `SELECT o.id, o.customer_id, c.name, o.employee_id, o.status, o.total_amount, o.order_date
FROM orders o JOIN customers c ON c.id = o.customer_id WHERE o.id = $1`
	var o Order
	err := r.db.QueryRow(ctx, query, id).
		Scan(&o.ID, &o.CustomerID, &o.CustomerName, &o.EmployeeID, &o.Status, &o.TotalAmount, &o.OrderDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	const itemQuery = `SELECT i.id, i.order_id, i.product_id, p.name, i.quantity, i.unit_price
FROM order_items i JOIN products p ON p.id = i.product_id WHERE i.order_id = $1 ORDER BY i.id`
	rows, err := r.db.Query(ctx, itemQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, item)
	}
	return &o, rows.Err()
}

// CustomerExists reports whether the customer is on record.
func (r *PGRepository) CustomerExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// GetProductForUpdate locks the product row for the remainder of the
// transaction and returns the fields the workflow needs.
func (r *PGRepository) GetProductForUpdate(ctx context.Context, id int64) (*LockedProduct, error) {
	const query = `SELECT id, name, price, stock_quantity FROM products WHERE id = $1 FOR UPDATE`
	var p LockedProduct
	err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Price, &p.StockQuantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// AdjustProductStock applies a delta to a product's stock quantity.
func (r *PGRepository) AdjustProductStock(ctx context.Context, id int64, delta int) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET stock_quantity = stock_quantity + $1, updated_at = NOW() WHERE id = $2`, delta, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// InsertOrder stores the order header.
func (r *PGRepository) InsertOrder(ctx context.Context, o *Order) error {
	const query = `INSERT INTO orders (customer_id, employee_id, status, total_amount, order_date)
VALUES ($1, $2, $3, $4, NOW())
RETURNING id, order_date`
	err := r.db.QueryRow(ctx, query, o.CustomerID, o.EmployeeID, string(o.Status), o.TotalAmount).
		Scan(&o.ID, &o.OrderDate)
	return mapPGError(err)
}

// InsertItem stores one order line.
func (r *PGRepository) InsertItem(ctx context.Context, item *OrderItem) error {
	const query = `INSERT INTO order_items (order_id, product_id, quantity, unit_price)
VALUES ($1, $2, $3, $4)
RETURNING id`
	return mapPGError(r.db.QueryRow(ctx, query, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice).Scan(&item.ID))
}

// GetItemsForUpdate locks and returns the order's items so stock can be
// restored before a delete or cancellation.
func (r *PGRepository) GetItemsForUpdate(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := r.db.Query(ctx, `SELECT id, order_id, product_id, quantity, unit_price FROM order_items WHERE order_id = $1 ORDER BY product_id FOR UPDATE`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// UpdateStatus sets the order status.
func (r *PGRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteOrder removes the order and its items.
func (r *PGRepository) DeleteOrder(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
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
			return fmt.Errorf("%w: %s", shared.ErrNotFound, pgErr.ConstraintName)
		}
	}
	return err
}

var _ Repository = (*PGRepository)(nil)
