package customers

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

// Repository defines persistence operations for customers.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]Customer, int, error)
	Get(ctx context.Context, id int64) (*Customer, error)
	Create(ctx context.Context, c *Customer) error
	Update(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, id int64) error
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const customerColumns = `id, name, email, COALESCE(phone, ''), COALESCE(address, ''), created_at, updated_at`

func (r *PGRepository) List(ctx context.Context, filter Filter) ([]Customer, int, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", n, n))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM customers"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + customerColumns + " FROM customers" + where + " ORDER BY name ASC"
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

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *PGRepository) Get(ctx context.Context, id int64) (*Customer, error) {
	var c Customer
	err := r.pool.QueryRow(ctx, "SELECT "+customerColumns+" FROM customers WHERE id = $1", id).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *PGRepository) Create(ctx context.Context, c *Customer) error {
	const query = `INSERT INTO customers (name, email, phone, address, created_at, updated_at)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NOW(), NOW())
RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query, c.Name, c.Email, c.Phone, c.Address).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return mapPGError(err)
}

func (r *PGRepository) Update(ctx context.Context, c *Customer) error {
	const query = `UPDATE customers SET name = $1, email = $2, phone = NULLIF($3, ''), address = NULLIF($4, ''), updated_at = NOW()
WHERE id = $5
RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query, c.Name, c.Email, c.Phone, c.Address, c.ID).Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	return mapPGError(err)
}

// Delete removes a customer. Customers with order history are protected by
// the foreign key and reported as ErrInUse.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return mapPGError(err)
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
			return shared.ErrInUse
		}
	}
	return err
}

var _ Repository = (*PGRepository)(nil)
