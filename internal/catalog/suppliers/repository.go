package suppliers

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

// Repository defines persistence operations for suppliers.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]Supplier, int, error)
	Get(ctx context.Context, id int64) (*Supplier, error)
	Create(ctx context.Context, s *Supplier) error
	Update(ctx context.Context, s *Supplier) error
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

const supplierColumns = `id, name, contact_email, COALESCE(phone, ''), COALESCE(address, ''), created_at, updated_at`

// List returns suppliers matching the filter plus the unfiltered-by-page total.
func (r *PGRepository) List(ctx context.Context, filter Filter) ([]Supplier, int, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR contact_email ILIKE $%d)", n, n))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM suppliers"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + supplierColumns + " FROM suppliers" + where + " ORDER BY name ASC"
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

	var out []Supplier
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.ContactEmail, &s.Phone, &s.Address, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// Get fetches a single supplier by ID.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Supplier, error) {
	var s Supplier
	err := r.pool.QueryRow(ctx, "SELECT "+supplierColumns+" FROM suppliers WHERE id = $1", id).
		Scan(&s.ID, &s.Name, &s.ContactEmail, &s.Phone, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Create inserts a supplier and fills the generated fields.
func (r *PGRepository) Create(ctx context.Context, s *Supplier) error {
	const query = `INSERT INTO suppliers (name, contact_email, phone, address, created_at, updated_at)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NOW(), NOW())
RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query, s.Name, s.ContactEmail, s.Phone, s.Address).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return mapPGError(err)
}

// Update persists changes to an existing supplier.
func (r *PGRepository) Update(ctx context.Context, s *Supplier) error {
	const query = `UPDATE suppliers SET name = $1, contact_email = $2, phone = NULLIF($3, ''), address = NULLIF($4, ''), updated_at = NOW()
WHERE id = $5
RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query, s.Name, s.ContactEmail, s.Phone, s.Address, s.ID).Scan(&s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	return mapPGError(err)
}

// Delete removes a supplier. Products referencing the supplier block the
// delete via the foreign key, surfaced as ErrInUse.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
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
