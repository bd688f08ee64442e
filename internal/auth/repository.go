package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vickyyylii/pixel-haven/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Employee, error)
	CreateSession(ctx context.Context, id string, employeeID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches an employee by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Employee, error) {
	const query = `SELECT id, name, email, password_hash, role, is_active, created_at, updated_at FROM employees WHERE email = $1`
	var e Employee
	err := r.pool.QueryRow(ctx, query, email).Scan(&e.ID, &e.Name, &e.Email, &e.PasswordHash, &e.Role, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// CreateSession persists a new login session in the database for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id string, employeeID int64, expiresAt time.Time, ip, ua string) error {
	const query = `INSERT INTO employee_sessions (id, employee_id, created_at, expires_at, ip, ua) VALUES ($1, $2, NOW(), $3, NULLIF($4, ''), NULLIF($5, ''))`
	_, err := r.pool.Exec(ctx, query, id, employeeID, expiresAt.UTC(), ip, ua)
	return err
}

// DeleteSession removes a session record from the database.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM employee_sessions WHERE id = $1`, id)
	return err
}

var _ Repository = (*PGRepository)(nil)
