// Command seed creates the Pixel Haven schema and loads development data.
// It is idempotent: rerunning it leaves existing rows alone.
package main

import (
	"context"
	"log/slog"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/vickyyylii/pixel-haven/internal/app"
	"github.com/vickyyylii/pixel-haven/internal/platform/db"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS employees (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'clerk',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS employee_sessions (
		id TEXT PRIMARY KEY,
		employee_id BIGINT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at TIMESTAMPTZ NOT NULL,
		ip TEXT,
		ua TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS suppliers (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		name TEXT NOT NULL,
		contact_email TEXT NOT NULL UNIQUE,
		phone TEXT,
		address TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		category TEXT NOT NULL,
		price NUMERIC(10,2) NOT NULL CHECK (price >= 0),
		stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
		supplier_id BIGINT NOT NULL REFERENCES suppliers(id) ON DELETE RESTRICT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone TEXT,
		address TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		customer_id BIGINT NOT NULL REFERENCES customers(id) ON DELETE RESTRICT,
		employee_id BIGINT REFERENCES employees(id) ON DELETE SET NULL,
		status TEXT NOT NULL DEFAULT 'pending'
			CHECK (status IN ('pending', 'processing', 'shipped', 'completed', 'cancelled')),
		total_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		order_date TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
		quantity INTEGER NOT NULL CHECK (quantity >= 1),
		unit_price NUMERIC(10,2) NOT NULL CHECK (unit_price >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		actor_id BIGINT NOT NULL,
		action TEXT NOT NULL,
		entity TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		meta JSONB,
		occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS idempotency_keys (
		key TEXT PRIMARY KEY,
		module TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products (category)`,
	`CREATE INDEX IF NOT EXISTS idx_products_supplier ON products (supplier_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders (customer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items (order_id)`,
}

func main() {
	if err := run(); err != nil {
		slog.Error("seed failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	logger.Info("schema ready")

	adminHash, err := bcrypt.GenerateFromPassword([]byte("admin123admin"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `INSERT INTO employees (name, email, password_hash, role)
VALUES ($1, $2, $3, 'admin')
ON CONFLICT (email) DO NOTHING`, "Store Admin", "admin@pixelhaven.local", string(adminHash))
	if err != nil {
		return err
	}

	suppliers := [][]string{
		{"GameTech Distributors", "orders@gametech.example", "555-0101", "400 Industrial Way"},
		{"Retro Replay Wholesale", "sales@retroreplay.example", "555-0102", "77 Cartridge Ave"},
		{"Peripheral Plus", "contact@peripheralplus.example", "555-0103", "12 Controller Blvd"},
	}
	for _, s := range suppliers {
		if _, err := pool.Exec(ctx, `INSERT INTO suppliers (name, contact_email, phone, address)
VALUES ($1, $2, $3, $4)
ON CONFLICT (contact_email) DO NOTHING`, s[0], s[1], s[2], s[3]); err != nil {
			return err
		}
	}

	products := []struct {
		name, description, category string
		price                       float64
		stock                       int
		supplierEmail               string
	}{
		{"Neon Drift 2", "Arcade racer with split-screen mode", "Racing", 59.99, 25, "orders@gametech.example"},
		{"Pixel Quest", "Top-down adventure RPG", "RPG", 39.99, 40, "orders@gametech.example"},
		{"Starfall Tactics", "Turn-based space strategy", "Strategy", 49.99, 8, "orders@gametech.example"},
		{"Retro Pack Vol. 1", "Ten classic titles remastered", "Retro", 24.99, 60, "sales@retroreplay.example"},
		{"Arcade Stick Pro", "Tournament-grade arcade stick", "Accessories", 129.99, 12, "contact@peripheralplus.example"},
		{"Haven Controller", "Wireless controller, 40h battery", "Accessories", 69.99, 35, "contact@peripheralplus.example"},
		{"Collector Console X", "Limited edition console bundle", "Hardware", 499.99, 3, "contact@peripheralplus.example"},
	}
	for _, p := range products {
		if _, err := pool.Exec(ctx, `INSERT INTO products (name, description, category, price, stock_quantity, supplier_id)
SELECT $1, $2, $3, $4, $5, s.id FROM suppliers s
WHERE s.contact_email = $6
  AND NOT EXISTS (SELECT 1 FROM products WHERE name = $1)`,
			p.name, p.description, p.category, p.price, p.stock, p.supplierEmail); err != nil {
			return err
		}
	}

	customers := [][]string{
		{"Riley Chen", "riley.chen@example.com", "555-0199", "8 Maple Ct"},
		{"Jordan Alvarez", "jordan.alvarez@example.com", "555-0198", "23 Birch Ln"},
		{"Sam Okafor", "sam.okafor@example.com", "555-0197", "102 Cedar Rd"},
	}
	for _, c := range customers {
		if _, err := pool.Exec(ctx, `INSERT INTO customers (name, email, phone, address)
VALUES ($1, $2, $3, $4)
ON CONFLICT (email) DO NOTHING`, c[0], c[1], c[2], c[3]); err != nil {
			return err
		}
	}

	logger.Info("seed data loaded")
	return nil
}
