package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Enqueuer is the slice of asynq.Client used by task handlers.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// LowStockScanner finds products under the reorder threshold and enqueues
// a reorder email per product.
type LowStockScanner struct {
	logger    *slog.Logger
	pool      *pgxpool.Pool
	client    Enqueuer
	threshold int
}

// NewLowStockScanner constructs the scanner.
func NewLowStockScanner(logger *slog.Logger, pool *pgxpool.Pool, client Enqueuer, threshold int) *LowStockScanner {
	if threshold <= 0 {
		threshold = 10
	}
	return &LowStockScanner{logger: logger, pool: pool, client: client, threshold: threshold}
}

// ProcessTask implements asynq.Handler for TaskTypeLowStockScan.
func (s *LowStockScanner) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	const query = `SELECT p.id, p.name, p.stock_quantity, s.name, s.contact_email
FROM products p JOIN suppliers s ON s.id = p.supplier_id
WHERE p.stock_quantity < $1
ORDER BY p.stock_quantity ASC`
	rows, err := s.pool.Query(ctx, query, s.threshold)
	if err != nil {
		return fmt.Errorf("low stock scan: %w", err)
	}
	defer rows.Close()

	var payloads []ReorderEmailPayload
	for rows.Next() {
		var p ReorderEmailPayload
		if err := rows.Scan(&p.ProductID, &p.ProductName, &p.StockQuantity, &p.SupplierName, &p.SupplierEmail); err != nil {
			return err
		}
		payloads = append(payloads, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, payload := range payloads {
		task, err := NewReorderEmailTask(payload)
		if err != nil {
			return err
		}
		// One task per product so a single bounce does not fail the batch.
		if _, err := s.client.EnqueueContext(ctx, task, asynq.Queue("mail")); err != nil {
			return fmt.Errorf("enqueue reorder email for product %d: %w", payload.ProductID, err)
		}
	}

	s.logger.Info("low stock scan complete",
		slog.Int("threshold", s.threshold),
		slog.Int("flagged", len(payloads)),
	)
	return nil
}

// ReorderMailer drafts and records reorder emails. Actual SMTP delivery is
// delegated to the configured sender.
type ReorderMailer struct {
	logger *slog.Logger
	from   string
	send   func(ctx context.Context, to, subject, body string) error
}

// NewReorderMailer constructs the mailer. A nil sender logs instead of
// sending, which is what test and development environments use.
func NewReorderMailer(logger *slog.Logger, from string, send func(ctx context.Context, to, subject, body string) error) *ReorderMailer {
	return &ReorderMailer{logger: logger, from: from, send: send}
}

// ProcessTask implements asynq.Handler for TaskTypeReorderEmail.
func (m *ReorderMailer) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload ReorderEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("reorder email payload: %w: %w", err, asynq.SkipRetry)
	}

	subject := fmt.Sprintf("Restock request: %s", payload.ProductName)
	body := fmt.Sprintf("Hello %s,\n\n%s is down to %d units at Pixel Haven. Please advise on lead time for a restock.\n\nThanks,\nPixel Haven Inventory",
		payload.SupplierName, payload.ProductName, payload.StockQuantity)

	if m.send == nil {
		m.logger.Info("reorder email (dry run)",
			slog.String("to", payload.SupplierEmail),
			slog.String("subject", subject),
		)
		return nil
	}
	if err := m.send(ctx, payload.SupplierEmail, subject, body); err != nil {
		return fmt.Errorf("send reorder email: %w", err)
	}
	m.logger.Info("reorder email sent",
		slog.String("to", payload.SupplierEmail),
		slog.Int64("product_id", payload.ProductID),
	)
	return nil
}
