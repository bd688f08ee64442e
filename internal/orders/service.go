package orders

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/vickyyylii/pixel-haven/internal/shared"
)

// Line is one requested order line.
type Line struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gte=1"`
}

// CreateRequest is the payload for placing an order.
type CreateRequest struct {
	CustomerID     int64  `json:"customer_id" validate:"required,gt=0"`
	Lines          []Line `json:"lines" validate:"required,min=1,dive"`
	EmployeeID     int64  `json:"-"`
	IdempotencyKey string `json:"-"`
}

// StatsInvalidator is notified after writes so cached dashboard
// aggregates can refresh.
type StatsInvalidator interface {
	Bump(ctx context.Context) error
}

// Auditor records who did what.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyKeys guards against duplicate order submissions.
type IdempotencyKeys interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// OrderMetrics observes successful order creation.
type OrderMetrics interface {
	OrderCreated(units int)
}

// Service implements the order workflow.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	validate *validator.Validate

	idem    IdempotencyKeys
	audit   Auditor
	stats   StatsInvalidator
	metrics OrderMetrics
}

// ServiceParams collects the service dependencies. All but Repo are optional.
type ServiceParams struct {
	Logger  *slog.Logger
	Repo    Repository
	Idem    IdempotencyKeys
	Audit   Auditor
	Stats   StatsInvalidator
	Metrics OrderMetrics
}

// NewService constructs the order service.
func NewService(p ServiceParams) *Service {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		logger:   logger,
		repo:     p.Repo,
		validate: validator.New(),
		idem:     p.Idem,
		audit:    p.Audit,
		stats:    p.Stats,
		metrics:  p.Metrics,
	}
}

// List returns orders matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Order, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 25
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", shared.ErrValidation, filter.Status)
	}
	return s.repo.List(ctx, filter)
}

// Get fetches one order with its items.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.repo.Get(ctx, id)
}

// Create places an order atomically: it verifies the customer, locks each
// product row, checks stock, snapshots unit prices, decrements stock, and
// writes the order with its items. Either everything commits or nothing
// does; a failed line leaves no stock change behind.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	merged, err := mergeLines(req.Lines)
	if err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" && s.idem != nil {
		if err := s.idem.CheckAndInsert(ctx, req.IdempotencyKey, "orders"); err != nil {
			return nil, err
		}
	}

	order := &Order{
		CustomerID: req.CustomerID,
		EmployeeID: req.EmployeeID,
		Status:     StatusPending,
	}

	err = s.repo.WithTx(ctx, func(tx Repository) error {
		exists, err := tx.CustomerExists(ctx, req.CustomerID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: customer %d", shared.ErrNotFound, req.CustomerID)
		}

		var total float64
		for _, line := range merged {
			product, err := tx.GetProductForUpdate(ctx, line.ProductID)
			if err != nil {
				return fmt.Errorf("product %d: %w", line.ProductID, err)
			}
			if product.StockQuantity < line.Quantity {
				return fmt.Errorf("%w: %s has %d left, %d requested", shared.ErrOutOfStock, product.Name, product.StockQuantity, line.Quantity)
			}
			if err := tx.AdjustProductStock(ctx, line.ProductID, -line.Quantity); err != nil {
				return err
			}
			order.Items = append(order.Items, OrderItem{
				ProductID:   line.ProductID,
				ProductName: product.Name,
				Quantity:    line.Quantity,
				UnitPrice:   product.Price,
			})
			total += product.Price * float64(line.Quantity)
		}
		order.TotalAmount = total

		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
			if err := tx.InsertItem(ctx, &order.Items[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if req.IdempotencyKey != "" && s.idem != nil {
			if delErr := s.idem.Delete(ctx, req.IdempotencyKey); delErr != nil {
				s.logger.Warn("release idempotency key", slog.Any("error", delErr))
			}
		}
		return nil, err
	}

	s.afterWrite(ctx, req.EmployeeID, "order.create", order.ID, map[string]any{
		"customer_id": order.CustomerID,
		"total":       order.TotalAmount,
		"lines":       len(order.Items),
	})
	if s.metrics != nil {
		units := 0
		for _, item := range order.Items {
			units += item.Quantity
		}
		s.metrics.OrderCreated(units)
	}
	return order, nil
}

// UpdateStatus transitions the order to a new status. Final states are
// immutable; moving to cancelled restores stock for every line.
func (s *Service) UpdateStatus(ctx context.Context, id int64, actorID int64, status Status) (*Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", shared.ErrValidation, status)
	}

	err := s.repo.WithTx(ctx, func(tx Repository) error {
		current, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if current.Status.Final() {
			return fmt.Errorf("%w: order is %s and cannot change", shared.ErrValidation, current.Status)
		}
		if current.Status == status {
			return nil
		}
		if status == StatusCancelled {
			items, err := tx.GetItemsForUpdate(ctx, id)
			if err != nil {
				return err
			}
			for _, item := range items {
				if err := tx.AdjustProductStock(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}
		return tx.UpdateStatus(ctx, id, status)
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, actorID, "order.status", id, map[string]any{"status": string(status)})
	return s.repo.Get(ctx, id)
}

// Delete removes an order. Stock consumed by the order is restored unless
// the order was already cancelled.
func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	err := s.repo.WithTx(ctx, func(tx Repository) error {
		current, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != StatusCancelled {
			items, err := tx.GetItemsForUpdate(ctx, id)
			if err != nil {
				return err
			}
			for _, item := range items {
				if err := tx.AdjustProductStock(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}
		return tx.DeleteOrder(ctx, id)
	})
	if err != nil {
		return err
	}

	s.afterWrite(ctx, actorID, "order.delete", id, nil)
	return nil
}

// mergeLines collapses duplicate product references and orders lines by
// product ID so concurrent order creation locks rows in a stable order.
func mergeLines(lines []Line) ([]Line, error) {
	byProduct := make(map[int64]int, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be at least 1", shared.ErrValidation)
		}
		byProduct[line.ProductID] += line.Quantity
	}
	merged := make([]Line, 0, len(byProduct))
	for id, qty := range byProduct {
		merged = append(merged, Line{ProductID: id, Quantity: qty})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ProductID < merged[j].ProductID })
	return merged, nil
}

func (s *Service) afterWrite(ctx context.Context, actorID int64, action string, orderID int64, meta map[string]any) {
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   action,
			Entity:   "order",
			EntityID: strconv.FormatInt(orderID, 10),
			Meta:     meta,
		}); err != nil {
			s.logger.Warn("audit record", slog.Any("error", err))
		}
	}
	if s.stats != nil {
		if err := s.stats.Bump(ctx); err != nil {
			s.logger.Warn("bump dashboard stats", slog.Any("error", err))
		}
	}
}
