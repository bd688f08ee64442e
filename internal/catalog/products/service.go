package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vickyyylii/pixel-haven/internal/shared"
)

// Input carries product fields for create and update operations.
type Input struct {
	Name          string  `json:"name" validate:"required,max=160"`
	Description   string  `json:"description" validate:"omitempty,max=2000"`
	Category      string  `json:"category" validate:"required,max=80"`
	Price         float64 `json:"price" validate:"gte=0"`
	StockQuantity int     `json:"stock_quantity" validate:"gte=0"`
	SupplierID    int64   `json:"supplier_id" validate:"required,gt=0"`
}

// StatsInvalidator is notified when catalog data changes so cached
// dashboard aggregates can be refreshed.
type StatsInvalidator interface {
	Bump(ctx context.Context) error
}

// Service holds product business rules.
type Service struct {
	repo     Repository
	validate *validator.Validate
	stats    StatsInvalidator
}

// NewService constructs the product service.
func NewService(repo Repository, stats StatsInvalidator) *Service {
	return &Service{repo: repo, validate: validator.New(), stats: stats}
}

// List returns products matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Product, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 25
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

// Get fetches a single product.
func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and stores a new product.
func (s *Service) Create(ctx context.Context, in Input) (*Product, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	product := &Product{
		Name:          strings.TrimSpace(in.Name),
		Description:   strings.TrimSpace(in.Description),
		Category:      strings.TrimSpace(in.Category),
		Price:         in.Price,
		StockQuantity: in.StockQuantity,
		SupplierID:    in.SupplierID,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	s.bump(ctx)
	return product, nil
}

// Update validates and applies changes to an existing product.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*Product, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Name = strings.TrimSpace(in.Name)
	product.Description = strings.TrimSpace(in.Description)
	product.Category = strings.TrimSpace(in.Category)
	product.Price = in.Price
	product.StockQuantity = in.StockQuantity
	product.SupplierID = in.SupplierID
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	s.bump(ctx)
	return product, nil
}

// Delete removes a product unless order history references it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.bump(ctx)
	return nil
}

// AdjustStock applies a signed delta to stock, rejecting adjustments
// that would take quantity below zero.
func (s *Service) AdjustStock(ctx context.Context, id int64, delta int) (*Product, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: delta must be non-zero", shared.ErrValidation)
	}
	product, err := s.repo.AdjustStock(ctx, id, delta)
	if err != nil {
		return nil, err
	}
	s.bump(ctx)
	return product, nil
}

// Categories returns the distinct categories in the catalog.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

func (s *Service) check(in Input) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	return nil
}

func (s *Service) bump(ctx context.Context) {
	if s.stats != nil {
		_ = s.stats.Bump(ctx)
	}
}
