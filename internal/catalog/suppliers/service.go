package suppliers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vickyyylii/pixel-haven/internal/shared"
)

// Input carries supplier fields for create and update operations.
type Input struct {
	Name         string `json:"name" validate:"required,max=120"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
	Phone        string `json:"phone" validate:"omitempty,max=40"`
	Address      string `json:"address" validate:"omitempty,max=255"`
}

// Service holds supplier business rules.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService constructs the supplier service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// List returns suppliers matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Supplier, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 25
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

// Get fetches a single supplier.
func (s *Service) Get(ctx context.Context, id int64) (*Supplier, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and stores a new supplier.
func (s *Service) Create(ctx context.Context, in Input) (*Supplier, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	supplier := &Supplier{
		Name:         strings.TrimSpace(in.Name),
		ContactEmail: strings.ToLower(strings.TrimSpace(in.ContactEmail)),
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
	}
	if err := s.repo.Create(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

// Update validates and applies changes to an existing supplier.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*Supplier, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	supplier, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	supplier.Name = strings.TrimSpace(in.Name)
	supplier.ContactEmail = strings.ToLower(strings.TrimSpace(in.ContactEmail))
	supplier.Phone = strings.TrimSpace(in.Phone)
	supplier.Address = strings.TrimSpace(in.Address)
	if err := s.repo.Update(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

// Delete removes a supplier unless products still reference it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) check(in Input) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	return nil
}
