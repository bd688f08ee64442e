package customers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vickyyylii/pixel-haven/internal/shared"
)

// Input carries customer fields for create and update operations.
type Input struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,max=40"`
	Address string `json:"address" validate:"omitempty,max=255"`
}

// Service holds customer business rules.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService constructs the customer service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Customer, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 25
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (*Customer, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	customer := &Customer{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:   strings.TrimSpace(in.Phone),
		Address: strings.TrimSpace(in.Address),
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (*Customer, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	customer, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	customer.Name = strings.TrimSpace(in.Name)
	customer.Email = strings.ToLower(strings.TrimSpace(in.Email))
	customer.Phone = strings.TrimSpace(in.Phone)
	customer.Address = strings.TrimSpace(in.Address)
	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) check(in Input) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	return nil
}
