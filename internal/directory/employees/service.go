package employees

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/vickyyylii/pixel-haven/internal/shared"
)

// CreateInput carries fields for registering a new employee. The password is
// hashed before it ever reaches the repository.
type CreateInput struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=admin manager clerk"`
}

// UpdateInput carries fields for updating employee metadata.
type UpdateInput struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"required,oneof=admin manager clerk"`
	IsActive bool   `json:"is_active"`
}

// Service holds employee business rules.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService constructs the employee service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Employee, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 25
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id int64) (*Employee, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new active employee with a bcrypt-hashed password.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Employee, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	employee := &Employee{
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Role:         in.Role,
		IsActive:     true,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, employee); err != nil {
		return nil, err
	}
	employee.PasswordHash = ""
	return employee, nil
}

// Update changes employee metadata. Passwords change via SetPassword only.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Employee, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	employee, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	employee.Name = strings.TrimSpace(in.Name)
	employee.Email = strings.ToLower(strings.TrimSpace(in.Email))
	employee.Role = in.Role
	employee.IsActive = in.IsActive
	if err := s.repo.Update(ctx, employee); err != nil {
		return nil, err
	}
	return employee, nil
}

// SetPassword replaces the employee password hash.
func (s *Service) SetPassword(ctx context.Context, id int64, password string) error {
	if len(password) < 8 || len(password) > 72 {
		return fmt.Errorf("%w: password must be between 8 and 72 characters", shared.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.SetPassword(ctx, id, string(hash))
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
