package employees

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vickyyylii/pixel-haven/internal/shared"
)

type memoryRepo struct {
	nextID    int64
	employees map[int64]*Employee
	emails    map[string]int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, employees: make(map[int64]*Employee), emails: make(map[string]int64)}
}

func (m *memoryRepo) List(ctx context.Context, filter Filter) ([]Employee, int, error) {
	var out []Employee
	for _, e := range m.employees {
		if filter.ActiveOnly && !e.IsActive {
			continue
		}
		out = append(out, *e)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (*Employee, error) {
	e, ok := m.employees[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memoryRepo) Create(ctx context.Context, e *Employee) error {
	if _, exists := m.emails[e.Email]; exists {
		return shared.ErrDuplicate
	}
	e.ID = m.nextID
	m.nextID++
	cp := *e
	m.employees[e.ID] = &cp
	m.emails[e.Email] = e.ID
	return nil
}

func (m *memoryRepo) Update(ctx context.Context, e *Employee) error {
	stored, ok := m.employees[e.ID]
	if !ok {
		return shared.ErrNotFound
	}
	cp := *e
	cp.PasswordHash = stored.PasswordHash
	m.employees[e.ID] = &cp
	return nil
}

func (m *memoryRepo) SetPassword(ctx context.Context, id int64, hash string) error {
	e, ok := m.employees[id]
	if !ok {
		return shared.ErrNotFound
	}
	e.PasswordHash = hash
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.employees[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.employees, id)
	return nil
}

func TestCreateEmployeeHashesPassword(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	employee, err := svc.Create(context.Background(), CreateInput{
		Name:     "Sam Clerk",
		Email:    "sam@pixelhaven.local",
		Password: "hunter2hunter2",
		Role:     "clerk",
	})
	require.NoError(t, err)
	assert.True(t, employee.IsActive)
	assert.Empty(t, employee.PasswordHash, "hash must not leak out of the service")

	stored := repo.employees[employee.ID]
	require.NotEmpty(t, stored.PasswordHash)
	assert.NotEqual(t, "hunter2hunter2", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("hunter2hunter2")))
}

func TestCreateEmployeeValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"short password", CreateInput{Name: "S", Email: "s@x.example", Password: "short", Role: "clerk"}},
		{"unknown role", CreateInput{Name: "S", Email: "s@x.example", Password: "longenough", Role: "wizard"}},
		{"bad email", CreateInput{Name: "S", Email: "nope", Password: "longenough", Role: "clerk"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.in)
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestUpdateEmployeeKeepsPassword(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateInput{
		Name: "Sam", Email: "sam@pixelhaven.local", Password: "hunter2hunter2", Role: "clerk",
	})
	require.NoError(t, err)
	originalHash := repo.employees[created.ID].PasswordHash

	updated, err := svc.Update(context.Background(), created.ID, UpdateInput{
		Name: "Sam Senior", Email: "sam@pixelhaven.local", Role: "manager", IsActive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "manager", updated.Role)
	assert.Equal(t, originalHash, repo.employees[created.ID].PasswordHash)
}

func TestSetPassword(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateInput{
		Name: "Sam", Email: "sam@pixelhaven.local", Password: "hunter2hunter2", Role: "clerk",
	})
	require.NoError(t, err)

	err = svc.SetPassword(context.Background(), created.ID, "tiny")
	assert.ErrorIs(t, err, shared.ErrValidation)

	require.NoError(t, svc.SetPassword(context.Background(), created.ID, "brand-new-password"))
	stored := repo.employees[created.ID]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("brand-new-password")))
}
