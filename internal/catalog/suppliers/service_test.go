package suppliers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vickyyylii/pixel-haven/internal/shared"
)

type memoryRepo struct {
	nextID    int64
	suppliers map[int64]*Supplier
	inUse     map[int64]bool
	emails    map[string]int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		nextID:    1,
		suppliers: make(map[int64]*Supplier),
		inUse:     make(map[int64]bool),
		emails:    make(map[string]int64),
	}
}

func (m *memoryRepo) List(ctx context.Context, filter Filter) ([]Supplier, int, error) {
	var out []Supplier
	for _, s := range m.suppliers {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (*Supplier, error) {
	s, ok := m.suppliers[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memoryRepo) Create(ctx context.Context, s *Supplier) error {
	if _, exists := m.emails[s.ContactEmail]; exists {
		return shared.ErrDuplicate
	}
	s.ID = m.nextID
	m.nextID++
	cp := *s
	m.suppliers[s.ID] = &cp
	m.emails[s.ContactEmail] = s.ID
	return nil
}

func (m *memoryRepo) Update(ctx context.Context, s *Supplier) error {
	if _, ok := m.suppliers[s.ID]; !ok {
		return shared.ErrNotFound
	}
	cp := *s
	m.suppliers[s.ID] = &cp
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.suppliers[id]; !ok {
		return shared.ErrNotFound
	}
	if m.inUse[id] {
		return shared.ErrInUse
	}
	delete(m.suppliers, id)
	return nil
}

func TestCreateSupplierNormalizesInput(t *testing.T) {
	svc := NewService(newMemoryRepo())

	supplier, err := svc.Create(context.Background(), Input{
		Name:         "  GameTech Distributors  ",
		ContactEmail: "Contact@GameTech.example ",
		Phone:        " 555-0101 ",
	})
	require.NoError(t, err)

	assert.Equal(t, "GameTech Distributors", supplier.Name)
	assert.Equal(t, "contact@gametech.example", supplier.ContactEmail)
	assert.Equal(t, "555-0101", supplier.Phone)
	assert.NotZero(t, supplier.ID)
}

func TestCreateSupplierValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())

	cases := []struct {
		name string
		in   Input
	}{
		{"missing name", Input{ContactEmail: "a@b.example"}},
		{"bad email", Input{Name: "Acme", ContactEmail: "not-an-email"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.in)
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestCreateSupplierDuplicateEmail(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), Input{Name: "Acme", ContactEmail: "sales@acme.example"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), Input{Name: "Acme Two", ContactEmail: "sales@acme.example"})
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestUpdateSupplier(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), Input{Name: "Acme", ContactEmail: "sales@acme.example"})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, Input{
		Name:         "Acme Games",
		ContactEmail: "sales@acme.example",
		Address:      "12 High St",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Games", updated.Name)
	assert.Equal(t, "12 High St", updated.Address)

	_, err = svc.Update(context.Background(), 999, Input{Name: "Nope", ContactEmail: "x@y.example"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteSupplierInUse(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), Input{Name: "Acme", ContactEmail: "sales@acme.example"})
	require.NoError(t, err)
	repo.inUse[created.ID] = true

	err = svc.Delete(context.Background(), created.ID)
	assert.ErrorIs(t, err, shared.ErrInUse)

	repo.inUse[created.ID] = false
	require.NoError(t, svc.Delete(context.Background(), created.ID))

	err = svc.Delete(context.Background(), created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
