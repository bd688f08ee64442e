package orders

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vickyyylii/pixel-haven/internal/shared"
)

// memState holds the raw data; its methods assume the caller already
// holds the repo mutex, which stands in for row locking.
type memState struct {
	customers   map[int64]bool
	products    map[int64]*LockedProduct
	orders      map[int64]*Order
	items       map[int64][]OrderItem
	nextOrderID int64
	nextItemID  int64
}

func (s *memState) clone() *memState {
	cp := &memState{
		customers:   make(map[int64]bool, len(s.customers)),
		products:    make(map[int64]*LockedProduct, len(s.products)),
		orders:      make(map[int64]*Order, len(s.orders)),
		items:       make(map[int64][]OrderItem, len(s.items)),
		nextOrderID: s.nextOrderID,
		nextItemID:  s.nextItemID,
	}
	for k, v := range s.customers {
		cp.customers[k] = v
	}
	for k, v := range s.products {
		p := *v
		cp.products[k] = &p
	}
	for k, v := range s.orders {
		o := *v
		cp.orders[k] = &o
	}
	for k, v := range s.items {
		cp.items[k] = append([]OrderItem(nil), v...)
	}
	return cp
}

func (s *memState) get(id int64) (*Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *o
	cp.Items = append([]OrderItem(nil), s.items[id]...)
	return &cp, nil
}

type memoryRepo struct {
	mu    sync.Mutex
	state *memState
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{state: &memState{
		customers:   make(map[int64]bool),
		products:    make(map[int64]*LockedProduct),
		orders:      make(map[int64]*Order),
		items:       make(map[int64][]OrderItem),
		nextOrderID: 1,
		nextItemID:  1,
	}}
}

func (m *memoryRepo) List(ctx context.Context, filter Filter) ([]Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Order
	for _, o := range m.state.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.CustomerID > 0 && o.CustomerID != filter.CustomerID {
			continue
		}
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.get(id)
}

// WithTx serializes transactions and rolls the state back when fn fails,
// mirroring the commit-or-nothing behavior of the real repository.
func (m *memoryRepo) WithTx(ctx context.Context, fn func(Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.state.clone()
	if err := fn(&txRepo{state: m.state}); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

func (m *memoryRepo) CustomerExists(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.customers[id], nil
}

func (m *memoryRepo) GetProductForUpdate(ctx context.Context, id int64) (*LockedProduct, error) {
	return nil, shared.ErrNotFound
}

func (m *memoryRepo) AdjustProductStock(ctx context.Context, id int64, delta int) error {
	return shared.ErrNotFound
}

func (m *memoryRepo) InsertOrder(ctx context.Context, o *Order) error { return nil }

func (m *memoryRepo) InsertItem(ctx context.Context, item *OrderItem) error { return nil }

func (m *memoryRepo) GetItemsForUpdate(ctx context.Context, orderID int64) ([]OrderItem, error) {
	return nil, nil
}

func (m *memoryRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	return shared.ErrNotFound
}

func (m *memoryRepo) DeleteOrder(ctx context.Context, id int64) error { return shared.ErrNotFound }

// txRepo is the transaction-scoped view handed to WithTx callbacks.
type txRepo struct {
	state *memState
}

func (t *txRepo) WithTx(ctx context.Context, fn func(Repository) error) error {
	return fn(t)
}

func (t *txRepo) List(ctx context.Context, filter Filter) ([]Order, int, error) {
	return nil, 0, nil
}

func (t *txRepo) Get(ctx context.Context, id int64) (*Order, error) {
	return t.state.get(id)
}

func (t *txRepo) CustomerExists(ctx context.Context, id int64) (bool, error) {
	return t.state.customers[id], nil
}

func (t *txRepo) GetProductForUpdate(ctx context.Context, id int64) (*LockedProduct, error) {
	p, ok := t.state.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (t *txRepo) AdjustProductStock(ctx context.Context, id int64, delta int) error {
	p, ok := t.state.products[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.StockQuantity += delta
	return nil
}

func (t *txRepo) InsertOrder(ctx context.Context, o *Order) error {
	o.ID = t.state.nextOrderID
	t.state.nextOrderID++
	cp := *o
	cp.Items = nil
	t.state.orders[o.ID] = &cp
	return nil
}

func (t *txRepo) InsertItem(ctx context.Context, item *OrderItem) error {
	item.ID = t.state.nextItemID
	t.state.nextItemID++
	t.state.items[item.OrderID] = append(t.state.items[item.OrderID], *item)
	return nil
}

func (t *txRepo) GetItemsForUpdate(ctx context.Context, orderID int64) ([]OrderItem, error) {
	return append([]OrderItem(nil), t.state.items[orderID]...), nil
}

func (t *txRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	o, ok := t.state.orders[id]
	if !ok {
		return shared.ErrNotFound
	}
	o.Status = status
	return nil
}

func (t *txRepo) DeleteOrder(ctx context.Context, id int64) error {
	if _, ok := t.state.orders[id]; !ok {
		return shared.ErrNotFound
	}
	delete(t.state.orders, id)
	delete(t.state.items, id)
	return nil
}

type fakeIdem struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newFakeIdem() *fakeIdem { return &fakeIdem{keys: make(map[string]bool)} }

func (f *fakeIdem) CheckAndInsert(ctx context.Context, key, module string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	f.keys[key] = true
	return nil
}

func (f *fakeIdem) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, key)
	return nil
}

type recordingAudit struct {
	mu   sync.Mutex
	logs []shared.AuditLog
}

func (a *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

type countingMetrics struct {
	mu    sync.Mutex
	units int
}

func (c *countingMetrics) OrderCreated(units int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.units += units
}

func seedRepo() *memoryRepo {
	repo := newMemoryRepo()
	repo.state.customers[1] = true
	repo.state.products[10] = &LockedProduct{ID: 10, Name: "Neon Drift 2", Price: 59.99, StockQuantity: 5}
	repo.state.products[20] = &LockedProduct{ID: 20, Name: "Pixel Quest", Price: 39.99, StockQuantity: 2}
	return repo
}

func TestCreateOrder(t *testing.T) {
	repo := seedRepo()
	audit := &recordingAudit{}
	metrics := &countingMetrics{}
	svc := NewService(ServiceParams{Repo: repo, Audit: audit, Metrics: metrics})

	order, err := svc.Create(context.Background(), CreateRequest{
		CustomerID: 1,
		EmployeeID: 7,
		Lines:      []Line{{ProductID: 10, Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, order.Status)
	assert.InDelta(t, 119.98, order.TotalAmount, 0.001)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 59.99, order.Items[0].UnitPrice)
	assert.Equal(t, 3, repo.state.products[10].StockQuantity)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, "order.create", audit.logs[0].Action)
	assert.Equal(t, int64(7), audit.logs[0].ActorID)
	assert.Equal(t, 2, metrics.units)
}

func TestCreateOrderDrainsStockExactly(t *testing.T) {
	repo := seedRepo()
	repo.state.products[10].StockQuantity = 2
	svc := NewService(ServiceParams{Repo: repo})

	order, err := svc.Create(context.Background(), CreateRequest{
		CustomerID: 1,
		Lines:      []Line{{ProductID: 10, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.InDelta(t, 119.98, order.TotalAmount, 0.001)
	assert.Equal(t, 0, repo.state.products[10].StockQuantity)

	_, err = svc.Create(context.Background(), CreateRequest{
		CustomerID: 1,
		Lines:      []Line{{ProductID: 10, Quantity: 1}},
	})
	assert.ErrorIs(t, err, shared.ErrOutOfStock)
}

func TestCreateOrderPriceSnapshot(t *testing.T) {
	repo := seedRepo()
	svc := NewService(ServiceParams{Repo: repo})

	order, err := svc.Create(context.Background(), CreateRequest{
		CustomerID: 1,
		Lines:      []Line{{ProductID: 10, Quantity: 1}},
	})
	require.NoError(t, err)

	// Price changes after the sale must not rewrite order history.
	repo.state.products[10].Price = 19.99

	got, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 59.99, got.Items[0].UnitPrice)
	assert.InDelta(t, 59.99, got.TotalAmount, 0.001)
}

func TestCreateOrderUnknownCustomer(t *testing.T) {
	svc := NewService(ServiceParams{Repo: seedRepo()})

	_, err := svc.Create(context.Background(), CreateRequest{
		CustomerID: 42,
		Lines:      []Line{{ProductID: 10, Quantity: 1}},
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	repo := seedRepo()
	svc := NewService(ServiceParams{Repo: repo})

	_, err := svc.Create(context.Background(), CreateRequest{
		CustomerID: 1,
		Lines:      []Line{{ProductID: 10, Quantity: 1}, {ProductID: 404, Quantity: 1}},
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, 5, repo.state.products[10].StockQuantity, "failed order must not consume stock")
}

func TestCreateOrderOutOfStock(t *testing.T) {
	repo := seedRepo()
	svc := NewService(ServiceParams{Repo: repo})

	_, err := svc.Create(context.Background(), CreateRequest{
		CustomerID: 1,
		Lines:      []Line{{ProductID: 10, Quantity: 1}, {ProductID: 20, Quantity: 3}},
	})
	assert.ErrorIs(t, err, shared.ErrOutOfStock)
	assert.Equal(t, 5, repo.state.products[10].StockQuantity)
	assert.Equal(t, 2, repo.state.products[20].StockQuantity)
	assert.Empty(t, repo.state.orders)
}

func TestCreateOrderMergesDuplicateLines(t *testing.T) {
	repo := seedRepo()
	svc := NewService(ServiceParams{Repo: repo})

	order, err := svc.Create(context.Background(), CreateRequest{
		CustomerID: 1,
		Lines:      []Line{{ProductID: 10, Quantity: 1}, {ProductID: 10, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.Equal(t, 2, repo.state.products[10].StockQuantity)
}

func TestCreateOrderValidation(t *testing.T) {
	svc := NewService(ServiceParams{Repo: seedRepo()})

	cases := []struct {
		name string
		req  CreateRequest
	}{
		{"no lines", CreateRequest{CustomerID: 1}},
		{"zero quantity", CreateRequest{CustomerID: 1, Lines: []Line{{ProductID: 10, Quantity: 0}}}},
		{"missing customer id", CreateRequest{Lines: []Line{{ProductID: 10, Quantity: 1}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.req)
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestCreateOrderConcurrentLastUnit(t *testing.T) {
	repo := seedRepo()
	repo.state.products[10].StockQuantity = 1
	svc := NewService(ServiceParams{Repo: repo})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(context.Background(), CreateRequest{
				CustomerID: 1,
				Lines:      []Line{{ProductID: 10, Quantity: 1}},
			})
		}(i)
	}
	wg.Wait()

	var succeeded, outOfStock int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, shared.ErrOutOfStock):
			outOfStock++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, outOfStock)
	assert.Equal(t, 0, repo.state.products[10].StockQuantity)
}

func TestCreateOrderIdempotency(t *testing.T) {
	repo := seedRepo()
	idem := newFakeIdem()
	svc := NewService(ServiceParams{Repo: repo, Idem: idem})

	req := CreateRequest{
		CustomerID:     1,
		Lines:          []Line{{ProductID: 10, Quantity: 1}},
		IdempotencyKey: "req-123",
	}
	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, shared.ErrIdempotencyConflict)
}

func TestCreateOrderReleasesKeyOnFailure(t *testing.T) {
	repo := seedRepo()
	idem := newFakeIdem()
	svc := NewService(ServiceParams{Repo: repo, Idem: idem})

	req := CreateRequest{
		CustomerID:     1,
		Lines:          []Line{{ProductID: 20, Quantity: 99}},
		IdempotencyKey: "req-456",
	}
	_, err := svc.Create(context.Background(), req)
	require.ErrorIs(t, err, shared.ErrOutOfStock)

	// The key must be reusable after a failed attempt.
	req.Lines = []Line{{ProductID: 20, Quantity: 1}}
	_, err = svc.Create(context.Background(), req)
	assert.NoError(t, err)
}

func TestUpdateStatus(t *testing.T) {
	repo := seedRepo()
	svc := NewService(ServiceParams{Repo: repo})

	order, err := svc.Create(context.Background(), CreateRequest{
		CustomerID: 1,
		Lines:      []Line{{ProductID: 10, Quantity: 2}},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(context.Background(), order.ID, 7, StatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, updated.Status)

	_, err = svc.UpdateStatus(context.Background(), order.ID, 7, Status("lost"))
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.UpdateStatus(context.Background(), order.ID, 7, StatusCompleted)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), order.ID, 7, StatusPending)
	assert.ErrorIs(t, err, shared.ErrValidation, "completed orders are immutable")
}

func TestCancelRestoresStock(t *testing.T) {
	repo := seedRepo()
	svc := NewService(ServiceParams{Repo: repo})

	order, err := svc.Create(context.Background(), CreateRequest{
		CustomerID: 1,
		Lines:      []Line{{ProductID: 10, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, 3, repo.state.products[10].StockQuantity)

	cancelled, err := svc.UpdateStatus(context.Background(), order.ID, 7, StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, 5, repo.state.products[10].StockQuantity)
}

func TestDeleteOrderRestoresStock(t *testing.T) {
	repo := seedRepo()
	svc := NewService(ServiceParams{Repo: repo})

	order, err := svc.Create(context.Background(), CreateRequest{
		CustomerID: 1,
		Lines:      []Line{{ProductID: 10, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, 3, repo.state.products[10].StockQuantity)

	require.NoError(t, svc.Delete(context.Background(), order.ID, 7))
	assert.Equal(t, 5, repo.state.products[10].StockQuantity)

	_, err = svc.Get(context.Background(), order.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteCancelledOrderDoesNotDoubleRestore(t *testing.T) {
	repo := seedRepo()
	svc := NewService(ServiceParams{Repo: repo})

	order, err := svc.Create(context.Background(), CreateRequest{
		CustomerID: 1,
		Lines:      []Line{{ProductID: 10, Quantity: 2}},
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), order.ID, 7, StatusCancelled)
	require.NoError(t, err)
	require.Equal(t, 5, repo.state.products[10].StockQuantity)

	require.NoError(t, svc.Delete(context.Background(), order.ID, 7))
	assert.Equal(t, 5, repo.state.products[10].StockQuantity)
}
