package orders

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	orders map[int64]*Order
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{orders: map[int64]*Order{}, nextID: 1}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: m})
}

func (m *memoryRepo) Get(_ context.Context, id int64) (*Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *order
	copied.Items = append([]LineItem{}, order.Items...)
	return &copied, nil
}

func (m *memoryRepo) List(_ context.Context, req ListOrdersRequest) ([]Order, int, error) {
	var result []Order
	for _, order := range m.orders {
		if req.Status != nil && order.ShippingStatus != *req.Status {
			continue
		}
		result = append(result, *order)
	}
	return result, len(result), nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (t *memoryTx) GetForUpdate(ctx context.Context, id int64) (*Order, error) {
	return t.repo.Get(ctx, id)
}

func (t *memoryTx) InsertOrder(_ context.Context, order Order) (int64, error) {
	order.ID = t.repo.nextID
	t.repo.nextID++
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	t.repo.orders[order.ID] = &order
	return order.ID, nil
}

func (t *memoryTx) InsertItems(_ context.Context, orderID int64, items []LineItem) error {
	order := t.repo.orders[orderID]
	for i := range items {
		items[i].OrderID = orderID
		items[i].Position = i
	}
	order.Items = append([]LineItem{}, items...)
	return nil
}

func (t *memoryTx) DeleteItems(_ context.Context, orderID int64) error {
	t.repo.orders[orderID].Items = nil
	return nil
}

func (t *memoryTx) UpdateFields(_ context.Context, id int64, order Order) error {
	existing := t.repo.orders[id]
	existing.CustomerName = order.CustomerName
	existing.DeliveryDate = order.DeliveryDate
	existing.ProductionDate = order.ProductionDate
	existing.Notes = order.Notes
	existing.UpdatedAt = time.Now()
	return nil
}

func (t *memoryTx) UpdateShippingStatus(_ context.Context, id int64, status ShippingStatus) error {
	order, ok := t.repo.orders[id]
	if !ok {
		return ErrNotFound
	}
	order.ShippingStatus = status
	return nil
}

func (t *memoryTx) DeleteOrder(_ context.Context, id int64) error {
	if _, ok := t.repo.orders[id]; !ok {
		return ErrNotFound
	}
	delete(t.repo.orders, id)
	return nil
}

func (t *memoryTx) CountOrdersForProductionDate(_ context.Context, date string, excludeID int64) (int, error) {
	count := 0
	for id, order := range t.repo.orders {
		if id == excludeID {
			continue
		}
		if order.ProductionDate != nil && *order.ProductionDate == date {
			count++
		}
	}
	return count, nil
}

type fakeInventory struct {
	shipped   [][]StockItem
	unshipped [][]StockItem
	edits     int
}

func (f *fakeInventory) ShipItems(_ context.Context, items []StockItem) error {
	f.shipped = append(f.shipped, items)
	return nil
}

func (f *fakeInventory) UnshipItems(_ context.Context, items []StockItem) error {
	f.unshipped = append(f.unshipped, items)
	return nil
}

func (f *fakeInventory) ReconcileShippedEdit(_ context.Context, _, _ []StockItem) error {
	f.edits++
	return nil
}

type fakePlanner struct {
	cleared []string
}

func (f *fakePlanner) Unschedule(_ context.Context, date string) error {
	f.cleared = append(f.cleared, date)
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryRepo, *fakeInventory, *fakePlanner) {
	t.Helper()
	repo := newMemoryRepo()
	inv := &fakeInventory{}
	planner := &fakePlanner{}
	return NewService(repo, inv, planner, nil), repo, inv, planner
}

func createOrder(t *testing.T, svc *Service, productionDate *string, items ...LineItemRequest) *Order {
	t.Helper()
	order, err := svc.Create(context.Background(), CreateOrderRequest{
		OrderDate:      time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		ProductionDate: productionDate,
		Items:          items,
	})
	require.NoError(t, err)
	return order
}

func TestCreateRequiresItems(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.Create(context.Background(), CreateOrderRequest{OrderDate: time.Now()})
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestShippingTransitionAppliesDeltaOnce(t *testing.T) {
	svc, _, inv, _ := newTestService(t)
	order := createOrder(t, svc, nil, LineItemRequest{ProductName: "Latte Mix", Quantity: 7})

	result, err := svc.UpdateShippingStatus(context.Background(), order.ID, ShippingStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, ShippingStatusShipped, result.ShippingStatus)
	require.Len(t, inv.shipped, 1)
	assert.Equal(t, []StockItem{{ProductName: "Latte Mix", Quantity: 7}}, inv.shipped[0])

	// Same status again is a strict no-op.
	_, err = svc.UpdateShippingStatus(context.Background(), order.ID, ShippingStatusShipped)
	require.NoError(t, err)
	assert.Len(t, inv.shipped, 1)
	assert.Empty(t, inv.unshipped)
}

func TestShippingRoundTripRestoresStock(t *testing.T) {
	svc, _, inv, _ := newTestService(t)
	order := createOrder(t, svc, nil, LineItemRequest{ProductName: "Chai Mix", Quantity: 4})

	_, err := svc.UpdateShippingStatus(context.Background(), order.ID, ShippingStatusShipped)
	require.NoError(t, err)
	_, err = svc.UpdateShippingStatus(context.Background(), order.ID, ShippingStatusPending)
	require.NoError(t, err)

	require.Len(t, inv.shipped, 1)
	require.Len(t, inv.unshipped, 1)
	assert.Equal(t, inv.shipped[0], inv.unshipped[0])
}

func TestCancelTouchesStockOnlyFromShipped(t *testing.T) {
	svc, repo, inv, _ := newTestService(t)
	order := createOrder(t, svc, nil, LineItemRequest{ProductName: "Mocha", Quantity: 2})

	// pending -> cancelled never crosses the shipped boundary.
	_, err := svc.UpdateShippingStatus(context.Background(), order.ID, ShippingStatusCancelled)
	require.NoError(t, err)
	assert.Empty(t, inv.shipped)
	assert.Empty(t, inv.unshipped)
	assert.Equal(t, ShippingStatusCancelled, repo.orders[order.ID].ShippingStatus)

	// shipped -> cancelled returns the goods.
	second := createOrder(t, svc, nil, LineItemRequest{ProductName: "Mocha", Quantity: 2})
	_, err = svc.UpdateShippingStatus(context.Background(), second.ID, ShippingStatusShipped)
	require.NoError(t, err)
	_, err = svc.UpdateShippingStatus(context.Background(), second.ID, ShippingStatusCancelled)
	require.NoError(t, err)
	require.Len(t, inv.unshipped, 1)
}

func TestUpdateShippingStatusValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.UpdateShippingStatus(context.Background(), 1, ShippingStatus("teleported"))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.UpdateShippingStatus(context.Background(), 99, ShippingStatusShipped)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEditingShippedOrderReconcilesDiff(t *testing.T) {
	svc, _, inv, _ := newTestService(t)
	order := createOrder(t, svc, nil, LineItemRequest{ProductName: "Latte Mix", Quantity: 7})
	_, err := svc.UpdateShippingStatus(context.Background(), order.ID, ShippingStatusShipped)
	require.NoError(t, err)

	items := []LineItemRequest{{ProductName: "Latte Mix", Quantity: 5}}
	updated, err := svc.Update(context.Background(), order.ID, UpdateOrderRequest{Items: &items})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Items[0].Quantity)
	assert.Equal(t, 1, inv.edits)
}

func TestEditingPendingOrderSkipsReconciler(t *testing.T) {
	svc, _, inv, _ := newTestService(t)
	order := createOrder(t, svc, nil, LineItemRequest{ProductName: "Latte Mix", Quantity: 7})

	items := []LineItemRequest{{ProductName: "Latte Mix", Quantity: 3}}
	_, err := svc.Update(context.Background(), order.ID, UpdateOrderRequest{Items: &items})
	require.NoError(t, err)
	assert.Zero(t, inv.edits)
}

func TestDeleteClearsOrphanedProductionDay(t *testing.T) {
	svc, _, _, planner := newTestService(t)
	date := "2025-03-15"
	first := createOrder(t, svc, &date, LineItemRequest{ProductName: "Latte Mix", Quantity: 10})
	second := createOrder(t, svc, &date, LineItemRequest{ProductName: "Chai Mix", Quantity: 5})

	require.NoError(t, svc.Delete(context.Background(), first.ID))
	assert.Empty(t, planner.cleared, "day still has orders")

	require.NoError(t, svc.Delete(context.Background(), second.ID))
	assert.Equal(t, []string{date}, planner.cleared)
}

func TestOrderTotalSkipsGifts(t *testing.T) {
	order := Order{Items: []LineItem{
		{Quantity: 2, UnitPrice: decimal.NewFromInt(120)},
		{Quantity: 1, UnitPrice: decimal.NewFromInt(80), IsGift: true},
	}}
	assert.True(t, order.Total().Equal(decimal.NewFromInt(240)))
}
