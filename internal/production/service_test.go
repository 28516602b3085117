package production

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	plan        map[string]map[string]int
	completions map[string]CompletionRecord
	orderItems  map[string]map[string]int
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		plan:        make(map[string]map[string]int),
		completions: make(map[string]CompletionRecord),
		orderItems:  make(map[string]map[string]int),
	}
}

func completionKey(date, product string) string {
	return date + "|" + product
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) GetDay(ctx context.Context, date string) ([]DayItem, error) {
	return r.buildDay(r.plan[date], date), nil
}

func (r *memoryRepo) GetDayFromOrders(ctx context.Context, date string) ([]DayItem, error) {
	return r.buildDay(r.orderItems[date], date), nil
}

func (r *memoryRepo) buildDay(totals map[string]int, date string) []DayItem {
	items := []DayItem{}
	for product, qty := range totals {
		completed := 0
		if rec, ok := r.completions[completionKey(date, product)]; ok {
			completed = rec.CompletedQuantity
		}
		pending := qty - completed
		if pending < 0 {
			pending = 0
		}
		items = append(items, DayItem{
			ProductName:       product,
			TotalQuantity:     qty,
			PendingQuantity:   pending,
			CompletedQuantity: completed,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductName < items[j].ProductName })
	return items
}

func (tx *memoryTx) DeletePlan(ctx context.Context, date string) error {
	delete(tx.repo.plan, date)
	return nil
}

func (tx *memoryTx) DeleteCompletions(ctx context.Context, date string) error {
	for key := range tx.repo.completions {
		if len(key) >= len(date) && key[:len(date)] == date {
			delete(tx.repo.completions, key)
		}
	}
	return nil
}

func (tx *memoryTx) InsertPlanEntry(ctx context.Context, entry PlanEntry) error {
	day, ok := tx.repo.plan[entry.ProductionDate]
	if !ok {
		day = make(map[string]int)
		tx.repo.plan[entry.ProductionDate] = day
	}
	day[entry.ProductName] = entry.Quantity
	return nil
}

func (tx *memoryTx) GetPlanQuantity(ctx context.Context, date, product string) (int, error) {
	return tx.repo.plan[date][product], nil
}

func (tx *memoryTx) SumOrderItems(ctx context.Context, date, product string) (int, error) {
	return tx.repo.orderItems[date][product], nil
}

func (tx *memoryTx) GetCompletion(ctx context.Context, date, product string) (CompletionRecord, error) {
	if rec, ok := tx.repo.completions[completionKey(date, product)]; ok {
		return rec, nil
	}
	return CompletionRecord{}, ErrCompletionNotFound
}

func (tx *memoryTx) UpsertCompletion(ctx context.Context, record CompletionRecord) error {
	tx.repo.completions[completionKey(record.ProductionDate, record.ProductName)] = record
	return nil
}

type fakeStock struct {
	stock map[string]int
	calls int
}

func newFakeStock(initial map[string]int) *fakeStock {
	if initial == nil {
		initial = map[string]int{}
	}
	return &fakeStock{stock: initial}
}

func (f *fakeStock) ApplyProductionDelta(ctx context.Context, productName string, delta int) error {
	f.calls++
	next := f.stock[productName] + delta
	if next < 0 {
		next = 0
	}
	f.stock[productName] = next
	return nil
}

func newTestService(repo *memoryRepo, stock *fakeStock) *Service {
	return NewService(repo, stock, nil, nil, nil)
}

func TestScheduleReplacesDay(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, newFakeStock(nil))
	ctx := context.Background()

	planned, err := svc.Schedule(ctx, "2025-06-01", map[string]int{"LatteMix": 50, "ChaiMix": 20})
	require.NoError(t, err)
	require.Equal(t, 2, planned)

	items, err := svc.GetDay(ctx, "2025-06-01")
	require.NoError(t, err)
	require.Equal(t, []DayItem{
		{ProductName: "ChaiMix", TotalQuantity: 20, PendingQuantity: 20},
		{ProductName: "LatteMix", TotalQuantity: 50, PendingQuantity: 50},
	}, items)

	planned, err = svc.Schedule(ctx, "2025-06-01", map[string]int{"LatteMix": 30})
	require.NoError(t, err)
	require.Equal(t, 1, planned)

	items, err = svc.GetDay(ctx, "2025-06-01")
	require.NoError(t, err)
	require.Equal(t, []DayItem{{ProductName: "LatteMix", TotalQuantity: 30, PendingQuantity: 30}}, items)
}

func TestScheduleDropsNonPositiveQuantities(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, newFakeStock(nil))

	planned, err := svc.Schedule(context.Background(), "2025-06-01", map[string]int{"LatteMix": 10, "ChaiMix": 0, "Mocha": -3})
	require.NoError(t, err)
	require.Equal(t, 1, planned)
	require.Len(t, repo.plan["2025-06-01"], 1)
}

func TestScheduleValidation(t *testing.T) {
	svc := newTestService(newMemoryRepo(), newFakeStock(nil))
	ctx := context.Background()

	_, err := svc.Schedule(ctx, "", map[string]int{"LatteMix": 10})
	require.ErrorIs(t, err, ErrInvalidDate)

	_, err = svc.Schedule(ctx, "June 1st", map[string]int{"LatteMix": 10})
	require.ErrorIs(t, err, ErrInvalidDate)

	_, err = svc.Schedule(ctx, "2025-06-01", map[string]int{})
	require.ErrorIs(t, err, ErrEmptyPlan)
}

func TestCompletionCreditsStockOnce(t *testing.T) {
	repo := newMemoryRepo()
	stock := newFakeStock(map[string]int{"LatteMix": 100})
	svc := newTestService(repo, stock)
	ctx := context.Background()

	_, err := svc.Schedule(ctx, "2025-06-01", map[string]int{"LatteMix": 50})
	require.NoError(t, err)

	result, err := svc.SetStatus(ctx, "2025-06-01", "LatteMix", StatusCompleted)
	require.NoError(t, err)
	require.Equal(t, 50, result.PlannedQuantity)
	require.Equal(t, 50, result.CompletedQuantity)
	require.Equal(t, 0, result.PendingQuantity)
	require.Equal(t, 150, stock.stock["LatteMix"])

	// Second completed call must not double-credit.
	result, err = svc.SetStatus(ctx, "2025-06-01", "LatteMix", StatusCompleted)
	require.NoError(t, err)
	require.Equal(t, 150, stock.stock["LatteMix"])
	require.Equal(t, 1, stock.calls)
	require.Equal(t, 0, result.PendingQuantity)
}

func TestCompletionRoundTripIsNeutral(t *testing.T) {
	repo := newMemoryRepo()
	stock := newFakeStock(map[string]int{"LatteMix": 100})
	svc := newTestService(repo, stock)
	ctx := context.Background()

	_, err := svc.Schedule(ctx, "2025-06-01", map[string]int{"LatteMix": 50})
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, "2025-06-01", "LatteMix", StatusCompleted)
	require.NoError(t, err)
	require.Equal(t, 150, stock.stock["LatteMix"])

	result, err := svc.SetStatus(ctx, "2025-06-01", "LatteMix", StatusPending)
	require.NoError(t, err)
	require.Equal(t, 100, stock.stock["LatteMix"])
	require.Equal(t, 0, result.CompletedQuantity)
	require.Equal(t, 50, result.PendingQuantity)

	// Reverting an already-pending product moves nothing.
	_, err = svc.SetStatus(ctx, "2025-06-01", "LatteMix", StatusPending)
	require.NoError(t, err)
	require.Equal(t, 100, stock.stock["LatteMix"])
	require.Equal(t, 2, stock.calls)
}

func TestRescheduleInvalidatesCompletion(t *testing.T) {
	repo := newMemoryRepo()
	stock := newFakeStock(nil)
	svc := newTestService(repo, stock)
	ctx := context.Background()

	_, err := svc.Schedule(ctx, "2025-06-01", map[string]int{"LatteMix": 50})
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, "2025-06-01", "LatteMix", StatusCompleted)
	require.NoError(t, err)

	_, err = svc.Schedule(ctx, "2025-06-01", map[string]int{"LatteMix": 80})
	require.NoError(t, err)

	items, err := svc.GetDay(ctx, "2025-06-01")
	require.NoError(t, err)
	require.Equal(t, []DayItem{{ProductName: "LatteMix", TotalQuantity: 80, PendingQuantity: 80, CompletedQuantity: 0}}, items)
}

func TestSetStatusFallsBackToOrders(t *testing.T) {
	repo := newMemoryRepo()
	repo.orderItems["2025-06-02"] = map[string]int{"Mocha": 12}
	stock := newFakeStock(map[string]int{"Mocha": 0})
	svc := newTestService(repo, stock)

	result, err := svc.SetStatus(context.Background(), "2025-06-02", "Mocha", StatusCompleted)
	require.NoError(t, err)
	require.Equal(t, 12, result.PlannedQuantity)
	require.Equal(t, 12, stock.stock["Mocha"])
}

func TestSetStatusNotFound(t *testing.T) {
	svc := newTestService(newMemoryRepo(), newFakeStock(nil))

	_, err := svc.SetStatus(context.Background(), "2025-06-01", "Ghost", StatusCompleted)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetStatusValidation(t *testing.T) {
	svc := newTestService(newMemoryRepo(), newFakeStock(nil))
	ctx := context.Background()

	_, err := svc.SetStatus(ctx, "not-a-date", "LatteMix", StatusCompleted)
	require.ErrorIs(t, err, ErrInvalidDate)

	_, err = svc.SetStatus(ctx, "2025-06-01", "LatteMix", CompletionStatus("done"))
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestGetDayClampsPending(t *testing.T) {
	repo := newMemoryRepo()
	repo.plan["2025-06-01"] = map[string]int{"LatteMix": 5}
	// Stale completion above the plan, e.g. restored from a backup.
	repo.completions[completionKey("2025-06-01", "LatteMix")] = CompletionRecord{
		ProductionDate:    "2025-06-01",
		ProductName:       "LatteMix",
		CompletedQuantity: 10,
		Status:            StatusCompleted,
	}
	svc := newTestService(repo, newFakeStock(nil))

	items, err := svc.GetDay(context.Background(), "2025-06-01")
	require.NoError(t, err)
	require.Equal(t, 0, items[0].PendingQuantity)
}

func TestUnschedule(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, newFakeStock(nil))
	ctx := context.Background()

	_, err := svc.Schedule(ctx, "2025-06-01", map[string]int{"LatteMix": 50})
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, "2025-06-01", "LatteMix", StatusCompleted)
	require.NoError(t, err)

	require.NoError(t, svc.Unschedule(ctx, "2025-06-01"))
	require.Empty(t, repo.plan)
	require.Empty(t, repo.completions)
}

func TestKitchenScenario(t *testing.T) {
	// Plan a day, complete LatteMix, revert it; the day view and stock
	// must follow step by step.
	repo := newMemoryRepo()
	stock := newFakeStock(map[string]int{"LatteMix": 0, "ChaiMix": 0})
	svc := newTestService(repo, stock)
	ctx := context.Background()

	_, err := svc.Schedule(ctx, "2025-06-01", map[string]int{"LatteMix": 50, "ChaiMix": 20})
	require.NoError(t, err)

	items, err := svc.GetDay(ctx, "2025-06-01")
	require.NoError(t, err)
	require.Equal(t, []DayItem{
		{ProductName: "ChaiMix", TotalQuantity: 20, PendingQuantity: 20},
		{ProductName: "LatteMix", TotalQuantity: 50, PendingQuantity: 50},
	}, items)

	_, err = svc.SetStatus(ctx, "2025-06-01", "LatteMix", StatusCompleted)
	require.NoError(t, err)
	require.Equal(t, 50, stock.stock["LatteMix"])

	items, err = svc.GetDay(ctx, "2025-06-01")
	require.NoError(t, err)
	require.Equal(t, DayItem{ProductName: "LatteMix", TotalQuantity: 50, PendingQuantity: 0, CompletedQuantity: 50}, items[1])

	_, err = svc.SetStatus(ctx, "2025-06-01", "LatteMix", StatusPending)
	require.NoError(t, err)
	require.Equal(t, 0, stock.stock["LatteMix"])

	items, err = svc.GetDay(ctx, "2025-06-01")
	require.NoError(t, err)
	require.Equal(t, DayItem{ProductName: "LatteMix", TotalQuantity: 50, PendingQuantity: 50, CompletedQuantity: 0}, items[1])
}
