package availability

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	rows  []Row
	calls int
}

func (s *stubRepo) Overview(_ context.Context, _ string) ([]Row, error) {
	s.calls++
	return append([]Row{}, s.rows...), nil
}

func testCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestOverviewClampsAvailability(t *testing.T) {
	repo := &stubRepo{rows: []Row{
		{ProductName: "Chai Mix", CurrentStock: 100, CommittedOutstanding: 30},
		{ProductName: "Latte Mix", CurrentStock: 10, CommittedOutstanding: 45},
	}}
	svc := NewService(repo, nil, nil)

	result, err := svc.Overview(context.Background(), "2025-03-15")
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, 70, result.Items[0].AvailableForUse)
	assert.Equal(t, 0, result.Items[1].AvailableForUse, "shortfall floors at zero")
	assert.Equal(t, "2025-03-15", result.AsOf)
}

func TestOverviewDefaultsToToday(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil, nil)
	svc.now = func() time.Time { return time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC) }

	result, err := svc.Overview(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-20", result.AsOf)
}

func TestOverviewRejectsBadDate(t *testing.T) {
	svc := NewService(&stubRepo{}, nil, nil)
	_, err := svc.Overview(context.Background(), "15/03/2025")
	assert.Error(t, err)
}

func TestOverviewUsesCacheUntilBumped(t *testing.T) {
	repo := &stubRepo{rows: []Row{{ProductName: "Chai Mix", CurrentStock: 50}}}
	cache := testCache(t)
	svc := NewService(repo, cache, nil)
	ctx := context.Background()

	_, err := svc.Overview(ctx, "2025-03-15")
	require.NoError(t, err)
	_, err = svc.Overview(ctx, "2025-03-15")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls, "second read served from cache")

	require.NoError(t, cache.Bump(ctx))
	_, err = svc.Overview(ctx, "2025-03-15")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls, "bump invalidates the cached overview")
}

func TestCacheVersionInitialises(t *testing.T) {
	cache := testCache(t)
	ver, err := cache.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), ver)

	require.NoError(t, cache.Bump(context.Background()))
	ver, err = cache.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), ver)
}

func TestNilCachePassesThrough(t *testing.T) {
	repo := &stubRepo{rows: []Row{{ProductName: "Mocha", CurrentStock: 5}}}
	svc := NewService(repo, nil, nil)

	for i := 0; i < 3; i++ {
		_, err := svc.Overview(context.Background(), "2025-03-15")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, repo.calls)
}
