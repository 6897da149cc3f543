package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedSummary struct {
	Balance string `json:"balance"`
	Count   int    `json:"count"`
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestCacheRoundTrip(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	key := DashboardCacheKey(7)

	var got cachedSummary
	hit, err := GetCache(ctx, rdb, key, &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, SetCache(ctx, rdb, key, cachedSummary{Balance: "12.50", Count: 3}, time.Minute))
	hit, err = GetCache(ctx, rdb, key, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, cachedSummary{Balance: "12.50", Count: 3}, got)

	mr.FastForward(2 * time.Minute)
	hit, err = GetCache(ctx, rdb, key, &got)
	require.NoError(t, err)
	assert.False(t, hit, "entry should expire after its ttl")
}

func TestDeleteCache(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()

	require.NoError(t, SetCache(ctx, rdb, "a", 1, time.Minute))
	require.NoError(t, SetCache(ctx, rdb, "b", 2, time.Minute))
	require.NoError(t, DeleteCache(ctx, rdb, "a", "b"))

	assert.False(t, mr.Exists("a"))
	assert.False(t, mr.Exists("b"))
}

func TestNilClientDisablesCache(t *testing.T) {
	ctx := context.Background()
	var got cachedSummary

	require.NoError(t, SetCache(ctx, nil, "k", cachedSummary{}, time.Minute))
	hit, err := GetCache(ctx, nil, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, DeleteCache(ctx, nil, "k"))
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "dashboard:user:42", DashboardCacheKey(42))
	assert.Equal(t, "stock:AAPL:price", QuoteCacheKey("AAPL"))
}
