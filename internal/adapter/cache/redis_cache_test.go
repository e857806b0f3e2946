package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olyamironova/customer-trade-service/internal/domain"
)

// Set REDIS_TEST_ADDR to run against a disposable redis; DB 15 is flushed.
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	require.NoError(t, client.FlushDB(ctx).Err())
	c := NewRedisCacheFromClient(client, time.Minute)
	defer c.Close()
	require.NoError(t, c.Ping(ctx))

	info, version, err := c.GetCustomerInformation(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, info)

	want := &domain.CustomerInformation{ID: 2, Name: "Mike", Balance: 7150, Holdings: []domain.HoldingView{
		{Ticker: domain.Babatata, Quantity: 0},
		{Ticker: domain.Google, Quantity: 3},
	}}
	require.NoError(t, c.SetCustomerInformation(ctx, want, version))
	got, _, err := c.GetCustomerInformation(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, c.Invalidate(ctx, 2))
	info, _, err = c.GetCustomerInformation(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, info)
}

// Two caches over one redis stand in for two service instances.
func TestRedisCacheDropsFillAfterRemoteInvalidate(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	clientA := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	require.NoError(t, clientA.FlushDB(ctx).Err())
	a := NewRedisCacheFromClient(clientA, time.Minute)
	defer a.Close()
	b := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: addr, DB: 15}), time.Minute)
	defer b.Close()

	// A misses and reads the pre-trade state from the store
	_, version, err := a.GetCustomerInformation(ctx, 2)
	require.NoError(t, err)
	stale := &domain.CustomerInformation{ID: 2, Name: "Mike", Balance: 10000, Holdings: []domain.HoldingView{}}

	// B commits a trade and invalidates
	require.NoError(t, b.Invalidate(ctx, 2))

	require.NoError(t, a.SetCustomerInformation(ctx, stale, version))
	info, current, err := b.GetCustomerInformation(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, info)
	assert.Equal(t, version+1, current)

	fresh := &domain.CustomerInformation{ID: 2, Name: "Mike", Balance: 9500, Holdings: []domain.HoldingView{{Ticker: domain.Google, Quantity: 5}}}
	require.NoError(t, a.SetCustomerInformation(ctx, fresh, current))
	info, _, err = b.GetCustomerInformation(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, fresh, info)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "customer:{42}", key(42))
	assert.Equal(t, "customer:{42}:version", versionKey(42))
}
