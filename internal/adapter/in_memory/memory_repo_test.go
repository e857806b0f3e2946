package in_memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olyamironova/customer-trade-service/internal/adapter/storetest"
	"github.com/olyamironova/customer-trade-service/internal/domain"
	"github.com/olyamironova/customer-trade-service/internal/port"
)

func TestMemoryRepoConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) port.Store { return NewMemoryRepo() },
		storetest.Options{OptimisticConflicts: true})
}

func TestMemoryRepoCommitAfterCancel(t *testing.T) {
	r := NewMemoryRepo()
	require.NoError(t, r.CreateCustomer(context.Background(), &domain.Customer{ID: 1, Name: "Sam", Balance: 10}))

	ctx, cancel := context.WithCancel(context.Background())
	tx, err := r.BeginTx(ctx, port.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, tx.SaveCustomer(ctx, &domain.Customer{ID: 1, Name: "Sam", Balance: 0}))
	cancel()
	assert.ErrorIs(t, tx.Commit(ctx), context.Canceled)

	rtx, err := r.BeginTx(context.Background(), port.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	c, err := rtx.LoadCustomer(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), c.Balance)
}

func TestMemoryRepoReadOnlyRejectsWrites(t *testing.T) {
	r := NewMemoryRepo()
	tx, err := r.BeginTx(context.Background(), port.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	assert.Error(t, tx.SaveCustomer(context.Background(), &domain.Customer{ID: 1}))
	assert.Error(t, tx.SaveHolding(context.Background(), domain.NewHolding(1, domain.Apple)))
}

func TestMemoryRepoNewHoldingConflict(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	require.NoError(t, r.CreateCustomer(ctx, &domain.Customer{ID: 1, Name: "Sam", Balance: 10}))

	tx1, _ := r.BeginTx(ctx, port.TxOptions{})
	tx2, _ := r.BeginTx(ctx, port.TxOptions{})
	_, err := tx1.LoadHolding(ctx, 1, domain.Apple)
	require.ErrorIs(t, err, port.ErrNotFound)
	_, err = tx2.LoadHolding(ctx, 1, domain.Apple)
	require.ErrorIs(t, err, port.ErrNotFound)

	require.NoError(t, tx1.SaveHolding(ctx, &domain.Holding{CustomerID: 1, Ticker: domain.Apple, Quantity: 1}))
	require.NoError(t, tx2.SaveHolding(ctx, &domain.Holding{CustomerID: 1, Ticker: domain.Apple, Quantity: 2}))
	require.NoError(t, tx1.Commit(ctx))
	assert.ErrorIs(t, tx2.Commit(ctx), port.ErrConflict)
}

func TestCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewCache(100, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	info, version, err := c.GetCustomerInformation(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, info)

	want := &domain.CustomerInformation{ID: 1, Name: "Sam", Balance: 10000, Holdings: []domain.HoldingView{{Ticker: domain.Google, Quantity: 2}}}
	require.NoError(t, c.SetCustomerInformation(ctx, want, version))

	got, _, err := c.GetCustomerInformation(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, got)

	got.Holdings[0].Quantity = 99
	again, _, err := c.GetCustomerInformation(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), again.Holdings[0].Quantity)

	require.NoError(t, c.Invalidate(ctx, 1))
	info, _, err = c.GetCustomerInformation(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestCacheDropsFillAfterInvalidate(t *testing.T) {
	ctx := context.Background()
	c, err := NewCache(100, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	_, version, err := c.GetCustomerInformation(ctx, 2)
	require.NoError(t, err)

	// another writer commits and invalidates before the fill lands
	require.NoError(t, c.Invalidate(ctx, 2))

	stale := &domain.CustomerInformation{ID: 2, Name: "Mike", Balance: 10000, Holdings: []domain.HoldingView{}}
	require.NoError(t, c.SetCustomerInformation(ctx, stale, version))
	info, current, err := c.GetCustomerInformation(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, info)
	assert.NotEqual(t, version, current)

	fresh := &domain.CustomerInformation{ID: 2, Name: "Mike", Balance: 9500, Holdings: []domain.HoldingView{{Ticker: domain.Google, Quantity: 5}}}
	require.NoError(t, c.SetCustomerInformation(ctx, fresh, current))
	info, _, err = c.GetCustomerInformation(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, fresh, info)
}
