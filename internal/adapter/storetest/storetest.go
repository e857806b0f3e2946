// Package storetest is a conformance suite every repository adapter runs from
// its own tests.
package storetest

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olyamironova/customer-trade-service/internal/core"
	"github.com/olyamironova/customer-trade-service/internal/domain"
	"github.com/olyamironova/customer-trade-service/internal/port"
)

type Options struct {
	// OptimisticConflicts is set by stores that let two write transactions
	// run side by side and reject the later commit.
	OptimisticConflicts bool
}

// Run exercises newStore, which must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) port.Store, opts Options) {
	t.Run("CreateCustomerIsIdempotent", func(t *testing.T) { testCreateCustomer(t, newStore(t)) })
	t.Run("MissingRecords", func(t *testing.T) { testMissingRecords(t, newStore(t)) })
	t.Run("CommitPersistsBothRecords", func(t *testing.T) { testCommit(t, newStore(t)) })
	t.Run("RollbackDiscardsWrites", func(t *testing.T) { testRollback(t, newStore(t)) })
	t.Run("ReadYourWrites", func(t *testing.T) { testReadYourWrites(t, newStore(t)) })
	t.Run("HoldingsInCreationOrder", func(t *testing.T) { testHoldingsOrder(t, newStore(t)) })
	t.Run("EngineScenario", func(t *testing.T) { testEngineScenario(t, newStore(t)) })
	if opts.OptimisticConflicts {
		t.Run("ConcurrentCommitConflicts", func(t *testing.T) { testConflict(t, newStore(t)) })
	}
}

func seed(t *testing.T, s port.Store, customers ...domain.Customer) {
	t.Helper()
	for i := range customers {
		require.NoError(t, s.CreateCustomer(context.Background(), &customers[i]))
	}
}

func begin(t *testing.T, s port.Store, readOnly bool) port.Tx {
	t.Helper()
	tx, err := s.BeginTx(context.Background(), port.TxOptions{ReadOnly: readOnly})
	require.NoError(t, err)
	return tx
}

func loadCustomer(t *testing.T, s port.Store, id int64) *domain.Customer {
	t.Helper()
	ctx := context.Background()
	tx := begin(t, s, true)
	defer tx.Rollback(ctx)
	c, err := tx.LoadCustomer(ctx, id)
	require.NoError(t, err)
	return c
}

func loadHoldings(t *testing.T, s port.Store, id int64) []*domain.Holding {
	t.Helper()
	ctx := context.Background()
	tx := begin(t, s, true)
	defer tx.Rollback(ctx)
	hs, err := tx.LoadHoldings(ctx, id)
	require.NoError(t, err)
	return hs
}

func testCreateCustomer(t *testing.T, s port.Store) {
	seed(t, s, domain.Customer{ID: 1, Name: "Sam", Balance: 10000})
	seed(t, s, domain.Customer{ID: 1, Name: "Someone else", Balance: 5})

	c := loadCustomer(t, s, 1)
	assert.Equal(t, domain.Customer{ID: 1, Name: "Sam", Balance: 10000}, *c)
}

func testMissingRecords(t *testing.T, s port.Store) {
	ctx := context.Background()
	seed(t, s, domain.Customer{ID: 1, Name: "Sam", Balance: 10000})
	tx := begin(t, s, true)
	defer tx.Rollback(ctx)

	_, err := tx.LoadCustomer(ctx, 10)
	assert.ErrorIs(t, err, port.ErrNotFound)

	_, err = tx.LoadHolding(ctx, 1, domain.Google)
	assert.ErrorIs(t, err, port.ErrNotFound)

	hs, err := tx.LoadHoldings(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, hs)
}

func testCommit(t *testing.T, s port.Store) {
	ctx := context.Background()
	seed(t, s, domain.Customer{ID: 2, Name: "Mike", Balance: 10000})

	tx := begin(t, s, false)
	c, err := tx.LoadCustomer(ctx, 2)
	require.NoError(t, err)
	c.Balance = 9500
	require.NoError(t, tx.SaveCustomer(ctx, c))
	require.NoError(t, tx.SaveHolding(ctx, &domain.Holding{CustomerID: 2, Ticker: domain.Babatata, Quantity: 5}))
	require.NoError(t, tx.Commit(ctx))

	assert.Equal(t, int64(9500), loadCustomer(t, s, 2).Balance)
	hs := loadHoldings(t, s, 2)
	require.Len(t, hs, 1)
	assert.Equal(t, domain.Holding{CustomerID: 2, Ticker: domain.Babatata, Quantity: 5}, *hs[0])

	tx = begin(t, s, false)
	h, err := tx.LoadHolding(ctx, 2, domain.Babatata)
	require.NoError(t, err)
	h.Quantity = 0
	require.NoError(t, tx.SaveHolding(ctx, h))
	require.NoError(t, tx.Commit(ctx))

	hs = loadHoldings(t, s, 2)
	require.Len(t, hs, 1)
	assert.Equal(t, int64(0), hs[0].Quantity)
}

func testRollback(t *testing.T, s port.Store) {
	ctx := context.Background()
	seed(t, s, domain.Customer{ID: 3, Name: "John", Balance: 10000})

	tx := begin(t, s, false)
	c, err := tx.LoadCustomer(ctx, 3)
	require.NoError(t, err)
	c.Balance = 1
	require.NoError(t, tx.SaveCustomer(ctx, c))
	require.NoError(t, tx.SaveHolding(ctx, &domain.Holding{CustomerID: 3, Ticker: domain.Apple, Quantity: 9}))
	require.NoError(t, tx.Rollback(ctx))

	assert.Equal(t, int64(10000), loadCustomer(t, s, 3).Balance)
	assert.Empty(t, loadHoldings(t, s, 3))
}

func testReadYourWrites(t *testing.T, s port.Store) {
	ctx := context.Background()
	seed(t, s, domain.Customer{ID: 4, Name: "Ann", Balance: 100})

	tx := begin(t, s, false)
	defer tx.Rollback(ctx)
	require.NoError(t, tx.SaveCustomer(ctx, &domain.Customer{ID: 4, Name: "Ann", Balance: 60}))
	require.NoError(t, tx.SaveHolding(ctx, &domain.Holding{CustomerID: 4, Ticker: domain.Amazon, Quantity: 2}))

	c, err := tx.LoadCustomer(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(60), c.Balance)

	h, err := tx.LoadHolding(ctx, 4, domain.Amazon)
	require.NoError(t, err)
	assert.Equal(t, int64(2), h.Quantity)
}

func testHoldingsOrder(t *testing.T, s port.Store) {
	ctx := context.Background()
	seed(t, s,
		domain.Customer{ID: 5, Name: "Eve", Balance: 100},
		domain.Customer{ID: 6, Name: "Bob", Balance: 100},
	)
	for _, h := range []domain.Holding{
		{CustomerID: 5, Ticker: domain.Microsoft, Quantity: 1},
		{CustomerID: 6, Ticker: domain.Apple, Quantity: 7},
		{CustomerID: 5, Ticker: domain.Amazon, Quantity: 0},
		{CustomerID: 5, Ticker: domain.Google, Quantity: 3},
	} {
		tx := begin(t, s, false)
		require.NoError(t, tx.SaveHolding(ctx, &h))
		require.NoError(t, tx.Commit(ctx))
	}

	var got []domain.Ticker
	for _, h := range loadHoldings(t, s, 5) {
		got = append(got, h.Ticker)
	}
	assert.Equal(t, []domain.Ticker{domain.Microsoft, domain.Amazon, domain.Google}, got)
}

func testConflict(t *testing.T, s port.Store) {
	ctx := context.Background()
	seed(t, s, domain.Customer{ID: 7, Name: "Kim", Balance: 1000})

	tx1 := begin(t, s, false)
	tx2 := begin(t, s, false)
	c1, err := tx1.LoadCustomer(ctx, 7)
	require.NoError(t, err)
	c2, err := tx2.LoadCustomer(ctx, 7)
	require.NoError(t, err)

	c1.Balance -= 100
	c2.Balance -= 300
	require.NoError(t, tx1.SaveCustomer(ctx, c1))
	require.NoError(t, tx2.SaveCustomer(ctx, c2))

	require.NoError(t, tx1.Commit(ctx))
	err = tx2.Commit(ctx)
	assert.ErrorIs(t, err, port.ErrConflict)

	assert.Equal(t, int64(900), loadCustomer(t, s, 7).Balance)
}

// testEngineScenario replays a buy and sell sequence through the engine.
func testEngineScenario(t *testing.T, s port.Store) {
	ctx := context.Background()
	seed(t, s, domain.Customer{ID: 2, Name: "Mike", Balance: 10000})

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	eng := core.NewEngine(s, nil, core.WithLogger(log))

	steps := []struct {
		req     domain.TradeRequest
		balance int64
	}{
		{domain.TradeRequest{Ticker: domain.Babatata, Price: 100, Quantity: 5, Action: domain.Buy}, 9500},
		{domain.TradeRequest{Ticker: domain.Babatata, Price: 100, Quantity: 10, Action: domain.Buy}, 8500},
		{domain.TradeRequest{Ticker: domain.Google, Price: 1000, Quantity: 3, Action: domain.Buy}, 5500},
		{domain.TradeRequest{Ticker: domain.Babatata, Price: 110, Quantity: 5, Action: domain.Sell}, 6050},
		{domain.TradeRequest{Ticker: domain.Babatata, Price: 110, Quantity: 10, Action: domain.Sell}, 7150},
	}
	for _, st := range steps {
		res, err := eng.Trade(ctx, 2, st.req)
		require.NoError(t, err)
		assert.Equal(t, st.balance, res.Balance)
	}

	_, err := eng.Trade(ctx, 2, domain.TradeRequest{Ticker: domain.Babatata, Price: 110, Quantity: 1, Action: domain.Sell})
	assert.ErrorIs(t, err, domain.ErrInsufficientShares)

	info, err := eng.GetCustomerInformation(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(7150), info.Balance)
	assert.Equal(t, []domain.HoldingView{
		{Ticker: domain.Babatata, Quantity: 0},
		{Ticker: domain.Google, Quantity: 3},
	}, info.Holdings)
}
