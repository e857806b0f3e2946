package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olyamironova/customer-trade-service/internal/adapter/storetest"
	"github.com/olyamironova/customer-trade-service/internal/domain"
	"github.com/olyamironova/customer-trade-service/internal/port"
)

func newInMemory(t *testing.T) *Repo {
	t.Helper()
	r, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { r.Close(context.Background()) })
	return r
}

func TestBadgerConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) port.Store { return newInMemory(t) },
		storetest.Options{OptimisticConflicts: true})
}

func TestBadgerOnDisk(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	r, err := Open(Options{Path: dir})
	require.NoError(t, err)
	require.NoError(t, r.CreateCustomer(ctx, &domain.Customer{ID: 9, Name: "Zoe", Balance: 50}))
	r.Close(ctx)

	r, err = Open(Options{Path: dir})
	require.NoError(t, err)
	defer r.Close(ctx)
	tx, err := r.BeginTx(ctx, port.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer tx.Rollback(ctx)
	c, err := tx.LoadCustomer(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, "Zoe", c.Name)
}

func TestBadgerRequiresPath(t *testing.T) {
	_, err := Open(Options{})
	assert.Error(t, err)
}

func TestBadgerSaveCustomerUnknownID(t *testing.T) {
	ctx := context.Background()
	r := newInMemory(t)
	tx, err := r.BeginTx(ctx, port.TxOptions{})
	require.NoError(t, err)
	defer tx.Rollback(ctx)
	assert.ErrorIs(t, tx.SaveCustomer(ctx, &domain.Customer{ID: 404, Balance: 1}), port.ErrNotFound)
}
