package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerLocksSerializeSameCustomer(t *testing.T) {
	l := newCustomerLocks()
	unlock, err := l.lock(context.Background(), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.lock(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// other customers are not blocked
	unlock2, err := l.lock(context.Background(), 2)
	require.NoError(t, err)
	unlock2()

	unlock()
	unlock, err = l.lock(context.Background(), 1)
	require.NoError(t, err)
	unlock()
	assert.Zero(t, l.size())
}

func TestCustomerLocksHandOver(t *testing.T) {
	l := newCustomerLocks()
	unlock, err := l.lock(context.Background(), 7)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		u, err := l.lock(context.Background(), 7)
		if err == nil {
			u()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first held")
	case <-time.After(20 * time.Millisecond):
	}
	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired")
	}
}
