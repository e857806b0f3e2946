package core

import (
	"context"
	"errors"
	"time"

	"github.com/olyamironova/customer-trade-service/internal/port"
)

func withTx(ctx context.Context, repo port.Repository, opts port.TxOptions, fn func(port.Tx) error) error {
	tx, err := repo.BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if opts.ReadOnly {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}

const retryBackoff = 5 * time.Millisecond

// retryOnConflict runs fn until it succeeds, fails with anything other than
// port.ErrConflict, or has been tried maxRetries+1 times.
func retryOnConflict(ctx context.Context, maxRetries int, fn func() error) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err = fn(); !errors.Is(err, port.ErrConflict) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * retryBackoff):
		}
	}
	return err
}
