package core

import (
	"context"
	"errors"

	"github.com/olyamironova/customer-trade-service/internal/domain"
	"github.com/olyamironova/customer-trade-service/internal/port"
)

// GetCustomerInformation returns the customer's balance and every holding,
// including those at zero, in creation order.
func (e *Engine) GetCustomerInformation(ctx context.Context, customerID int64) (*domain.CustomerInformation, error) {
	var (
		version uint64
		fill    bool
	)
	// try cache first, unless it may still hold a pre-trade entry
	if e.cache != nil && !e.stale.has(customerID) {
		info, v, err := e.cache.GetCustomerInformation(ctx, customerID)
		switch {
		case err != nil:
			e.log.WithError(err).WithField("customer", customerID).Warn("cache read failed")
		case info != nil:
			return info, nil
		default:
			version, fill = v, true
		}
	}

	unlock, err := e.locks.lock(ctx, customerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if e.cache != nil && e.stale.has(customerID) {
		fill = false
		e.invalidate(ctx, customerID)
	}

	var info *domain.CustomerInformation
	err = withTx(ctx, e.repo, port.TxOptions{ReadOnly: true}, func(tx port.Tx) error {
		c, err := tx.LoadCustomer(ctx, customerID)
		if errors.Is(err, port.ErrNotFound) {
			return domain.CustomerNotFound(customerID)
		}
		if err != nil {
			return err
		}
		holdings, err := tx.LoadHoldings(ctx, customerID)
		if err != nil {
			return err
		}
		info = domain.NewCustomerInformation(c, holdings)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The version was read before the load, so a trade committed by any
	// instance in between bumps it and the cache drops this fill.
	if fill {
		if err := e.cache.SetCustomerInformation(ctx, info.Clone(), version); err != nil {
			e.log.WithError(err).WithField("customer", customerID).Warn("cache write failed")
		}
	}
	return info, nil
}

// invalidate drops the customer's cache entry. Until that succeeds the
// customer is read past the cache.
func (e *Engine) invalidate(ctx context.Context, customerID int64) {
	if err := e.cache.Invalidate(ctx, customerID); err != nil {
		e.stale.add(customerID)
		e.log.WithError(err).WithField("customer", customerID).Warn("cache invalidation failed")
		return
	}
	e.stale.remove(customerID)
}
