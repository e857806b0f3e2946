package core

import (
	"context"
	"errors"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/olyamironova/customer-trade-service/internal/domain"
	"github.com/olyamironova/customer-trade-service/internal/port"
)

const defaultMaxRetries = 3

// Engine implements business logic (trade execution, customer queries)
type Engine struct {
	repo  port.Repository
	cache port.Cache

	locks      *customerLocks
	stale      *staleSet
	log        logrus.FieldLogger
	maxRetries int
}

type Option func(*Engine)

func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = l }
}

// WithMaxRetries sets how many times a trade is retried after a
// transaction conflict.
func WithMaxRetries(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.maxRetries = n
		}
	}
}

// NewEngine builds an engine over repo. cache may be nil.
func NewEngine(repo port.Repository, cache port.Cache, opts ...Option) *Engine {
	e := &Engine{
		repo:       repo,
		cache:      cache,
		locks:      newCustomerLocks(),
		stale:      newStaleSet(),
		log:        logrus.StandardLogger(),
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Trade validates req, checks the customer's funds or shares and commits the
// new balance and holding together. On any error nothing is changed.
func (e *Engine) Trade(ctx context.Context, customerID int64, req domain.TradeRequest) (*domain.TradeResult, error) {
	if err := req.Validate(customerID); err != nil {
		return nil, err
	}

	unlock, err := e.locks.lock(ctx, customerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *domain.TradeResult
	err = retryOnConflict(ctx, e.maxRetries, func() error {
		return withTx(ctx, e.repo, port.TxOptions{}, func(tx port.Tx) error {
			r, err := e.execute(ctx, tx, customerID, req)
			if err != nil {
				return err
			}
			result = r
			return nil
		})
	})
	if err != nil {
		e.logRejected(customerID, req, err)
		return nil, err
	}

	if e.cache != nil {
		e.invalidate(ctx, customerID)
	}
	return result, nil
}

func (e *Engine) execute(ctx context.Context, tx port.Tx, customerID int64, req domain.TradeRequest) (*domain.TradeResult, error) {
	c, err := tx.LoadCustomer(ctx, customerID)
	if errors.Is(err, port.ErrNotFound) {
		return nil, domain.CustomerNotFound(customerID)
	}
	if err != nil {
		return nil, err
	}

	total, err := req.TotalPrice(customerID)
	if err != nil {
		return nil, err
	}

	var h *domain.Holding
	switch req.Action {
	case domain.Buy:
		if c.Balance < total {
			return nil, domain.InsufficientBalance(customerID)
		}
		h, err = e.loadOrNewHolding(ctx, tx, customerID, req.Ticker)
		if err != nil {
			return nil, err
		}
		if h.Quantity > math.MaxInt64-req.Quantity {
			return nil, domain.InvalidQuantity(customerID, req.Quantity)
		}
		e.log.WithFields(tradeFields(customerID, req)).Info("customer buying")
		c.Balance -= total
		h.Quantity += req.Quantity

	case domain.Sell:
		h, err = tx.LoadHolding(ctx, customerID, req.Ticker)
		if errors.Is(err, port.ErrNotFound) {
			return nil, domain.InsufficientShares(customerID)
		}
		if err != nil {
			return nil, err
		}
		if h.Quantity < req.Quantity {
			return nil, domain.InsufficientShares(customerID)
		}
		if c.Balance > math.MaxInt64-total {
			return nil, domain.InvalidPrice(customerID, "resulting balance exceeds the supported range")
		}
		e.log.WithFields(tradeFields(customerID, req)).Info("customer selling")
		c.Balance += total
		h.Quantity -= req.Quantity

	default:
		return nil, domain.UnknownAction(customerID, string(req.Action))
	}

	if err := tx.SaveCustomer(ctx, c); err != nil {
		return nil, err
	}
	if err := tx.SaveHolding(ctx, h); err != nil {
		return nil, err
	}
	return domain.NewTradeResult(customerID, req, total, c.Balance), nil
}

// loadOrNewHolding returns the stored holding or a fresh zero-quantity one.
func (e *Engine) loadOrNewHolding(ctx context.Context, tx port.Tx, customerID int64, ticker domain.Ticker) (*domain.Holding, error) {
	h, err := tx.LoadHolding(ctx, customerID, ticker)
	if errors.Is(err, port.ErrNotFound) {
		return domain.NewHolding(customerID, ticker), nil
	}
	return h, err
}

func (e *Engine) logRejected(customerID int64, req domain.TradeRequest, err error) {
	entry := e.log.WithFields(tradeFields(customerID, req)).WithError(err)
	var de *domain.Error
	if errors.As(err, &de) {
		entry.WithField("kind", de.Kind).Info("trade rejected")
		return
	}
	entry.Error("trade failed")
}

func tradeFields(customerID int64, req domain.TradeRequest) logrus.Fields {
	return logrus.Fields{
		"customer": customerID,
		"ticker":   req.Ticker,
		"price":    req.Price,
		"quantity": req.Quantity,
		"action":   req.Action,
	}
}
