package port

import (
	"context"
	"errors"

	"github.com/olyamironova/customer-trade-service/internal/domain"
)

var (
	// ErrNotFound is returned by Tx loads when the record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned by Commit (or any Tx call) when a concurrent
	// transaction changed data this transaction read. The transaction had
	// no effect and may be retried.
	ErrConflict = errors.New("transaction conflict")
)

type TxOptions struct {
	ReadOnly bool
}

type Repository interface {
	BeginTx(ctx context.Context, opts TxOptions) (Tx, error)
}

// Tx is a unit of work over customers and holdings. Writes become visible to
// other transactions all together on Commit, or not at all.
type Tx interface {
	LoadCustomer(ctx context.Context, id int64) (*domain.Customer, error)
	LoadHolding(ctx context.Context, customerID int64, ticker domain.Ticker) (*domain.Holding, error)
	// LoadHoldings returns the customer's holdings in creation order.
	LoadHoldings(ctx context.Context, customerID int64) ([]*domain.Holding, error)
	SaveCustomer(ctx context.Context, c *domain.Customer) error
	SaveHolding(ctx context.Context, h *domain.Holding) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Provisioner creates customers on behalf of an external provisioning
// process. Creating an existing id leaves the stored customer untouched.
type Provisioner interface {
	CreateCustomer(ctx context.Context, c *domain.Customer) error
}

// Store is what every repository adapter provides.
type Store interface {
	Repository
	Provisioner
	Close(ctx context.Context)
}
