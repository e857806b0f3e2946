package pg

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/olyamironova/customer-trade-service/internal/domain"
	"github.com/olyamironova/customer-trade-service/internal/port"
)

var _ port.Store = (*PgRepo)(nil)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS customers (
  id      BIGINT PRIMARY KEY,
  name    TEXT   NOT NULL,
  balance BIGINT NOT NULL CHECK (balance >= 0)
)`,
	`CREATE TABLE IF NOT EXISTS holdings (
  id          BIGSERIAL PRIMARY KEY,
  customer_id BIGINT NOT NULL REFERENCES customers(id),
  ticker      TEXT   NOT NULL,
  quantity    BIGINT NOT NULL CHECK (quantity >= 0),
  UNIQUE (customer_id, ticker)
)`,
}

type PgRepo struct {
	pool *pgxpool.Pool
}

// call Close when finish to work with database.
func NewPgRepo(ctx context.Context, dsn string) (*PgRepo, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "pg: create pool")
	}
	return NewRepository(pool), nil
}

func NewRepository(pool *pgxpool.Pool) *PgRepo {
	return &PgRepo{pool: pool}
}

func (p *PgRepo) Close(ctx context.Context) {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Migrate creates the customers and holdings tables if they are missing.
func (p *PgRepo) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return errors.Wrap(err, "pg: migrate")
		}
	}
	return nil
}

func (p *PgRepo) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	if c == nil {
		return errors.New("nil customer")
	}
	_, err := p.pool.Exec(ctx, `
INSERT INTO customers(id, name, balance)
VALUES($1,$2,$3)
ON CONFLICT (id) DO NOTHING
`, c.ID, c.Name, c.Balance)
	return mapErr(err, "create customer")
}

// BeginTx starts a serializable transaction. Rows read by a read-write
// transaction are locked until it ends.
func (p *PgRepo) BeginTx(ctx context.Context, opts port.TxOptions) (port.Tx, error) {
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable, AccessMode: pgx.ReadWrite}
	if opts.ReadOnly {
		txOpts.AccessMode = pgx.ReadOnly
	}
	tx, err := p.pool.BeginTx(ctx, txOpts)
	if err != nil {
		return nil, mapErr(err, "begin")
	}
	return &pgTx{tx: tx, readOnly: opts.ReadOnly}, nil
}

type pgTx struct {
	tx       pgx.Tx
	readOnly bool
}

func (t *pgTx) forUpdate() string {
	if t.readOnly {
		return ""
	}
	return " FOR UPDATE"
}

func (t *pgTx) LoadCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	var c domain.Customer
	err := t.tx.QueryRow(ctx, `SELECT id, name, balance FROM customers WHERE id = $1`+t.forUpdate(), id).
		Scan(&c.ID, &c.Name, &c.Balance)
	if err != nil {
		return nil, mapErr(err, "load customer")
	}
	return &c, nil
}

func (t *pgTx) LoadHolding(ctx context.Context, customerID int64, ticker domain.Ticker) (*domain.Holding, error) {
	var h domain.Holding
	var tkr string
	err := t.tx.QueryRow(ctx, `
SELECT customer_id, ticker, quantity
FROM holdings
WHERE customer_id = $1 AND ticker = $2`+t.forUpdate(), customerID, string(ticker)).
		Scan(&h.CustomerID, &tkr, &h.Quantity)
	if err != nil {
		return nil, mapErr(err, "load holding")
	}
	h.Ticker = domain.Ticker(tkr)
	return &h, nil
}

// LoadHoldings returns holdings ordered by id, i.e. creation order.
func (t *pgTx) LoadHoldings(ctx context.Context, customerID int64) ([]*domain.Holding, error) {
	rows, err := t.tx.Query(ctx, `
SELECT customer_id, ticker, quantity
FROM holdings
WHERE customer_id = $1
ORDER BY id ASC
`, customerID)
	if err != nil {
		return nil, mapErr(err, "load holdings")
	}
	defer rows.Close()

	var res []*domain.Holding
	for rows.Next() {
		var h domain.Holding
		var tkr string
		if err := rows.Scan(&h.CustomerID, &tkr, &h.Quantity); err != nil {
			return nil, mapErr(err, "scan holding")
		}
		h.Ticker = domain.Ticker(tkr)
		res = append(res, &h)
	}
	return res, mapErr(rows.Err(), "load holdings")
}

func (t *pgTx) SaveCustomer(ctx context.Context, c *domain.Customer) error {
	res, err := t.tx.Exec(ctx, `UPDATE customers SET balance = $2 WHERE id = $1`, c.ID, c.Balance)
	if err != nil {
		return mapErr(err, "save customer")
	}
	if res.RowsAffected() == 0 {
		return port.ErrNotFound
	}
	return nil
}

func (t *pgTx) SaveHolding(ctx context.Context, h *domain.Holding) error {
	_, err := t.tx.Exec(ctx, `
INSERT INTO holdings(customer_id, ticker, quantity)
VALUES($1,$2,$3)
ON CONFLICT (customer_id, ticker) DO UPDATE SET quantity = EXCLUDED.quantity
`, h.CustomerID, string(h.Ticker), h.Quantity)
	return mapErr(err, "save holding")
}

func (t *pgTx) Commit(ctx context.Context) error {
	return mapErr(t.tx.Commit(ctx), "commit")
}

func (t *pgTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return mapErr(err, "rollback")
}

// mapErr translates driver errors into port errors. Serialization failures
// and deadlocks become port.ErrConflict so the caller can retry.
func mapErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return port.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return errors.Wrap(port.ErrConflict, "pg: "+op)
		}
	}
	return errors.Wrap(err, "pg: "+op)
}
