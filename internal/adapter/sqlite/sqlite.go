package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/olyamironova/customer-trade-service/internal/domain"
	"github.com/olyamironova/customer-trade-service/internal/port"
)

var _ port.Store = (*Repo)(nil)

var schema = []string{
	`PRAGMA foreign_keys = ON`,
	`CREATE TABLE IF NOT EXISTS customers (
  id      INTEGER PRIMARY KEY,
  name    TEXT    NOT NULL,
  balance INTEGER NOT NULL CHECK (balance >= 0)
)`,
	`CREATE TABLE IF NOT EXISTS holdings (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  customer_id INTEGER NOT NULL REFERENCES customers(id),
  ticker      TEXT    NOT NULL,
  quantity    INTEGER NOT NULL CHECK (quantity >= 0),
  UNIQUE (customer_id, ticker)
)`,
}

// Repo stores customers and holdings in a SQLite database. A single
// connection is used, so transactions run one at a time.
type Repo struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it.
// ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*Repo, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, "sqlite: mkdir db dir")
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: open")
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	r := &Repo{db: db}
	if err := r.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "sqlite: migrate")
		}
	}
	return nil
}

func (r *Repo) Close(ctx context.Context) {
	_ = r.db.Close()
}

func (r *Repo) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO customers(id, name, balance) VALUES(?,?,?) ON CONFLICT(id) DO NOTHING`,
		c.ID, c.Name, c.Balance)
	return errors.Wrap(err, "sqlite: create customer")
}

func (r *Repo) BeginTx(ctx context.Context, opts port.TxOptions) (port.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: begin")
	}
	return &sqliteTx{tx: tx, readOnly: opts.ReadOnly}, nil
}

type sqliteTx struct {
	tx       *sql.Tx
	readOnly bool
}

func (t *sqliteTx) LoadCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	var c domain.Customer
	err := t.tx.QueryRowContext(ctx, `SELECT id, name, balance FROM customers WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Balance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: load customer")
	}
	return &c, nil
}

func (t *sqliteTx) LoadHolding(ctx context.Context, customerID int64, ticker domain.Ticker) (*domain.Holding, error) {
	h := domain.Holding{CustomerID: customerID, Ticker: ticker}
	err := t.tx.QueryRowContext(ctx,
		`SELECT quantity FROM holdings WHERE customer_id = ? AND ticker = ?`,
		customerID, string(ticker)).Scan(&h.Quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: load holding")
	}
	return &h, nil
}

func (t *sqliteTx) LoadHoldings(ctx context.Context, customerID int64) ([]*domain.Holding, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT ticker, quantity FROM holdings WHERE customer_id = ? ORDER BY id ASC`, customerID)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: load holdings")
	}
	defer rows.Close()

	var res []*domain.Holding
	for rows.Next() {
		h := domain.Holding{CustomerID: customerID}
		var tkr string
		if err := rows.Scan(&tkr, &h.Quantity); err != nil {
			return nil, errors.Wrap(err, "sqlite: scan holding")
		}
		h.Ticker = domain.Ticker(tkr)
		res = append(res, &h)
	}
	return res, errors.Wrap(rows.Err(), "sqlite: load holdings")
}

func (t *sqliteTx) SaveCustomer(ctx context.Context, c *domain.Customer) error {
	if t.readOnly {
		return errors.New("sqlite: save customer in read-only transaction")
	}
	res, err := t.tx.ExecContext(ctx, `UPDATE customers SET balance = ? WHERE id = ?`, c.Balance, c.ID)
	if err != nil {
		return errors.Wrap(err, "sqlite: save customer")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "sqlite: save customer")
	}
	if n == 0 {
		return port.ErrNotFound
	}
	return nil
}

func (t *sqliteTx) SaveHolding(ctx context.Context, h *domain.Holding) error {
	if t.readOnly {
		return errors.New("sqlite: save holding in read-only transaction")
	}
	_, err := t.tx.ExecContext(ctx, `
INSERT INTO holdings(customer_id, ticker, quantity) VALUES(?,?,?)
ON CONFLICT(customer_id, ticker) DO UPDATE SET quantity = excluded.quantity
`, h.CustomerID, string(h.Ticker), h.Quantity)
	return errors.Wrap(err, "sqlite: save holding")
}

func (t *sqliteTx) Commit(ctx context.Context) error {
	return errors.Wrap(t.tx.Commit(), "sqlite: commit")
}

func (t *sqliteTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return errors.Wrap(err, "sqlite: rollback")
}
