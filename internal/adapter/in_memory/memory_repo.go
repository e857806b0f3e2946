package in_memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/btree"

	"github.com/olyamironova/customer-trade-service/internal/domain"
	"github.com/olyamironova/customer-trade-service/internal/port"
)

var errTxDone = errors.New("transaction already finished")

type customerRow struct {
	c       domain.Customer
	version uint64
}

type holdingRow struct {
	h       domain.Holding
	seq     uint64
	version uint64
}

type holdingKey struct {
	customerID int64
	ticker     domain.Ticker
}

func holdingLess(a, b *holdingRow) bool {
	if a.h.CustomerID != b.h.CustomerID {
		return a.h.CustomerID < b.h.CustomerID
	}
	return a.seq < b.seq
}

// MemoryRepo keeps customers and holdings in process memory. Transactions
// buffer their writes and validate, on commit, that nothing they read has
// been changed by another commit since.
type MemoryRepo struct {
	mu         sync.RWMutex
	customers  map[int64]*customerRow
	holdings   map[holdingKey]*holdingRow
	byCustomer *btree.BTreeG[*holdingRow]
	seq        uint64
}

var _ port.Store = (*MemoryRepo)(nil)

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		customers:  make(map[int64]*customerRow),
		holdings:   make(map[holdingKey]*holdingRow),
		byCustomer: btree.NewG[*holdingRow](16, holdingLess),
	}
}

func (r *MemoryRepo) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.customers[c.ID]; ok {
		return nil
	}
	r.customers[c.ID] = &customerRow{c: *c, version: 1}
	return nil
}

func (r *MemoryRepo) BeginTx(ctx context.Context, opts port.TxOptions) (port.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memTx{
		repo:       r,
		readOnly:   opts.ReadOnly,
		custReads:  make(map[int64]uint64),
		holdReads:  make(map[holdingKey]uint64),
		custWrites: make(map[int64]domain.Customer),
		holdWrites: make(map[holdingKey]domain.Holding),
	}, nil
}

func (r *MemoryRepo) Close(ctx context.Context) {}

func (r *MemoryRepo) customerVersion(id int64) uint64 {
	if row, ok := r.customers[id]; ok {
		return row.version
	}
	return 0
}

func (r *MemoryRepo) holdingVersion(k holdingKey) uint64 {
	if row, ok := r.holdings[k]; ok {
		return row.version
	}
	return 0
}

type memTx struct {
	repo     *MemoryRepo
	readOnly bool
	done     bool

	// versions observed, 0 meaning the record did not exist
	custReads map[int64]uint64
	holdReads map[holdingKey]uint64

	custWrites map[int64]domain.Customer
	holdWrites map[holdingKey]domain.Holding
	newOrder   []holdingKey
}

func (t *memTx) LoadCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	if t.done {
		return nil, errTxDone
	}
	if c, ok := t.custWrites[id]; ok {
		return &c, nil
	}
	t.repo.mu.RLock()
	defer t.repo.mu.RUnlock()
	row, ok := t.repo.customers[id]
	if !ok {
		t.custReads[id] = 0
		return nil, port.ErrNotFound
	}
	t.custReads[id] = row.version
	c := row.c
	return &c, nil
}

func (t *memTx) LoadHolding(ctx context.Context, customerID int64, ticker domain.Ticker) (*domain.Holding, error) {
	if t.done {
		return nil, errTxDone
	}
	k := holdingKey{customerID, ticker}
	if h, ok := t.holdWrites[k]; ok {
		return &h, nil
	}
	t.repo.mu.RLock()
	defer t.repo.mu.RUnlock()
	row, ok := t.repo.holdings[k]
	if !ok {
		t.holdReads[k] = 0
		return nil, port.ErrNotFound
	}
	t.holdReads[k] = row.version
	h := row.h
	return &h, nil
}

func (t *memTx) LoadHoldings(ctx context.Context, customerID int64) ([]*domain.Holding, error) {
	if t.done {
		return nil, errTxDone
	}
	t.repo.mu.RLock()
	var res []*domain.Holding
	seen := make(map[holdingKey]bool)
	pivot := &holdingRow{h: domain.Holding{CustomerID: customerID}}
	t.repo.byCustomer.AscendGreaterOrEqual(pivot, func(row *holdingRow) bool {
		if row.h.CustomerID != customerID {
			return false
		}
		k := holdingKey{customerID, row.h.Ticker}
		seen[k] = true
		t.holdReads[k] = row.version
		h := row.h
		if staged, ok := t.holdWrites[k]; ok {
			h = staged
		}
		res = append(res, &h)
		return true
	})
	t.repo.mu.RUnlock()

	for _, k := range t.newOrder {
		if k.customerID != customerID || seen[k] {
			continue
		}
		h := t.holdWrites[k]
		res = append(res, &h)
	}
	return res, nil
}

func (t *memTx) SaveCustomer(ctx context.Context, c *domain.Customer) error {
	if t.done {
		return errTxDone
	}
	if t.readOnly {
		return errors.New("save customer in read-only transaction")
	}
	t.custWrites[c.ID] = *c
	return nil
}

func (t *memTx) SaveHolding(ctx context.Context, h *domain.Holding) error {
	if t.done {
		return errTxDone
	}
	if t.readOnly {
		return errors.New("save holding in read-only transaction")
	}
	k := holdingKey{h.CustomerID, h.Ticker}
	if _, ok := t.holdWrites[k]; !ok {
		t.newOrder = append(t.newOrder, k)
	}
	t.holdWrites[k] = *h
	return nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return errTxDone
	}
	t.done = true
	if err := ctx.Err(); err != nil {
		return err
	}
	r := t.repo
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, v := range t.custReads {
		if r.customerVersion(id) != v {
			return port.ErrConflict
		}
	}
	for k, v := range t.holdReads {
		if r.holdingVersion(k) != v {
			return port.ErrConflict
		}
	}
	for id := range t.custWrites {
		if _, ok := r.customers[id]; !ok {
			return port.ErrNotFound
		}
	}

	for id, c := range t.custWrites {
		row := r.customers[id]
		row.c.Balance = c.Balance
		row.version++
	}
	for _, k := range t.newOrder {
		h := t.holdWrites[k]
		if row, ok := r.holdings[k]; ok {
			row.h.Quantity = h.Quantity
			row.version++
			continue
		}
		r.seq++
		row := &holdingRow{h: h, seq: r.seq, version: 1}
		r.holdings[k] = row
		r.byCustomer.ReplaceOrInsert(row)
	}
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.done = true
	return nil
}
