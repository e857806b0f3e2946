package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/olyamironova/customer-trade-service/internal/domain"
	"github.com/olyamironova/customer-trade-service/internal/port"
)

var _ port.Store = (*Repo)(nil)

// Key layout:
//
//	c/<id>              customer record
//	h/<id>/<ticker>     holding record
//	s/<id>              holding sequence of the customer
func customerKey(id int64) []byte { return []byte(fmt.Sprintf("c/%020d", id)) }

func holdingPrefix(id int64) []byte { return []byte(fmt.Sprintf("h/%020d/", id)) }

func holdingKey(id int64, t domain.Ticker) []byte {
	return append(holdingPrefix(id), t...)
}

func seqKey(id int64) []byte { return []byte(fmt.Sprintf("s/%020d", id)) }

type customerRecord struct {
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}

type holdingRecord struct {
	Quantity int64  `json:"quantity"`
	Seq      uint64 `json:"seq"`
}

// Repo stores customers and holdings in badger. Badger transactions are
// serializable snapshot transactions: a commit whose reads were overwritten
// by another commit fails with port.ErrConflict.
type Repo struct {
	db *badger.DB
}

type Options struct {
	// Path of the database directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
}

func Open(opts Options) (*Repo, error) {
	bopts := badger.DefaultOptions(opts.Path).WithLogger(nil)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	} else if opts.Path == "" {
		return nil, errors.New("badger: path is required")
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, errors.Wrap(err, "badger: open")
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close(ctx context.Context) {
	_ = r.db.Close()
}

func (r *Repo) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(customerKey(c.ID))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return setJSON(txn, customerKey(c.ID), customerRecord{Name: c.Name, Balance: c.Balance})
	})
	return mapErr(err, "create customer")
}

func (r *Repo) BeginTx(ctx context.Context, opts port.TxOptions) (port.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &badgerTx{txn: r.db.NewTransaction(!opts.ReadOnly), readOnly: opts.ReadOnly}, nil
}

type badgerTx struct {
	txn      *badger.Txn
	readOnly bool
}

func (t *badgerTx) LoadCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	var rec customerRecord
	if err := getJSON(t.txn, customerKey(id), &rec); err != nil {
		return nil, mapErr(err, "load customer")
	}
	return &domain.Customer{ID: id, Name: rec.Name, Balance: rec.Balance}, nil
}

func (t *badgerTx) LoadHolding(ctx context.Context, customerID int64, ticker domain.Ticker) (*domain.Holding, error) {
	var rec holdingRecord
	if err := getJSON(t.txn, holdingKey(customerID, ticker), &rec); err != nil {
		return nil, mapErr(err, "load holding")
	}
	return &domain.Holding{CustomerID: customerID, Ticker: ticker, Quantity: rec.Quantity}, nil
}

func (t *badgerTx) LoadHoldings(ctx context.Context, customerID int64) ([]*domain.Holding, error) {
	prefix := holdingPrefix(customerID)
	type seqHolding struct {
		h   *domain.Holding
		seq uint64
	}
	var found []seqHolding

	it := t.txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, PrefetchSize: 16, Prefix: prefix})
	defer it.Close()
	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		var rec holdingRecord
		if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &rec) }); err != nil {
			return nil, mapErr(err, "load holdings")
		}
		ticker := domain.Ticker(item.Key()[len(prefix):])
		found = append(found, seqHolding{
			h:   &domain.Holding{CustomerID: customerID, Ticker: ticker, Quantity: rec.Quantity},
			seq: rec.Seq,
		})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].seq < found[j].seq })

	res := make([]*domain.Holding, 0, len(found))
	for _, f := range found {
		res = append(res, f.h)
	}
	return res, nil
}

func (t *badgerTx) SaveCustomer(ctx context.Context, c *domain.Customer) error {
	if t.readOnly {
		return errors.New("badger: save customer in read-only transaction")
	}
	var rec customerRecord
	if err := getJSON(t.txn, customerKey(c.ID), &rec); err != nil {
		return mapErr(err, "save customer")
	}
	rec.Balance = c.Balance
	return mapErr(setJSON(t.txn, customerKey(c.ID), rec), "save customer")
}

// SaveHolding upserts the holding. A new holding takes the next value of the
// customer's sequence so listings keep creation order.
func (t *badgerTx) SaveHolding(ctx context.Context, h *domain.Holding) error {
	if t.readOnly {
		return errors.New("badger: save holding in read-only transaction")
	}
	key := holdingKey(h.CustomerID, h.Ticker)
	var rec holdingRecord
	err := getJSON(t.txn, key, &rec)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		seq, err := t.nextSeq(h.CustomerID)
		if err != nil {
			return mapErr(err, "save holding")
		}
		rec.Seq = seq
	case err != nil:
		return mapErr(err, "save holding")
	}
	rec.Quantity = h.Quantity
	return mapErr(setJSON(t.txn, key, rec), "save holding")
}

func (t *badgerTx) nextSeq(customerID int64) (uint64, error) {
	var seq uint64
	item, err := t.txn.Get(seqKey(customerID))
	switch {
	case err == nil:
		if err := item.Value(func(v []byte) error {
			seq = binary.BigEndian.Uint64(v)
			return nil
		}); err != nil {
			return 0, err
		}
	case !errors.Is(err, badger.ErrKeyNotFound):
		return 0, err
	}
	seq++
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	return seq, t.txn.Set(seqKey(customerID), buf)
}

func (t *badgerTx) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		t.txn.Discard()
		return err
	}
	return mapErr(t.txn.Commit(), "commit")
}

func (t *badgerTx) Rollback(ctx context.Context) error {
	t.txn.Discard()
	return nil
}

func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(b []byte) error { return json.Unmarshal(b, v) })
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, b)
}

func mapErr(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return port.ErrNotFound
	case errors.Is(err, badger.ErrConflict):
		return errors.Wrap(port.ErrConflict, "badger: "+op)
	}
	return errors.Wrap(err, "badger: "+op)
}
