package core

import (
	"context"
	"sync"
)

// customerLocks hands out one mutual exclusion section per customer id.
// Entries are reference counted and dropped when nobody holds or waits.
type customerLocks struct {
	mu sync.Mutex
	m  map[int64]*lockEntry
}

type lockEntry struct {
	sem  chan struct{}
	refs int
}

func newCustomerLocks() *customerLocks {
	return &customerLocks{m: make(map[int64]*lockEntry)}
}

// lock blocks until the customer's section is free or ctx is done. The
// returned func releases the section.
func (l *customerLocks) lock(ctx context.Context, customerID int64) (func(), error) {
	l.mu.Lock()
	e, ok := l.m[customerID]
	if !ok {
		e = &lockEntry{sem: make(chan struct{}, 1)}
		l.m[customerID] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return func() {
			<-e.sem
			l.release(customerID, e)
		}, nil
	case <-ctx.Done():
		l.release(customerID, e)
		return nil, ctx.Err()
	}
}

func (l *customerLocks) release(customerID int64, e *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.m, customerID)
	}
}

func (l *customerLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
