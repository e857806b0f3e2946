package core

import "sync"

// staleSet records customers whose cache entry may predate a committed
// trade because invalidating it failed.
type staleSet struct {
	mu sync.Mutex
	m  map[int64]struct{}
}

func newStaleSet() *staleSet {
	return &staleSet{m: make(map[int64]struct{})}
}

func (s *staleSet) add(customerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[customerID] = struct{}{}
}

func (s *staleSet) remove(customerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, customerID)
}

func (s *staleSet) has(customerID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.m[customerID]
	return ok
}
