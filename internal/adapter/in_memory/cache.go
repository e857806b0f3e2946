package in_memory

import (
	"context"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/olyamironova/customer-trade-service/internal/domain"
	"github.com/olyamironova/customer-trade-service/internal/port"
)

// Cache is a bounded in-process read cache backed by ristretto.
type Cache struct {
	c   *ristretto.Cache[int64, *domain.CustomerInformation]
	ttl time.Duration

	mu       sync.Mutex
	versions map[int64]uint64
}

var _ port.Cache = (*Cache)(nil)

// NewCache keeps at most maxEntries customers for ttl each (0 = no expiry).
func NewCache(maxEntries int64, ttl time.Duration) (*Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[int64, *domain.CustomerInformation]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c, ttl: ttl, versions: make(map[int64]uint64)}, nil
}

// SetCustomerInformation is a no-op when the customer was invalidated after
// version was read.
func (c *Cache) SetCustomerInformation(ctx context.Context, info *domain.CustomerInformation, version uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[info.ID] != version {
		return nil
	}
	c.c.SetWithTTL(info.ID, info.Clone(), 1, c.ttl)
	// make the entry visible to the next Get
	c.c.Wait()
	return nil
}

func (c *Cache) GetCustomerInformation(ctx context.Context, customerID int64) (*domain.CustomerInformation, uint64, error) {
	c.mu.Lock()
	version := c.versions[customerID]
	c.mu.Unlock()

	info, ok := c.c.Get(customerID)
	if !ok {
		return nil, version, nil
	}
	return info.Clone(), version, nil
}

func (c *Cache) Invalidate(ctx context.Context, customerID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[customerID]++
	c.c.Del(customerID)
	return nil
}

func (c *Cache) Close() {
	c.c.Close()
}
