package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/olyamironova/customer-trade-service/internal/domain"
	"github.com/olyamironova/customer-trade-service/internal/port"
)

var _ port.Cache = (*RedisCache)(nil)

type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisCache(addr string, password string, db int, ttl time.Duration) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisCacheFromClient(rdb, ttl)
}

func NewRedisCacheFromClient(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

// The hash tag keeps an entry and its version in one cluster slot.
func key(customerID int64) string { return "customer:{" + strconv.FormatInt(customerID, 10) + "}" }

func versionKey(customerID int64) string { return key(customerID) + ":version" }

// wire form of domain.CustomerInformation
type cachedInfo struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Balance  int64           `json:"balance"`
	Holdings []cachedHolding `json:"holdings"`
}

type cachedHolding struct {
	Ticker   string `json:"ticker"`
	Quantity int64  `json:"quantity"`
}

// SetCustomerInformation stores info only if the version key still holds
// version. A concurrent Invalidate from any instance makes it a no-op.
func (c *RedisCache) SetCustomerInformation(ctx context.Context, info *domain.CustomerInformation, version uint64) error {
	ci := cachedInfo{ID: info.ID, Name: info.Name, Balance: info.Balance, Holdings: make([]cachedHolding, 0, len(info.Holdings))}
	for _, h := range info.Holdings {
		ci.Holdings = append(ci.Holdings, cachedHolding{Ticker: string(h.Ticker), Quantity: h.Quantity})
	}
	b, err := json.Marshal(ci)
	if err != nil {
		return err
	}

	vk := versionKey(info.ID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vk).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(info.ID), b, c.ttl)
			return nil
		})
		return err
	}, vk)
	if errors.Is(err, redis.TxFailedErr) {
		// invalidated between WATCH and EXEC
		return nil
	}
	return err
}

func (c *RedisCache) GetCustomerInformation(ctx context.Context, customerID int64) (*domain.CustomerInformation, uint64, error) {
	vals, err := c.client.MGet(ctx, versionKey(customerID), key(customerID)).Result()
	if err != nil {
		return nil, 0, err
	}
	var version uint64
	if s, ok := vals[0].(string); ok {
		if version, err = strconv.ParseUint(s, 10, 64); err != nil {
			return nil, 0, err
		}
	}
	s, ok := vals[1].(string)
	if !ok {
		return nil, version, nil
	}
	var ci cachedInfo
	if err := json.Unmarshal([]byte(s), &ci); err != nil {
		return nil, 0, err
	}
	info := &domain.CustomerInformation{ID: ci.ID, Name: ci.Name, Balance: ci.Balance, Holdings: make([]domain.HoldingView, 0, len(ci.Holdings))}
	for _, h := range ci.Holdings {
		info.Holdings = append(info.Holdings, domain.HoldingView{Ticker: domain.Ticker(h.Ticker), Quantity: h.Quantity})
	}
	return info, version, nil
}

// Invalidate drops the entry and bumps its version in one MULTI, so fills
// computed before this call are rejected.
func (c *RedisCache) Invalidate(ctx context.Context, customerID int64) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(customerID))
		pipe.Del(ctx, key(customerID))
		return nil
	})
	return err
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
