package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/olyamironova/customer-trade-service/internal/adapter/badger"
	"github.com/olyamironova/customer-trade-service/internal/adapter/cache"
	"github.com/olyamironova/customer-trade-service/internal/adapter/in_memory"
	"github.com/olyamironova/customer-trade-service/internal/adapter/pg"
	"github.com/olyamironova/customer-trade-service/internal/adapter/sqlite"
	"github.com/olyamironova/customer-trade-service/internal/config"
	"github.com/olyamironova/customer-trade-service/internal/domain"
	"github.com/olyamironova/customer-trade-service/internal/port"
	"github.com/olyamironova/customer-trade-service/internal/seed"
)

const memoryCacheEntries = 100_000

func openStore(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (port.Store, error) {
	log = log.WithField("store", cfg.StoreDriver)
	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Info("using in-memory store, data is lost on restart")
		return in_memory.NewMemoryRepo(), nil
	case config.StoreSQLite:
		log.WithField("path", cfg.SQLitePath).Info("opening store")
		return sqlite.Open(ctx, cfg.SQLitePath)
	case config.StoreBadger:
		log.WithField("path", cfg.BadgerPath).Info("opening store")
		return badger.Open(badger.Options{Path: cfg.BadgerPath})
	case config.StorePostgres:
		repo, err := pg.NewPgRepo(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := repo.Migrate(ctx); err != nil {
			repo.Close(ctx)
			return nil, err
		}
		log.Info("connected to store")
		return repo, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func seedStore(ctx context.Context, cfg config.Config, p port.Provisioner, log logrus.FieldLogger) error {
	var customers []domain.Customer
	if cfg.ShouldSeedDefault() {
		customers = append(customers, seed.Default()...)
	}
	if cfg.SeedFile != "" {
		fromFile, err := seed.Load(cfg.SeedFile)
		if err != nil {
			return err
		}
		customers = append(customers, fromFile...)
	}
	if len(customers) == 0 {
		return nil
	}
	if err := seed.Apply(ctx, p, customers); err != nil {
		return err
	}
	log.WithField("customers", len(customers)).Info("seeded customers")
	return nil
}

// openCache returns a nil port.Cache when caching is off.
func openCache(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (port.Cache, func(), error) {
	switch cfg.CacheDriver {
	case config.CacheMemory:
		c, err := in_memory.NewCache(memoryCacheEntries, cfg.CacheTTL)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	case config.CacheRedis:
		c := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		if err := c.Ping(ctx); err != nil {
			log.WithError(err).Warn("redis is not reachable, reads fall back to the store until it is")
		}
		return c, func() { _ = c.Close() }, nil
	}
	return nil, func() {}, nil
}
