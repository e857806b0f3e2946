package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StoreBadger   = "badger"
	StorePostgres = "postgres"

	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	GRPCAddr string `env:"GRPC_ADDR" envDefault:":9090"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"memory"`
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"data/customers.db"`
	BadgerPath  string `env:"BADGER_PATH" envDefault:"data/badger"`

	CacheDriver   string        `env:"CACHE_DRIVER" envDefault:"none"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"60s"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`

	SeedFile string `env:"SEED_FILE"`
	// SeedDefault provisions the built-in customers: "true", "false", or
	// empty for "only with the memory store".
	SeedDefault string `env:"SEED_DEFAULT"`

	RateLimit    time.Duration `env:"RATE_LIMIT" envDefault:"0s"`
	TradeRetries int           `env:"TRADE_RETRIES" envDefault:"3"`

	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"text"`
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"100"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"28"`
	LogCompress   bool   `env:"LOG_COMPRESS" envDefault:"false"`

	ProblemTypeBase string        `env:"PROBLEM_TYPE_BASE" envDefault:"/problems/"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads the given .env files (missing ones are skipped), then the
// environment. Variables already set win over .env values.
func Load(files ...string) (Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case StoreMemory, StoreSQLite, StoreBadger:
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	switch c.CacheDriver {
	case CacheNone, CacheMemory, CacheRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown CACHE_DRIVER %q", c.CacheDriver))
	}
	if c.CacheDriver != CacheNone && c.CacheTTL <= 0 {
		errs = append(errs, errors.New("CACHE_TTL must be positive"))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	if c.TradeRetries < 0 {
		errs = append(errs, errors.New("TRADE_RETRIES must not be negative"))
	}
	if c.SeedDefault != "" {
		if _, err := strconv.ParseBool(c.SeedDefault); err != nil {
			errs = append(errs, fmt.Errorf("SEED_DEFAULT must be a boolean, got %q", c.SeedDefault))
		}
	}
	if c.RateLimit < 0 {
		errs = append(errs, errors.New("RATE_LIMIT must not be negative"))
	}
	return errors.Join(errs...)
}

// ShouldSeedDefault reports whether the built-in customers are provisioned.
func (c Config) ShouldSeedDefault() bool {
	if v, err := strconv.ParseBool(c.SeedDefault); err == nil {
		return v
	}
	return c.StoreDriver == StoreMemory
}
