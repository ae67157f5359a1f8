// Package storage opens the kv.Store driver selected by configuration.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/fundme/pkg/kv"
	"github.com/aussiebroadwan/fundme/pkg/kv/redis"
	"github.com/aussiebroadwan/fundme/pkg/kv/sqlite"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

type Config struct {
	Driver      string // memory, sqlite or redis
	DBFile      string // sqlite database path
	RedisAddr   string // host:port or redis:// URL
	RedisPrefix string
}

// Open returns the configured store. The caller closes it.
func Open(ctx context.Context, cfg Config) (kv.Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverMemory:
		return kv.NewMemory(), nil
	case DriverSQLite, "":
		if cfg.DBFile == "" {
			return nil, fmt.Errorf("storage: sqlite driver needs a database file")
		}
		dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", cfg.DBFile)
		s, err := sqlite.Open(dsn)
		if err != nil {
			return nil, fmt.Errorf("storage: open sqlite %s: %w", cfg.DBFile, err)
		}
		return s, nil
	case DriverRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("storage: redis driver needs an address")
		}
		s, err := redis.Open(ctx, redisURL(cfg.RedisAddr), cfg.RedisPrefix)
		if err != nil {
			return nil, fmt.Errorf("storage: connect redis: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}

func redisURL(addr string) string {
	if strings.Contains(addr, "://") {
		return addr
	}
	return "redis://" + addr
}
