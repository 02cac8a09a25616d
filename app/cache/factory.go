package cache

import (
	"fmt"
	"time"

	"github.com/feedmill/feedmill/app/cfg"
)

// New builds the cache backend selected by configuration.
func New(c *cfg.Cfg) (ContentCache, error) {
	switch c.CacheBackend {
	case "", "memory":
		return NewMemoryCache(c.CacheSize, time.Duration(c.CacheLifespan)*time.Second), nil

	case "sqlite":
		return NewSQLiteCache(c.SQLitePath, c.CacheSize)

	case "redis":
		return NewRedisCache(c.RedisAddr, c.RedisPassword, c.RedisDB)

	case "leveldb":
		return NewLevelDBCache(c.LevelDBPath)

	default:
		return nil, fmt.Errorf("unknown cache backend: %s", c.CacheBackend)
	}
}
