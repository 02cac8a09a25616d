package cache

import (
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
)

// LevelDBCache keeps cache entries in an embedded on-disk LevelDB store.
type LevelDBCache struct {
	db *leveldb.DB
}

func NewLevelDBCache(path string) (*LevelDBCache, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb cache at %s: %w", path, err)
	}
	return &LevelDBCache{db: db}, nil
}

func (c *LevelDBCache) Contains(key string) bool {
	ok, err := c.db.Has([]byte(key), nil)
	return err == nil && ok
}

func (c *LevelDBCache) Get(key string) ([]byte, bool) {
	value, err := c.db.Get([]byte(key), nil)
	if err != nil {
		return nil, false
	}
	return value, true
}

func (c *LevelDBCache) Set(key string, value []byte) {
	c.db.Put([]byte(key), value, nil)
}

func (c *LevelDBCache) Close() error {
	return c.db.Close()
}
