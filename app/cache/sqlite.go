package cache

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// SQLiteCache persists cache entries in a single SQLite table, trimmed to
// the newest maxSize rows.
type SQLiteCache struct {
	db      *sql.DB
	maxSize int
}

func NewSQLiteCache(path string, maxSize int) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite cache: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	c := &SQLiteCache{db: db, maxSize: maxSize}
	c.Trim()

	return c, nil
}

func runMigrations(db *sql.DB) error {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (c *SQLiteCache) Contains(key string) bool {
	var one int
	err := c.db.QueryRow(`SELECT 1 FROM data WHERE ky = ?`, key).Scan(&one)
	return err == nil
}

func (c *SQLiteCache) Get(key string) ([]byte, bool) {
	var value []byte
	err := c.db.QueryRow(`SELECT data FROM data WHERE ky = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		slog.Warn("Cache read failed", "key", key, "error", err)
		return nil, false
	}
	return value, true
}

func (c *SQLiteCache) Set(key string, value []byte) {
	now := time.Now().Unix()
	_, err := c.db.Exec(`
		INSERT INTO data (ky, data, timestamp) VALUES (?, ?, ?)
		ON CONFLICT(ky) DO UPDATE SET data = excluded.data, timestamp = excluded.timestamp`,
		key, value, now)
	if err != nil {
		slog.Warn("Cache write failed", "key", key, "error", err)
	}
}

// Trim deletes everything older than the newest maxSize entries.
func (c *SQLiteCache) Trim() {
	if c.maxSize < 0 {
		return
	}

	_, err := c.db.Exec(`
		DELETE FROM data WHERE timestamp <= (
			SELECT timestamp FROM (
				SELECT timestamp FROM data ORDER BY timestamp DESC LIMIT 1 OFFSET ?
			)
		)`, c.maxSize)
	if err != nil {
		slog.Warn("Cache trim failed", "error", err)
	}
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
