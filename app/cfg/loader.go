package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// HTTP server
	Port    string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://feeds.example.com)"`

	// Gathering budgets
	MaxItem int     `long:"max-item" env:"MAX_ITEM" default:"5" description:"Items beyond this index are filled from cache only (negative: unlimited)"`
	MaxTime float64 `long:"max-time" env:"MAX_TIME" default:"2" description:"Seconds after which items are filled from cache only (negative: unlimited)"`
	LimItem int     `long:"lim-item" env:"LIM_ITEM" default:"10" description:"Items beyond this index are dropped from the feed (negative: unlimited)"`
	LimTime float64 `long:"lim-time" env:"LIM_TIME" default:"2.5" description:"Seconds after which items are dropped from the feed (negative: unlimited)"`

	WorkerCount int `long:"workers" env:"WORKER_COUNT" default:"5" description:"Number of workers filling feed items (1 for sequential processing)"`
	Timeout     int `long:"timeout" env:"TIMEOUT" default:"4" description:"HTTP timeout in seconds"`
	FeedDelay   int `long:"feed-delay" env:"FEED_DELAY" default:"600" description:"Feed cache validity in seconds"`

	// Crawler
	UserAgent    string `long:"user-agent" env:"USER_AGENT" description:"User agent string for HTTP requests (default: random browser UA)"`
	MaxDownload  int64  `long:"max-download" env:"MAX_DOWNLOAD" default:"512000" description:"Maximum response body size in bytes"`
	MaxRedirects int    `long:"max-redirects" env:"MAX_REDIRECTS" default:"10" description:"Maximum number of redirects to follow"`

	// Cache backend
	CacheBackend  string `long:"cache" env:"CACHE" default:"memory" choice:"memory" choice:"sqlite" choice:"redis" choice:"leveldb" description:"Cache backend"`
	CacheSize     int    `long:"cache-size" env:"CACHE_SIZE" default:"1000" description:"Maximum number of cache entries"`
	CacheLifespan int    `long:"cache-lifespan" env:"CACHE_LIFESPAN" default:"60" description:"Seconds between cache trims"`
	SQLitePath    string `long:"sqlite-path" env:"SQLITE_PATH" default:"feedmill-cache.db" description:"SQLite cache database path"`
	RedisAddr     string `long:"redis-addr" env:"REDIS_ADDR" default:"localhost:6379" description:"Redis address"`
	RedisDB       int    `long:"redis-db" env:"REDIS_DB" default:"0" description:"Redis database number"`
	RedisPassword string `long:"redis-password" env:"REDIS_PWD" description:"Redis password"`
	LevelDBPath   string `long:"leveldb-path" env:"LEVELDB_PATH" default:"./data/cache" description:"LevelDB cache directory"`

	// Link fixing
	SiteRulesPath string `long:"site-rules" env:"SITE_RULES" description:"Optional YAML file with extra redirector patterns"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`

	Args struct {
		URL string `positional-arg-name:"url" description:"Process a single feed URL and print the result (one-shot mode)"`
	} `positional-args:"yes"`
}

var globalCfg *Cfg

// Load parses environment variables and command-line flags. It returns the
// configuration plus the positional feed URL when running in one-shot mode.
func Load() (*Cfg, string, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, "", nil
			}
		}
		return nil, "", fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Port:          raw.Port,
		BaseUrl:       raw.BaseUrl,
		MaxItem:       raw.MaxItem,
		MaxTime:       raw.MaxTime,
		LimItem:       raw.LimItem,
		LimTime:       raw.LimTime,
		WorkerCount:   raw.WorkerCount,
		Timeout:       raw.Timeout,
		FeedDelay:     raw.FeedDelay,
		UserAgent:     raw.UserAgent,
		MaxDownload:   raw.MaxDownload,
		MaxRedirects:  raw.MaxRedirects,
		CacheBackend:  raw.CacheBackend,
		CacheSize:     raw.CacheSize,
		CacheLifespan: raw.CacheLifespan,
		SQLitePath:    raw.SQLitePath,
		RedisAddr:     raw.RedisAddr,
		RedisDB:       raw.RedisDB,
		RedisPassword: raw.RedisPassword,
		LevelDBPath:   raw.LevelDBPath,
		SiteRulesPath: raw.SiteRulesPath,
		Timezone:      raw.Timezone,
		Debug:         raw.Debug,
		Version:       GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, raw.Args.URL, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set installs a configuration directly, bypassing flag parsing. Used by tests.
func Set(cfg *Cfg) {
	globalCfg = cfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
