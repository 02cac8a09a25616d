package cfg

type Cfg struct {
	// HTTP server
	Port    string
	BaseUrl string

	// Gathering budgets, negative disables
	MaxItem int     // soft item cap, cache-only beyond
	MaxTime float64 // soft time cap (seconds), cache-only after
	LimItem int     // hard item cap, items beyond are dropped
	LimTime float64 // hard time cap (seconds), items after are dropped

	WorkerCount int
	Timeout     int // per-request HTTP timeout in seconds
	FeedDelay   int // how long a fetched feed stays fresh, in seconds

	// Crawler
	UserAgent    string
	MaxDownload  int64
	MaxRedirects int

	// Cache backend
	CacheBackend  string
	CacheSize     int
	CacheLifespan int
	SQLitePath    string
	RedisAddr     string
	RedisDB       int
	RedisPassword string
	LevelDBPath   string

	// Link fixing
	SiteRulesPath string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
