package cache

// ContentCache is a key/value store with backend-owned TTL and size policy.
// Implementations must support concurrent per-key access from multiple
// workers; no cross-key guarantees are made.
type ContentCache interface {
	Contains(key string) bool
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Close() error
}
