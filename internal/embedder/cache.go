package embedder

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheTTL is how long a cached embedding stays valid unless the
// caller overrides it.
const DefaultCacheTTL = time.Hour

// cacheEntry carries a vector together with its expiry bookkeeping.
type cacheEntry struct {
	vector   []float32
	storedAt time.Time
	ttl      time.Duration
}

// Cache maps text fingerprints to previously computed vectors with a
// time-to-live, bounded by LRU eviction. Its lifecycle is independent of
// the vector store; the composition root constructs and injects it.
type Cache struct {
	entries    *lru.Cache[string, cacheEntry]
	defaultTTL time.Duration
}

// NewCache creates an embedding cache holding at most maxLen entries.
// A non-positive ttl falls back to DefaultCacheTTL.
func NewCache(maxLen int, ttl time.Duration) *Cache {
	if maxLen <= 0 {
		maxLen = 10000
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	entries, err := lru.New[string, cacheEntry](maxLen)
	if err != nil {
		// Only reachable with a non-positive size, which is clamped above.
		entries, _ = lru.New[string, cacheEntry](10000)
	}
	return &Cache{entries: entries, defaultTTL: ttl}
}

// Get returns a copy of the cached vector for key, treating expired
// entries as misses and dropping them.
func (c *Cache) Get(key string) ([]float32, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if time.Since(entry.storedAt) > entry.ttl {
		c.entries.Remove(key)
		return nil, false
	}

	// Copy so caller mutations cannot pollute the cache.
	vec := make([]float32, len(entry.vector))
	copy(vec, entry.vector)
	return vec, true
}

// Set stores a vector under key with the default TTL.
func (c *Cache) Set(key string, vector []float32) {
	c.SetWithTTL(key, vector, c.defaultTTL)
}

// SetWithTTL stores a vector under key with an explicit TTL. Same-key
// writes are last-writer-wins; cached values for the same text are
// deterministic up to provider nondeterminism, so there is no
// lost-update hazard.
func (c *Cache) SetWithTTL(key string, vector []float32, ttl time.Duration) {
	stored := make([]float32, len(vector))
	copy(stored, vector)
	c.entries.Add(key, cacheEntry{vector: stored, storedAt: time.Now(), ttl: ttl})
}

// Len returns the current number of cached entries, expired or not.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge empties the cache.
func (c *Cache) Purge() {
	c.entries.Purge()
}
