package pathfind

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"railsim/graph"
)

type cacheKey struct {
	start, end graph.EdgeID
}

// lruCache wraps hashicorp/golang-lru/v2 with (start,end) keys. Hits are
// cloned by the caller before being handed out, so a caller mutating its
// result can never corrupt the cached slice.
type lruCache struct {
	inner *lru.Cache[cacheKey, []graph.EdgeID]
}

func newLRUCache(capacity int) *lruCache {
	if capacity <= 0 {
		capacity = 1
	}
	c, _ := lru.New[cacheKey, []graph.EdgeID](capacity)
	return &lruCache{inner: c}
}

func (c *lruCache) get(key cacheKey) ([]graph.EdgeID, bool) {
	return c.inner.Get(key)
}

func (c *lruCache) put(key cacheKey, path []graph.EdgeID) {
	c.inner.Add(key, path)
}

func (c *lruCache) clear() {
	c.inner.Purge()
}
