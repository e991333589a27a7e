package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"asksite-be/pkg/store"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Cache is a two-level cache for backend query results: a process-local
// layer for the fan-out case (the same sub-query hitting the same backend
// within one request window) and an optional shared Redis layer across
// instances. Keys include the tenant so entries never cross tenants.
type Cache struct {
	local *gocache.Cache
	redis *redis.Client
	ttl   time.Duration
}

func NewCache(redisClient *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{
		local: gocache.New(ttl, 2*ttl),
		redis: redisClient,
		ttl:   ttl,
	}
}

func (c *Cache) key(tenant, backend, query string, k int) string {
	sum := sha256.Sum256([]byte(query))
	return fmt.Sprintf("retrieval:%s:%s:%d:%s", tenant, backend, k, hex.EncodeToString(sum[:16]))
}

func (c *Cache) Get(ctx context.Context, tenant, backend, query string, k int) ([]store.Candidate, bool) {
	key := c.key(tenant, backend, query, k)

	if x, found := c.local.Get(key); found {
		return x.([]store.Candidate), true
	}

	if c.redis != nil {
		raw, err := c.redis.Get(ctx, key).Bytes()
		if err == nil {
			var candidates []store.Candidate
			if json.Unmarshal(raw, &candidates) == nil {
				c.local.Set(key, candidates, gocache.DefaultExpiration)
				return candidates, true
			}
		}
	}

	return nil, false
}

func (c *Cache) Set(ctx context.Context, tenant, backend, query string, k int, candidates []store.Candidate) {
	key := c.key(tenant, backend, query, k)
	c.local.Set(key, candidates, gocache.DefaultExpiration)

	if c.redis != nil {
		if raw, err := json.Marshal(candidates); err == nil {
			c.redis.Set(ctx, key, raw, c.ttl)
		}
	}
}
