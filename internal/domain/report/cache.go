package report

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// CacheKeyAll is the query key of the full report list
const CacheKeyAll = "reports:all"

// sharedLoadTimeout bounds a load that outlives the request which started it
const sharedLoadTimeout = 30 * time.Second

// storeIfCurrent writes the entry only while the key's generation is still the
// one read before loading. Invalidate bumps the generation.
var storeIfCurrent = redis.NewScript(`
local gen = redis.call("GET", KEYS[2]) or "0"
if gen ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

// QueryCache caches report list queries in Redis and collapses concurrent
// identical loads into one. With a nil client it only collapses loads.
type QueryCache struct {
	redis *redis.Client
	ttl   time.Duration
	group singleflight.Group
}

// NewQueryCache creates a query cache; client may be nil
func NewQueryCache(client *redis.Client, ttl time.Duration) *QueryCache {
	return &QueryCache{redis: client, ttl: ttl}
}

func generationKey(key string) string { return key + ":gen" }

// Reports returns the cached list for key, calling load on a miss.
// Redis failures are logged and treated as misses. The shared load is not
// cancelled when one waiting caller goes away; each caller still returns
// early on its own ctx.
func (c *QueryCache) Reports(ctx context.Context, key string, load func(context.Context) ([]Report, error)) ([]Report, error) {
	if cached, ok := c.get(ctx, key); ok {
		return cached, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()

		gen, ok := c.generation(loadCtx, key)
		reports, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if ok {
			c.set(loadCtx, key, gen, reports)
		}
		return reports, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Report), nil
	}
}

// Invalidate drops cached results for keys and stops loads already in flight
// from storing what they read.
func (c *QueryCache) Invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		c.group.Forget(key)
	}
	if c.redis == nil || len(keys) == 0 {
		return
	}
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Incr(ctx, generationKey(key))
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("Failed to invalidate report cache")
	}
}

// generation reads the key's current generation; ok is false when nothing
// should be stored.
func (c *QueryCache) generation(ctx context.Context, key string) (string, bool) {
	if c.redis == nil || c.ttl <= 0 {
		return "", false
	}
	gen, err := c.redis.Get(ctx, generationKey(key)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "0", true
	case err != nil:
		log.Warn().Err(err).Str("key", key).Msg("Report cache generation read failed")
		return "", false
	}
	return gen, true
}

func (c *QueryCache) get(ctx context.Context, key string) ([]Report, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("Report cache read failed")
		}
		return nil, false
	}
	var reports []Report
	if err := json.Unmarshal(data, &reports); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Discarding unreadable report cache entry")
		return nil, false
	}
	return reports, true
}

func (c *QueryCache) set(ctx context.Context, key, gen string, reports []Report) {
	data, err := json.Marshal(reports)
	if err != nil {
		return
	}
	keys := []string{key, generationKey(key)}
	stored, err := storeIfCurrent.Run(ctx, c.redis, keys, gen, data, c.ttl.Milliseconds()).Int()
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Report cache write failed")
		return
	}
	if stored == 0 {
		log.Debug().Str("key", key).Msg("Skipped caching reports loaded before an invalidation")
	}
}
