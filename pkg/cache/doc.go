// Package cache stores Sight GET responses in Redis.
//
// Entries keep the response body together with its ETag and Last-Modified
// validators so a later request can be sent as a conditional request. A 304
// Not Modified answer then serves the cached body without transferring it
// again.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(redisClient)
//
//	key := cache.CacheKey{
//		Path:  "/brands/42",
//		Query: url.Values{"lang": []string{"en"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from Sight, then manager.Set(ctx, key, entry)
//	}
//
// Responses without an Expires header are kept for DefaultTTL.
//
// # Metrics
//
//   - sight_cache_hits_total
//   - sight_cache_misses_total
//   - sight_cache_size_bytes
//   - sight_cache_not_modified_total
//   - sight_cache_errors_total{operation}
package cache
