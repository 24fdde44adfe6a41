// Package cache stores search result pages so that revisiting a page does not
// hit the search service again.
//
// Two Store implementations are provided:
//
//   - RedisStore keeps entries in Redis with a TTL, shared between processes.
//   - MemoryStore keeps entries in process memory.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//	store := cache.NewRedisStore(redisClient, "movies")
//
//	key := cache.KeyFor(query.Build(
//		query.Criteria{Title: "matrix"},
//		query.Window{Limit: 12},
//	))
//
//	entry, err := store.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the search service
//	}
//
// # Expiry
//
// Entry lifetimes come from the response's Cache-Control max-age or Expires
// header when present, otherwise from the configured default TTL
// (see ExpiresFromHeaders). Expired entries are treated as misses.
//
// # Metrics
//
//   - movie_search_cache_hits_total{layer} - Cache hits by layer (redis, memory)
//   - movie_search_cache_misses_total{layer} - Cache misses by layer
//   - movie_search_cache_errors_total{operation} - Cache operation errors
package cache
