// Package cache provides an in-memory TTL cache for GET responses.
//
// The store keeps fully-read responses keyed by endpoint and query
// parameters. Freshness comes from the provider's Expires or
// Cache-Control max-age headers, with a default TTL as fallback. Stale
// entries that carry an ETag or Last-Modified validator are kept for
// conditional revalidation (If-None-Match / If-Modified-Since); a 304
// refreshes the entry's TTL without re-transferring the body.
//
// The cache is deliberately per-process. Persisting responses is out of
// scope for the connector core; a cache miss only costs one request
// against the provider's rate limit window.
//
// # Basic Usage
//
//	store := cache.NewStore()
//
//	key := cache.Key{
//		Endpoint: "website/example.com/visits",
//		Params:   url.Values{"granularity": []string{"monthly"}},
//	}
//
//	entry, err := store.Get(key)
//	if err == cache.ErrCacheMiss {
//		// fetch from the provider, then:
//		store.Set(key, cache.NewEntry(resp.StatusCode, resp.Header, body))
//	}
//
// # Metrics
//
// The store exports Prometheus metrics:
//
//   - connector_cache_hits_total - Cache lookups that found an entry
//   - connector_cache_misses_total - Cache misses
//   - connector_cache_entries - Current number of cached entries
//   - connector_304_responses_total - Successful revalidations
package cache
