package config

import (
	"time"
)

// CacheConfig defines TTLs for the Redis-backed result caches. Search and
// popular-list entries are short-lived because writes invalidate them
// coarsely; service types change rarely and get a long TTL; the auth
// validation entries bound how long a revoked credential can keep working.
type CacheConfig struct {
	SearchTTL  time.Duration // search result entries
	PopularTTL time.Duration // popular services list entries
	TypesTTL   time.Duration // service type reference data
	AuthTTL    time.Duration // access/refresh token validation entries
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults are used when variables are not set.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		SearchTTL:  parseDur(getenv("CACHE_SEARCH_TTL", "5m")),
		PopularTTL: parseDur(getenv("CACHE_POPULAR_TTL", "10m")),
		TypesTTL:   parseDur(getenv("CACHE_TYPES_TTL", "1h")),
		AuthTTL:    parseDur(getenv("CACHE_AUTH_TTL", "15m")),
	}
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Second
	}
	return d
}
