package config

import (
	"strings"
	"time"
)

// CacheConfig covers the two Redis-backed caches: the HTTP response cache in
// front of the rates view and the hotel search cache.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int

	// SearchBackend is "memory" or "redis".
	SearchBackend string
	SearchSize    int
	SearchTTL     time.Duration
}

func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:       envBool("CACHE_ENABLED", true),
		Methods:       parseMethods(getenv("CACHE_METHODS", "GET")),
		TTL:           envDur("CACHE_TTL", 30*time.Second),
		Prefix:        getenv("CACHE_PREFIX", "cache"),
		MaxBodyBytes:  envPositiveInt("CACHE_MAX_BODY_BYTES", 1<<20),
		SearchBackend: strings.ToLower(getenv("SEARCH_CACHE_BACKEND", "memory")),
		SearchSize:    envPositiveInt("SEARCH_CACHE_SIZE", 100),
		SearchTTL:     envDur("SEARCH_CACHE_TTL", 10*time.Minute),
	}
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
