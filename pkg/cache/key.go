package cache

import (
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix is prepended to every Redis key written by the cache.
const KeyPrefix = "sight"

// CacheKey identifies a cached response.
type CacheKey struct {
	// Path is the API path relative to the base URL (e.g. "/brands/42").
	Path string

	// Query holds the request query parameters.
	Query url.Values

	// Scope separates entries of different accounts sharing one Redis.
	Scope string
}

// String returns a deterministic key.
//
//	sight:brands/42:lang=en
//	sight:brands/42:lang=en:scope=acme
func (k CacheKey) String() string {
	parts := []string{KeyPrefix}

	if path := strings.Trim(k.Path, "/"); path != "" {
		parts = append(parts, path)
	}

	if len(k.Query) > 0 {
		names := make([]string, 0, len(k.Query))
		for name := range k.Query {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			values := append([]string(nil), k.Query[name]...)
			sort.Strings(values)
			parts = append(parts, name+"="+strings.Join(values, ","))
		}
	}

	if k.Scope != "" {
		parts = append(parts, "scope="+k.Scope)
	}

	return strings.Join(parts, ":")
}
