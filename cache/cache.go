// Package cache holds the short-TTL full-page cache used by the home
// listing. Cached bodies are served verbatim until they expire; writes to
// the post tables do not invalidate them, staleness inside the TTL window
// is accepted behavior.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// HomeTTL is how long a rendered home page body stays valid.
const HomeTTL = 20 * time.Second

// PageCache caches fully rendered response bodies keyed by request URI.
type PageCache struct {
	store *gocache.Cache
}

func New(ttl time.Duration) *PageCache {
	return &PageCache{
		store: gocache.New(ttl, 2*ttl),
	}
}

// Get returns the cached body for key, if one is still fresh.
func (p *PageCache) Get(key string) ([]byte, bool) {
	v, ok := p.store.Get(key)
	if !ok {
		return nil, false
	}
	body, ok := v.([]byte)
	return body, ok
}

// Set stores body under key for the cache's default TTL. The body is
// copied so later buffer reuse by the caller cannot corrupt the entry.
func (p *PageCache) Set(key string, body []byte) {
	stored := make([]byte, len(body))
	copy(stored, body)
	p.store.SetDefault(key, stored)
}

// Clear drops every cached page. Tests and the clear-db command use this
// to force the next request to re-render from storage.
func (p *PageCache) Clear() {
	p.store.Flush()
}
