package cache

import (
	"context"
	"time"
)

const feedKey = "posts:feed"

// Feed caches the rendered public posts feed in-process. It is the fallback
// when no Redis address is configured.
type Feed struct {
	cache *Cache
}

func NewFeed(ttl time.Duration) *Feed {
	return &Feed{cache: New(ttl)}
}

func (f *Feed) Get(ctx context.Context) ([]byte, bool) {
	return f.cache.Get(feedKey)
}

func (f *Feed) Set(ctx context.Context, payload []byte) {
	f.cache.Set(feedKey, payload)
}

func (f *Feed) Invalidate(ctx context.Context) {
	f.cache.Delete(feedKey)
}
