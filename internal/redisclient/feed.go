package redisclient

import (
	"context"
	"time"
)

const feedKey = "posts:feed"

// Feed caches the rendered public posts feed in Redis so every API instance
// shares one copy and one invalidation.
type Feed struct {
	client *Client
	ttl    time.Duration
}

func NewFeed(client *Client, ttl time.Duration) *Feed {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Feed{client: client, ttl: ttl}
}

func (f *Feed) Get(ctx context.Context) ([]byte, bool) {
	return f.client.GetBytes(ctx, feedKey)
}

func (f *Feed) Set(ctx context.Context, payload []byte) {
	f.client.SetBytes(ctx, feedKey, payload, f.ttl)
}

func (f *Feed) Invalidate(ctx context.Context) {
	f.client.Delete(ctx, feedKey)
}
