package cache

import (
	"context"
	"time"
)

const (
	AsideKey     = "aside:v1"
	TopicListKey = "topics:list:v1"
)

const (
	AsideTTL     = 5 * time.Minute
	TopicListTTL = 10 * time.Minute
)

// Invalidate deletes keys, ignoring a missing client.
func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateTopics drops every cached view that lists topics or topic counts.
func InvalidateTopics(ctx context.Context) {
	Invalidate(ctx, TopicListKey, AsideKey)
}

// InvalidatePosts drops cached views derived from posts: topic counts and published authors.
func InvalidatePosts(ctx context.Context) {
	Invalidate(ctx, AsideKey)
}
