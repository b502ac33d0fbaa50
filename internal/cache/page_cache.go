package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"confessional/internal/observability"

	"github.com/redis/go-redis/v9"
)

// CommentPageCache stores rendered comment pages. Pages are never patched:
// every write to a post's thread bumps the post's version so older pages
// become unreachable and expire on their own.
type CommentPageCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCommentPageCache returns a cache backed by rdb. A nil client disables caching.
func NewCommentPageCache(rdb *redis.Client, ttl time.Duration) *CommentPageCache {
	if ttl <= 0 {
		ttl = DefaultCommentPageTTL
	}
	return &CommentPageCache{rdb: rdb, ttl: ttl}
}

// Enabled reports whether a Redis client is configured.
func (c *CommentPageCache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// Version returns the current cache version for postID, 0 if none was recorded.
func (c *CommentPageCache) Version(ctx context.Context, postID uint) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	ctx, span := observability.StartRedisSpan(ctx, "get", postID)
	defer span.End()

	v, err := c.rdb.Get(ctx, CommentVersionKey(postID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Get loads a cached page into dest. It reports false on a miss.
func (c *CommentPageCache) Get(ctx context.Context, postID uint, version int64, page, pageSize int, dest any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	found, err := GetJSON(ctx, c.rdb, CommentPageKey(postID, version, page, pageSize), dest)
	switch {
	case err != nil:
		observability.CommentPageCacheTotal.WithLabelValues("error").Inc()
	case found:
		observability.CommentPageCacheTotal.WithLabelValues("hit").Inc()
	default:
		observability.CommentPageCacheTotal.WithLabelValues("miss").Inc()
	}
	return found, err
}

// Set stores a rendered page under the given version.
func (c *CommentPageCache) Set(ctx context.Context, postID uint, version int64, page, pageSize int, v any) error {
	if !c.Enabled() {
		return nil
	}
	return SetJSON(ctx, c.rdb, CommentPageKey(postID, version, page, pageSize), v, c.ttl)
}

// Invalidate makes every cached page of postID stale.
func (c *CommentPageCache) Invalidate(ctx context.Context, postID uint) error {
	if !c.Enabled() {
		return nil
	}
	ctx, span := observability.StartRedisSpan(ctx, "incr", postID)
	defer span.End()
	return c.rdb.Incr(ctx, CommentVersionKey(postID)).Err()
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func GetJSON(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	if rdb == nil {
		return false, nil
	}
	s, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(s, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, rdb *redis.Client, key string, v any, ttl time.Duration) error {
	if rdb == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, b, ttl).Err()
}
