// Package cache is a Redis read-through cache for per-user read models
// such as the dashboard and idea analytics.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"bizpilot/internal/common/logger"
	"bizpilot/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "bizpilot:"

// Kinds of cached read models. Every kind is dropped when its owner writes.
const (
	KindDashboard = "dashboard"
	KindAnalytics = "analytics"
)

var kinds = []string{KindDashboard, KindAnalytics}

// Cache is safe for concurrent use. A nil *Cache loads on every call.
type Cache struct {
	client redis.Cmdable
	ttl    time.Duration
	log    logger.Logger
}

func New(client redis.Cmdable, ttl time.Duration, log logger.Logger) *Cache {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Cache{client: client, ttl: ttl, log: log.Named("cache")}
}

func key(kind, userID string) string {
	return keyPrefix + kind + ":" + userID
}

// Fetch returns the cached value of kind for userID, or calls load and
// stores its result. Redis failures are logged and fall through to load.
func Fetch[T any](ctx context.Context, c *Cache, kind, userID string, load func(context.Context) (T, error)) (T, error) {
	if c == nil || c.client == nil {
		return load(ctx)
	}

	k := key(kind, userID)
	raw, err := c.client.Get(ctx, k).Bytes()
	switch {
	case err == nil:
		var v T
		if jsonErr := json.Unmarshal(raw, &v); jsonErr == nil {
			metrics.CacheLookups.WithLabelValues(kind, "hit").Inc()
			return v, nil
		}
		metrics.CacheLookups.WithLabelValues(kind, "corrupt").Inc()
	case errors.Is(err, redis.Nil):
		metrics.CacheLookups.WithLabelValues(kind, "miss").Inc()
	default:
		metrics.CacheLookups.WithLabelValues(kind, "error").Inc()
		c.log.Warn("Cache read failed", map[string]interface{}{"key": k, "error": err.Error()})
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return v, nil
	}
	if err := c.client.Set(ctx, k, data, c.ttl).Err(); err != nil {
		c.log.Warn("Cache write failed", map[string]interface{}{"key": k, "error": err.Error()})
	}
	return v, nil
}

// Invalidate drops every cached read model of userID.
func (c *Cache) Invalidate(ctx context.Context, userID string) {
	if c == nil || c.client == nil || userID == "" {
		return
	}
	keys := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		keys = append(keys, key(kind, userID))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("Cache invalidation failed", map[string]interface{}{"userId": userID, "error": err.Error()})
	}
}
