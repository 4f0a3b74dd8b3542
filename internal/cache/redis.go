package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/zagrebin/culinaryblog/pkg/config"
	"github.com/zagrebin/culinaryblog/pkg/logging"
)

// ErrCacheDisabled is returned when cache operations are attempted but the
// cache is disabled
var ErrCacheDisabled = fmt.Errorf("cache is disabled")

// Cache wraps the optional Redis client. A nil *Cache is valid and reports
// every operation as disabled.
type Cache struct {
	client *redis.Client
}

// New creates a new Redis cache client, or nil when disabled
func New(cfg *config.RedisConfig) (*Cache, error) {
	if !cfg.Enabled {
		logging.GetLogger().Info("Redis cache disabled")
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.GetLogger().Info("Redis connection established")

	return &Cache{client: client}, nil
}

// MarkPostViewed records that viewer has seen post, returning true only the
// first time within ttl. Backs once-per-viewer view counting.
func (c *Cache) MarkPostViewed(ctx context.Context, postID, viewerID int64, ttl time.Duration) (bool, error) {
	if c == nil || c.client == nil {
		return false, ErrCacheDisabled
	}
	key := fmt.Sprintf("post:viewed:%d:%d", postID, viewerID)
	return c.client.SetNX(ctx, key, 1, ttl).Result()
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Health checks Redis health
func (c *Cache) Health(ctx context.Context) error {
	if c == nil || c.client == nil {
		return ErrCacheDisabled
	}
	return c.client.Ping(ctx).Err()
}
