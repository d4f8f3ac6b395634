package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache implements the domain.Cache interface using Redis.
// It provides key-value storage with TTL support and prefix-based namespacing.
type Cache struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
}

// NewCache creates a new Redis cache instance.
// keyPrefix namespaces all keys to prevent collisions with other applications.
func NewCache(client *redis.Client, logger *zap.Logger, keyPrefix string) *Cache {
	return &Cache{
		client:    client,
		logger:    logger,
		keyPrefix: keyPrefix,
	}
}

// Get retrieves a value by key. Returns nil if the key doesn't exist.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	fullKey := c.buildKey(key)

	data, err := c.client.Get(ctx, fullKey).Bytes()
	if err == redis.Nil {
		// Key doesn't exist - this is not an error condition
		return nil, nil
	}
	if err != nil {
		c.logger.Error("cache get failed",
			zap.String("key", key),
			zap.Error(err),
		)

		return nil, err
	}

	return data, nil
}

// Set stores a value with the given TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	fullKey := c.buildKey(key)

	if err := c.client.Set(ctx, fullKey, value, ttl).Err(); err != nil {
		c.logger.Error("cache set failed",
			zap.String("key", key),
			zap.Duration("ttl", ttl),
			zap.Error(err),
		)

		return err
	}

	return nil
}

// Delete removes a value by key. Returns nil if the key doesn't exist.
func (c *Cache) Delete(ctx context.Context, key string) error {
	fullKey := c.buildKey(key)

	if err := c.client.Del(ctx, fullKey).Err(); err != nil {
		c.logger.Error("cache delete failed",
			zap.String("key", key),
			zap.Error(err),
		)

		return err
	}

	return nil
}

func (c *Cache) buildKey(key string) string {
	return c.keyPrefix + ":" + key
}
