// Package cache keeps master-data records in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"warehouse_ops_backend/internal/masterdata/repository"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "masterdata:product:"

// Cache is a Redis-backed product cache with a fixed TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a product cache.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func key(wsn string) string {
	return keyPrefix + wsn
}

// Get returns the cached product and whether it was present.
func (c *Cache) Get(ctx context.Context, wsn string) (repository.Product, bool, error) {
	data, err := c.client.Get(ctx, key(wsn)).Bytes()
	if errors.Is(err, redis.Nil) {
		return repository.Product{}, false, nil
	}
	if err != nil {
		return repository.Product{}, false, fmt.Errorf("cache get: %w", err)
	}

	var p repository.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return repository.Product{}, false, fmt.Errorf("cache decode: %w", err)
	}
	return p, true, nil
}

// Set stores a product.
func (c *Cache) Set(ctx context.Context, p repository.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	return c.client.Set(ctx, key(p.WSN), data, c.ttl).Err()
}

// Delete evicts a product.
func (c *Cache) Delete(ctx context.Context, wsn string) error {
	return c.client.Del(ctx, key(wsn)).Err()
}
