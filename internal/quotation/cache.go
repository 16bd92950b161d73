package quotation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheObserver counts cache lookups.
type CacheObserver interface {
	CacheResult(hit bool)
}

// Cache stores comparison views in Redis. A nil Cache or client computes
// every request through the loader.
type Cache struct {
	client   *redis.Client
	ttl      time.Duration
	observer CacheObserver
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration, observer CacheObserver) *Cache {
	return &Cache{client: client, ttl: ttl, observer: observer}
}

// FetchJSON loads a cached value or populates it using the loader.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		return roundTrip(value, dest)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		c.observe(true)
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return err
	}
	c.observe(false)
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Invalidate drops every cached comparison of a quotation.
func (c *Cache) Invalidate(ctx context.Context, quotationID string) error {
	if c == nil || c.client == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, "cotacao:comparacao:"+quotationID+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *Cache) observe(hit bool) {
	if c.observer != nil {
		c.observer.CacheResult(hit)
	}
}

func roundTrip(value, dest any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
