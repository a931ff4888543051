package redis

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"

	"github.com/redis/go-redis/v9"
)

// ResponseCache stores decoded question source responses in Redis so every
// instance shares them. Keys are written without expiry: stale batches are
// acceptable and nothing is evicted by this cache.
//
//	SET quiz:questions:{sha1(requestKey)} {json}
type ResponseCache struct {
	client *redis.Client
}

func NewResponseCache(client *redis.Client) *ResponseCache {
	return &ResponseCache{client: client}
}

func (c *ResponseCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (c *ResponseCache) Set(ctx context.Context, key string, value []byte) error {
	return c.client.Set(ctx, c.key(key), value, 0).Err()
}

func (c *ResponseCache) key(requestKey string) string {
	sum := sha1.Sum([]byte(requestKey))
	return "quiz:questions:" + hex.EncodeToString(sum[:])
}
