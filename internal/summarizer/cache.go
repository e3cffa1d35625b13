package summarizer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// Cache remembers summaries by image content so repeated images (logos,
// headers) are only sent to the model once.
type Cache interface {
	Get(ctx context.Context, key string) ([]string, bool, error)
	Set(ctx context.Context, key string, summaries []string) error
}

// CacheKey is the hex SHA-256 of the image bytes.
func CacheKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type MemoryCache struct {
	mu    sync.RWMutex
	items map[string][]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string][]string)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	return append([]string(nil), v...), ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, summaries []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = append([]string(nil), summaries...)
	return nil
}

// RedisCache keeps summaries across runs, msgpack-encoded under a prefix.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, prefix: "image-summary:"}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]string, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var summaries []string
	if err := msgpack.Unmarshal(raw, &summaries); err != nil {
		return nil, false, fmt.Errorf("decode cached summary: %w", err)
	}
	return summaries, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, summaries []string) error {
	raw, err := msgpack.Marshal(summaries)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
