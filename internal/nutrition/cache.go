package nutrition

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/recipebox/webapp/config"
	"github.com/recipebox/webapp/types"
	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyPrefix  = "nutrition:"
	defaultCacheTTL = 24 * time.Hour
)

// RedisCache stores analyzed nutrition results in Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to cfg.Addr. It returns nil when no address is set.
func NewRedisCache(cfg config.RedisConfig, ttl time.Duration) *RedisCache {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the cached result for key. A miss is reported with found=false
// and a nil error.
func (c *RedisCache) Get(ctx context.Context, key string) (types.Nutrition, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return types.Nutrition{}, false, nil
	}
	if err != nil {
		return types.Nutrition{}, false, err
	}

	var n types.Nutrition
	if err := json.Unmarshal(raw, &n); err != nil {
		return types.Nutrition{}, false, err
	}
	return n, true, nil
}

// Set stores n under key with the cache TTL.
func (c *RedisCache) Set(ctx context.Context, key string, n types.Nutrition) error {
	raw, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Close closes the Redis connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// CacheKey derives the cache key for a title and its ingredient lines.
func CacheKey(title string, lines []string) string {
	h := sha256.New()
	h.Write([]byte(title))
	for _, line := range lines {
		h.Write([]byte{0})
		h.Write([]byte(line))
	}
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}
