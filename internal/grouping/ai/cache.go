package ai

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultEmbeddingTTL = 30 * time.Minute

// EmbeddingCache stores per-profile feature vectors keyed by profile
// id. Injected so the client stays side-effect-free in tests; the
// Redis implementation evicts by TTL.
type EmbeddingCache interface {
	Get(ctx context.Context, profileID string) ([]float64, bool)
	Set(ctx context.Context, profileID string, vec []float64)
}

// RedisEmbeddingCache is the production EmbeddingCache.
type RedisEmbeddingCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ EmbeddingCache = (*RedisEmbeddingCache)(nil)

func NewRedisEmbeddingCache(client *redis.Client, ttl time.Duration) *RedisEmbeddingCache {
	if ttl <= 0 {
		ttl = defaultEmbeddingTTL
	}
	return &RedisEmbeddingCache{client: client, ttl: ttl}
}

func (c *RedisEmbeddingCache) key(profileID string) string {
	return "embedding:" + profileID
}

func (c *RedisEmbeddingCache) Get(ctx context.Context, profileID string) ([]float64, bool) {
	data, err := c.client.Get(ctx, c.key(profileID)).Bytes()
	if err != nil {
		return nil, false
	}
	var vec []float64
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, false
	}
	return vec, true
}

// Set stores the vector best-effort; cache write failures never block
// a grouping call.
func (c *RedisEmbeddingCache) Set(ctx context.Context, profileID string, vec []float64) {
	data, err := json.Marshal(vec)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.key(profileID), data, c.ttl).Err()
}
