package grouping

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/squadforge/grouping-platform/internal/player"
)

const defaultResultTTL = 5 * time.Minute

// Cache is the Redis-backed ResultCache. Entries expire by TTL; this
// deliberately stays a short-lived cache rather than a durable store
// of grouping results.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ResultCache = (*Cache)(nil)

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultResultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// key derives a deterministic cache key from the full request: the
// normalized profiles (sorted by id so caller ordering doesn't
// fragment the cache), the system prompt, group size and goal. The
// whole payload goes into the digest; a profile attribute or prompt
// change within the TTL must never be served someone else's grouping.
func (c *Cache) key(req Request) string {
	profiles := append([]player.Profile(nil), req.Players...)
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].ID < profiles[j].ID
	})
	payload, _ := json.Marshal(struct {
		Players      []player.Profile `json:"players"`
		SystemPrompt string           `json:"systemPrompt,omitempty"`
	}{profiles, req.SystemPrompt})
	sum := sha256.Sum256(payload)
	return strings.Join([]string{
		"grouping",
		req.OptimizationGoal,
		fmt.Sprint(req.GroupSize),
		hex.EncodeToString(sum[:16]),
	}, ":")
}

func (c *Cache) Get(ctx context.Context, req Request) (*Response, error) {
	data, err := c.client.Get(ctx, c.key(req)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Cache) Set(ctx context.Context, req Request, resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(req), data, c.ttl).Err()
}
