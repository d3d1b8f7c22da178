package challenge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPoolTTL = 15 * time.Minute

// PoolCache keeps completed question pools in Redis so the read endpoint
// doesn't hit Postgres on every poll. Only complete records are cached; an
// in-progress day always reads fresh.
type PoolCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPoolCache(client *redis.Client, ttl time.Duration) *PoolCache {
	if ttl <= 0 {
		ttl = defaultPoolTTL
	}
	return &PoolCache{client: client, ttl: ttl}
}

func (c *PoolCache) key(date string) string {
	return "challenge:pool:" + date
}

func (c *PoolCache) Get(ctx context.Context, date string) ([]Question, error) {
	data, err := c.client.Get(ctx, c.key(date)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (c *PoolCache) Set(ctx context.Context, date string, questions []Question) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(date), data, c.ttl).Err()
}
