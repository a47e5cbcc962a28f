package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisQuestionCache struct {
	rdb redis.UniversalClient
}

func NewRedisQuestionCache(rdb redis.UniversalClient) *RedisQuestionCache {
	return &RedisQuestionCache{rdb: rdb}
}

func (c *RedisQuestionCache) Get(ctx context.Context, key string) ([]string, bool, error) {
	s, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var qs []string
	if err := json.Unmarshal([]byte(s), &qs); err != nil || len(qs) == 0 {
		// corrupt entry: drop it and report a miss
		_ = c.rdb.Del(ctx, key).Err()
		return nil, false, nil
	}
	return qs, true, nil
}

func (c *RedisQuestionCache) Set(ctx context.Context, key string, questions []string, ttl time.Duration) error {
	if len(questions) == 0 {
		return nil
	}
	b, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, ttl).Err()
}
