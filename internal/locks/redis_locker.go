package locks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type RedisLocker struct {
	rdb  redis.UniversalClient
	opts Options
}

func NewRedisLocker(rdb redis.UniversalClient, opts Options) *RedisLocker {
	return &RedisLocker{rdb: rdb, opts: opts.withDefaults()}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	err := poll(ctx, l.opts, func() (bool, error) {
		return l.rdb.SetNX(ctx, key, token, l.opts.TTL).Result()
	})
	if err != nil {
		return nil, err
	}

	release := func() {
		// release must work even when the request context is gone
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(rctx, l.rdb, []string{key}, token).Err()
	}
	return release, nil
}
