package locks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fast = Options{TTL: time.Second, Wait: 100 * time.Millisecond, Retry: 5 * time.Millisecond}

func newRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisLocker(rdb, fast), mr
}

func lockers(t *testing.T) map[string]Locker {
	rl, _ := newRedisLocker(t)
	return map[string]Locker{
		"redis": rl,
		"local": NewLocalLocker(fast),
	}
}

func TestLocker_ExclusiveUntilReleased(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := InterviewKey("abc")

			release, err := l.Acquire(ctx, key)
			require.NoError(t, err)

			_, err = l.Acquire(ctx, key)
			assert.ErrorIs(t, err, ErrNotAcquired)

			// other keys are independent
			releaseOther, err := l.Acquire(ctx, InterviewKey("def"))
			require.NoError(t, err)
			releaseOther()

			release()
			release2, err := l.Acquire(ctx, key)
			require.NoError(t, err)
			release2()
		})
	}
}

func TestLocker_SerializesConcurrentHolders(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				inside  int
				maxSeen int
			)
			opts := Options{TTL: time.Second, Wait: 2 * time.Second, Retry: time.Millisecond}
			if rl, ok := l.(*RedisLocker); ok {
				l = NewRedisLocker(rl.rdb, opts)
			} else {
				l = NewLocalLocker(opts)
			}

			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					release, err := l.Acquire(context.Background(), "k")
					if !assert.NoError(t, err) {
						return
					}
					mu.Lock()
					inside++
					if inside > maxSeen {
						maxSeen = inside
					}
					mu.Unlock()

					time.Sleep(2 * time.Millisecond)

					mu.Lock()
					inside--
					mu.Unlock()
					release()
				}()
			}
			wg.Wait()
			assert.Equal(t, 1, maxSeen)
		})
	}
}

func TestRedisLocker_StaleReleaseKeepsNewOwner(t *testing.T) {
	l, mr := newRedisLocker(t)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "k")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	release2, err := l.Acquire(ctx, "k")
	require.NoError(t, err)

	release()
	assert.True(t, mr.Exists("k"), "stale release must not drop the new holder")
	release2()
	assert.False(t, mr.Exists("k"))
}

func TestLocker_ContextCancelled(t *testing.T) {
	l := NewLocalLocker(Options{Wait: time.Minute, Retry: time.Millisecond})
	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
