package locks

import (
	"context"
	"sync"
	"time"
)

// LocalLocker is an in-process Locker for single-instance deployments and
// tests.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]localLease
	seq  uint64
	opts Options
}

type localLease struct {
	id      uint64
	expires time.Time
}

func NewLocalLocker(opts Options) *LocalLocker {
	return &LocalLocker{held: map[string]localLease{}, opts: opts.withDefaults()}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	var id uint64
	err := poll(ctx, l.opts, func() (bool, error) {
		l.mu.Lock()
		defer l.mu.Unlock()

		now := time.Now()
		if cur, ok := l.held[key]; ok && now.Before(cur.expires) {
			return false, nil
		}
		l.seq++
		id = l.seq
		l.held[key] = localLease{id: id, expires: now.Add(l.opts.TTL)}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if cur, ok := l.held[key]; ok && cur.id == id {
			delete(l.held, key)
		}
	}, nil
}
