// Package locks serializes turns on one interview across requests and
// processes.
package locks

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrNotAcquired is returned when the lock stays held past the wait budget.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker hands out exclusive, expiring locks by key. Release is safe to call
// after expiry; it never frees a lock taken over by someone else.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type Options struct {
	// TTL bounds how long a crashed holder can block others.
	TTL time.Duration
	// Wait is the longest Acquire polls before giving up.
	Wait time.Duration
	// Retry is the poll interval while waiting.
	Retry time.Duration
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = 2 * time.Minute
	}
	if o.Wait <= 0 {
		o.Wait = 30 * time.Second
	}
	if o.Retry <= 0 {
		o.Retry = 50 * time.Millisecond
	}
	return o
}

// InterviewKey is the lock key for one interview session.
func InterviewKey(interviewID string) string { return "lock:interview:" + interviewID }

var errBusy = errors.New("lock busy")

// poll retries try until it succeeds, the wait budget runs out, or ctx ends.
func poll(ctx context.Context, opts Options, try func() (bool, error)) error {
	deadline := time.Now().Add(opts.Wait)
	op := func() error {
		ok, err := try()
		if err != nil {
			return backoff.Permanent(err)
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return backoff.Permanent(ErrNotAcquired)
		}
		return errBusy
	}
	return backoff.Retry(op, backoff.WithContext(backoff.NewConstantBackOff(opts.Retry), ctx))
}
