// Package lock serializes ledger mutations per product. The HTTP layer takes the
// product's lock around consume, revert and return calls; expiry marking takes
// it through ProductGuard.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"lotledger/internal/core/apperror"
	"lotledger/internal/core/id"
	"lotledger/pkg/logger"
)

// ErrBusy is returned when the lock stays held past the wait budget.
var ErrBusy = errors.New("lock busy")

// Releaser frees an acquired lock.
type Releaser func(ctx context.Context)

// Locker acquires named exclusive locks.
type Locker interface {
	Acquire(ctx context.Context, key string) (Releaser, error)
}

// Observer is told about every acquisition attempt.
type Observer interface {
	LockAttempt(outcome string)
}

// ProductKey builds the lock key for a product.
func ProductKey(productID string) string {
	return "lotledger:product:" + productID
}

// ProductGuard adapts l to the ledger's per-product guard.
func ProductGuard(l Locker) func(ctx context.Context, productID id.ID, fn func(ctx context.Context) error) error {
	return func(ctx context.Context, productID id.ID, fn func(ctx context.Context) error) error {
		return Do(ctx, l, ProductKey(productID.String()), fn)
	}
}

// Do runs fn while holding key. ErrBusy becomes a CONFLICT AppError.
func Do(ctx context.Context, l Locker, key string, fn func(ctx context.Context) error) error {
	release, err := l.Acquire(ctx, key)
	if err != nil {
		if errors.Is(err, ErrBusy) {
			return apperror.NewConflict("resource is locked by another operation, retry later").
				WithDetail("lock", key)
		}
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer release(context.WithoutCancel(ctx))

	return fn(ctx)
}

// RedisLocker uses redislock so several server instances share one lock space.
type RedisLocker struct {
	client   *redislock.Client
	ttl      time.Duration
	wait     time.Duration
	observer Observer
}

// NewRedisLocker creates a locker holding keys for ttl and retrying for up to wait.
func NewRedisLocker(rdb redis.UniversalClient, ttl, wait time.Duration, observer Observer) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb), ttl: ttl, wait: wait, observer: observer}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (Releaser, error) {
	backoff := 50 * time.Millisecond
	retries := int(l.wait / backoff)

	lk, err := l.client.Obtain(ctx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(backoff), retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		l.observe("busy")
		return nil, ErrBusy
	}
	if err != nil {
		return nil, err
	}
	l.observe("acquired")

	return func(ctx context.Context) {
		if err := lk.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.Warn(ctx, "failed to release redis lock", "key", key, "error", err)
		}
	}, nil
}

func (l *RedisLocker) observe(outcome string) {
	if l.observer != nil {
		l.observer.LockAttempt(outcome)
	}
}
