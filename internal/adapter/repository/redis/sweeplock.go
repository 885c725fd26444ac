package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SweepLock is a distributed try-lock for the sweep scheduler. It keeps
// overlapping daemon replicas from running the same global sweep at once;
// the sweeps themselves stay idempotent without it, the lock only avoids
// wasted passes. The TTL covers a holder that crashed without releasing.
type SweepLock struct {
	client *redis.Client
	prefix string
}

// NewSweepLock creates a new SweepLock.
func NewSweepLock(client *redis.Client) *SweepLock {
	return &SweepLock{
		client: client,
		prefix: "sweeplock:",
	}
}

// TryAcquire attempts to take the named lock for holder. Returns false when
// another holder owns it.
func (l *SweepLock) TryAcquire(ctx context.Context, name, holder string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, l.prefix+name, holder, ttl).Result()
}

// Release drops the named lock if holder still owns it. A lock that expired
// and was re-acquired by someone else is left alone.
func (l *SweepLock) Release(ctx context.Context, name, holder string) error {
	fullKey := l.prefix + name

	current, err := l.client.Get(ctx, fullKey).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if current != holder {
		return nil
	}

	return l.client.Del(ctx, fullKey).Err()
}
