package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/sirupsen/logrus"
)

// DestinationLocker serializes booking creation per destination. The
// returned unlock func must be called exactly once.
type DestinationLocker interface {
	LockDestination(ctx context.Context, destinationID string) (unlock func(), err error)
}

// LocalLocker is an in-process DestinationLocker for single-instance
// deployments. Waiting is bounded by ctx and the configured wait.
type LocalLocker struct {
	wait  time.Duration
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{wait: wait, slots: make(map[string]chan struct{})}
}

func (l *LocalLocker) LockDestination(ctx context.Context, destinationID string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[destinationID]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[destinationID] = slot
	}
	l.mu.Unlock()

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case slot <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-slot }) }, nil
	case <-timer.C:
		return nil, domain.ErrBookingInProgress
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// LockCache is the subset of the Redis cache used for distributed locks.
type LockCache interface {
	AcquireDestinationLock(ctx context.Context, destinationID string, ttl time.Duration) (string, bool, error)
	ReleaseDestinationLock(ctx context.Context, destinationID, token string) error
}

// RedisLocker holds a Redis lock per destination so several API instances
// serialize on the same key.
type RedisLocker struct {
	cache      LockCache
	ttl        time.Duration
	wait       time.Duration
	retryEvery time.Duration
	logger     *logrus.Logger
}

func NewRedisLocker(cache LockCache, ttl, wait time.Duration, logger *logrus.Logger) *RedisLocker {
	return &RedisLocker{cache: cache, ttl: ttl, wait: wait, retryEvery: 25 * time.Millisecond, logger: logger}
}

func (l *RedisLocker) LockDestination(ctx context.Context, destinationID string) (func(), error) {
	deadline := time.Now().Add(l.wait)
	for {
		token, ok, err := l.cache.AcquireDestinationLock(ctx, destinationID, l.ttl)
		if err != nil {
			return nil, fmt.Errorf("%w: acquire destination lock: %v", domain.ErrStorageUnavailable, err)
		}
		if ok {
			var once sync.Once
			return func() {
				once.Do(func() {
					releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
					defer cancel()
					if err := l.cache.ReleaseDestinationLock(releaseCtx, destinationID, token); err != nil {
						l.logger.WithError(err).WithField("destination_id", destinationID).Warn("release destination lock")
					}
				})
			}, nil
		}

		if !time.Now().Before(deadline) {
			return nil, domain.ErrBookingInProgress
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryEvery):
		}
	}
}

var (
	_ DestinationLocker = (*LocalLocker)(nil)
	_ DestinationLocker = (*RedisLocker)(nil)
)
