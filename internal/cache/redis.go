package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/travelbooking/config"
	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client          *redis.Client
	destinationsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, destinationsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:          redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		destinationsTTL: destinationsTTL,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetDestinations returns nil, nil on a cache miss.
func (c *RedisCache) GetDestinations(ctx context.Context) ([]domain.Destination, error) {
	data, err := c.client.Get(ctx, destinationsKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var destinations []domain.Destination
	if err := json.Unmarshal(data, &destinations); err != nil {
		return nil, err
	}
	return destinations, nil
}

func (c *RedisCache) SetDestinations(ctx context.Context, destinations []domain.Destination) error {
	payload, err := json.Marshal(destinations)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, destinationsKey(), payload, c.destinationsTTL).Err()
}

func (c *RedisCache) InvalidateDestinations(ctx context.Context) error {
	return c.client.Del(ctx, destinationsKey()).Err()
}

// AcquireDestinationLock sets the lock key only if it is absent. The returned
// token must be handed back to ReleaseDestinationLock.
func (c *RedisCache) AcquireDestinationLock(ctx context.Context, destinationID string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, destinationLockKey(destinationID), token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// releaseLock deletes the key only while it still holds our token, so an
// expired lock taken over by another request is left alone.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (c *RedisCache) ReleaseDestinationLock(ctx context.Context, destinationID, token string) error {
	err := releaseLock.Run(ctx, c.client, []string{destinationLockKey(destinationID)}, token).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

func destinationsKey() string {
	return "cache:destinations"
}

func destinationLockKey(destinationID string) string {
	return fmt.Sprintf("lock:destination:%s:booking", destinationID)
}
