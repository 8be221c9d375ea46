package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/matchbooking/config"
	"github.com/Domenick1991/matchbooking/internal/domain"
	"github.com/Domenick1991/matchbooking/internal/timeutil"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client          *redis.Client
	availabilityTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, availabilityTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:          redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		availabilityTTL: availabilityTTL,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetAvailability returns the cached windows of owner for [from, to], or
// nil with no error on a miss.
func (c *RedisCache) GetAvailability(ctx context.Context, ownerID string, from, to timeutil.Date) ([]domain.AvailabilityWindow, error) {
	data, err := c.client.HGet(ctx, availabilityKey(ownerID), rangeField(from, to)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	windows := make([]domain.AvailabilityWindow, 0)
	if err := json.Unmarshal(data, &windows); err != nil {
		return nil, err
	}
	return windows, nil
}

func (c *RedisCache) SetAvailability(ctx context.Context, ownerID string, from, to timeutil.Date, windows []domain.AvailabilityWindow) error {
	payload, err := json.Marshal(windows)
	if err != nil {
		return err
	}
	key := availabilityKey(ownerID)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, rangeField(from, to), payload)
	pipe.Expire(ctx, key, c.availabilityTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// InvalidateAvailability drops every cached range of owner.
func (c *RedisCache) InvalidateAvailability(ctx context.Context, ownerID string) error {
	return c.client.Del(ctx, availabilityKey(ownerID)).Err()
}

// releaseClaimLockScript deletes the lock only while it still holds the
// caller's token.
var releaseClaimLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AcquireClaimLock takes a short lock on a user's time starting at start and
// returns the token that must be presented to release it.
func (c *RedisCache) AcquireClaimLock(ctx context.Context, userID string, start time.Time, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, claimLockKey(userID, start), token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// ReleaseClaimLock drops the lock if token still owns it. A lock that
// expired and was taken by another request is left alone.
func (c *RedisCache) ReleaseClaimLock(ctx context.Context, userID string, start time.Time, token string) error {
	return releaseClaimLockScript.Run(ctx, c.client, []string{claimLockKey(userID, start)}, token).Err()
}

func availabilityKey(ownerID string) string {
	return "cache:availability:" + ownerID
}

func rangeField(from, to timeutil.Date) string {
	return from.String() + ":" + to.String()
}

func claimLockKey(userID string, start time.Time) string {
	return fmt.Sprintf("lock:user:%s:at:%d", userID, start.UTC().Unix())
}
