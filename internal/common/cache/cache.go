package cache

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	apperrors "shift-exchange-backend/internal/common/errors"
	"shift-exchange-backend/internal/platform/redis"
)

// HTTPPrefix namespaces cached GET responses.
const HTTPPrefix = "httpcache:"

type CacheService struct {
	redisClient *redis.Client
}

func NewCacheService(redisClient *redis.Client) *CacheService {
	return &CacheService{
		redisClient: redisClient,
	}
}

// GetBytes returns the raw value; ok is false on a miss.
func (c *CacheService) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.redisClient.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *CacheService) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.redisClient.Set(ctx, key, value, ttl).Err()
}

// DeletePattern removes every key matching pattern, scanning incrementally.
func (c *CacheService) DeletePattern(ctx context.Context, pattern string) error {
	iter := c.redisClient.Scan(ctx, 0, pattern, 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := c.redisClient.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return c.redisClient.Del(ctx, batch...).Err()
	}
	return nil
}

// InvalidateOffers drops cached offer listings after a write.
func (c *CacheService) InvalidateOffers(ctx context.Context) error {
	if err := c.DeletePattern(ctx, HTTPPrefix+"*"); err != nil {
		return apperrors.NewCacheError("invalidate offer listings", err)
	}
	return nil
}
