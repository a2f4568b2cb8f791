package webapi

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/steosofficial/koreanmorphy/config"
)

const cacheKeyPrefix = "koreanmorphy"

// Cache stores serialized analyses. A miss is not an error.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// CacheKey identifies an analysis of text by the named model.
func CacheKey(modelName string, spacing bool, text string) string {
	sum := sha1.Sum([]byte(text))
	return fmt.Sprintf("%s:%s|%t|%s", cacheKeyPrefix, modelName, spacing, hex.EncodeToString(sum[:]))
}

// RedisCache - Cache backed by Redis with a fixed entry lifetime.
type RedisCache struct {
	c   *redis.Client
	ttl time.Duration
}

func NewRedisCache(conf *config.RedisConf) *RedisCache {
	return &RedisCache{
		c: redis.NewClient(&redis.Options{
			Addr:     conf.Addr,
			Password: conf.Password,
			DB:       conf.DB,
		}),
		ttl: conf.TTL(),
	}
}

// TestConnection pings Redis until it answers or timeout passes.
func (rc *RedisCache) TestConnection(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		err := rc.c.Ping(ctx).Err()
		if err == nil {
			log.Info().Str("addr", rc.c.Options().Addr).Msg("connected to Redis")
			return nil
		}
		log.Warn().Err(err).Msg("Redis not ready, retrying")
		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to connect to Redis: %w", err)
		case <-ticker.C:
		}
	}
}

func (rc *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := rc.c.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cache: %w", err)
	}
	return val, true, nil
}

func (rc *RedisCache) Set(ctx context.Context, key, value string) error {
	if err := rc.c.Set(ctx, key, value, rc.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

func (rc *RedisCache) Close() error {
	return rc.c.Close()
}
