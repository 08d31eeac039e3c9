package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type redisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) Cache {
	return &redisCache{client: client}
}

// Connect parses a redis:// url and pings the server once.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%w, invalid redis url, %w", potd_errors.ErrInternal, err)
	}

	client := redis.NewClient(opts)
	if _, err = client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w, cannot reach redis at %s, %w", potd_errors.ErrInternal, opts.Addr, err)
	}
	log.Infof("connected to redis at %s", opts.Addr)
	return client, nil
}

func (r *redisCache) Get(ctx context.Context, key string, dest any) error {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return err // includes redis.Nil if not found
	}
	return json.Unmarshal([]byte(val), dest)
}

func (r *redisCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

func (r *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func IsMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}
