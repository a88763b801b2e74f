package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const (
	rateKeyPrefix        = "trm:"
	idempotencyKeyPrefix = "idempotency:"
	idempotencyKeyTTL    = 24 * time.Hour
)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) GetRate(ctx context.Context, key string) (*domain.Rate, error) {
	raw, err := r.client.Get(ctx, rateKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get rate %s: %w", key, err)
	}

	var rate domain.Rate
	if err := json.Unmarshal(raw, &rate); err != nil {
		// A corrupt entry is treated as a miss.
		return nil, nil
	}
	return &rate, nil
}

func (r *RedisAdapter) SetRate(ctx context.Context, key string, rate domain.Rate, ttl time.Duration) error {
	raw, err := json.Marshal(rate)
	if err != nil {
		return fmt.Errorf("encode rate: %w", err)
	}
	return r.client.Set(ctx, rateKeyPrefix+key, raw, ttl).Err()
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, idempotencyKeyPrefix+key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, idempotencyKeyPrefix+key).Err()
}

var (
	_ port.RateCache        = (*RedisAdapter)(nil)
	_ port.IdempotencyGuard = (*RedisAdapter)(nil)
)
