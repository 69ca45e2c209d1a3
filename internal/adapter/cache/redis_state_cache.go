package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/usecase"
)

// RedisStateCache mirrors the latest order state so the storefront can poll
// payment progress without hitting MySQL. Best effort; misses fall through
// to the repo.
type RedisStateCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStateCache(rdb *redis.Client, ttl time.Duration) *RedisStateCache {
	return &RedisStateCache{rdb: rdb, ttl: ttl}
}

func (r *RedisStateCache) SetState(ctx context.Context, orderID string, state string) error {
	return r.rdb.Set(ctx, "order:state:"+orderID, state, r.ttl).Err()
}

func (r *RedisStateCache) GetState(ctx context.Context, orderID string) (string, bool, error) {
	val, err := r.rdb.Get(ctx, "order:state:"+orderID).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

var _ usecase.OrderCache = (*RedisStateCache)(nil)
