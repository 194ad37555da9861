package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "msgboard:session:"

// RedisStore keeps each session as a Redis hash with a sliding expiry.
type RedisStore struct {
	rc *redis.Client
}

// NewRedisStore wraps an initialized client.
func NewRedisStore(rc *redis.Client) *RedisStore {
	return &RedisStore{rc: rc}
}

func (r *RedisStore) key(id string) string { return redisKeyPrefix + id }

func (r *RedisStore) Load(ctx context.Context, id string) (map[string]string, error) {
	vals, err := r.rc.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, ErrNotFound
	}
	return vals, nil
}

func (r *RedisStore) Save(ctx context.Context, id string, values map[string]string, ttl time.Duration) error {
	key := r.key(id)
	_, err := r.rc.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			args := make(map[string]interface{}, len(values))
			for k, v := range values {
				args[k] = v
			}
			pipe.HSet(ctx, key, args)
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	return err
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.rc.Del(ctx, r.key(id)).Err()
}
