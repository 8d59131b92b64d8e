package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when a key is not in the cache.
var ErrCacheMiss = errors.New("cache miss")

// KV stores json values in redis.
type KV struct {
	client *redis.Client
}

func NewKV(client *redis.Client) *KV {
	return &KV{client: client}
}

func (r *KV) Set(ctx context.Context, k string, v any, ttl time.Duration) error {
	value, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, k, value, ttl).Err()
}

// Get decodes the value under k into v.
func (r *KV) Get(ctx context.Context, k string, v any) error {
	res := r.client.Get(ctx, k)
	return decodeValue(res, v)
}

// Take decodes the value under k into v and deletes the key in the same step.
func (r *KV) Take(ctx context.Context, k string, v any) error {
	res := r.client.GetDel(ctx, k)
	return decodeValue(res, v)
}

func decodeValue(res *redis.StringCmd, v any) error {
	if res.Err() != nil {
		if errors.Is(res.Err(), redis.Nil) {
			return ErrCacheMiss
		}
		return res.Err()
	}

	buf, err := res.Bytes()
	if err != nil {
		return err
	}

	return json.Unmarshal(buf, v)
}
