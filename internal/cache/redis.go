package cache

import (
	"context"
	"errors"
	"time"

	"github.com/emrgen/ingest/internal/compress"
	"github.com/emrgen/ingest/internal/model"
	"github.com/emrgen/ingest/internal/preview"
	redis "github.com/redis/go-redis/v9"
)

const recordTTL = time.Hour

func recordKey(id string) string {
	return "record:" + id
}

func previewKey(token string) string {
	return "preview:" + token
}

// NewRedisClient connects to the redis server at addr.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // No password set
		DB:       0,  // Use default DB
		Protocol: 2,  // Connection protocol
	})
}

var _ RecordCache = (*RedisRecordCache)(nil)

// RedisRecordCache keeps encoded records in redis. Records never change once stored,
// so entries only leave the cache by expiry.
type RedisRecordCache struct {
	client  *redis.Client
	encoder compress.Compress
}

func NewRedisRecordCache(client *redis.Client, encoder compress.Compress) *RedisRecordCache {
	if encoder == nil {
		encoder = compress.NewNop()
	}

	return &RedisRecordCache{client: client, encoder: encoder}
}

func (r *RedisRecordCache) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	res := r.client.Get(ctx, recordKey(id))
	if res.Err() != nil {
		if errors.Is(res.Err(), redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, res.Err()
	}

	buf, err := res.Bytes()
	if err != nil {
		return nil, err
	}

	data, err := r.encoder.Decode(buf)
	if err != nil {
		return nil, err
	}

	return model.UnmarshalRecord(data)
}

func (r *RedisRecordCache) SetRecord(ctx context.Context, record *model.Record) error {
	marshal, err := record.MarshalBinary()
	if err != nil {
		return err
	}

	data, err := r.encoder.Encode(marshal)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, recordKey(record.ID), data, recordTTL).Err()
}

var _ preview.Channel = (*RedisChannel)(nil)

// RedisChannel passes preview hand-offs through redis so any server instance can take them.
type RedisChannel struct {
	kv  *KV
	ttl time.Duration
}

func NewRedisChannel(client *redis.Client, ttl time.Duration) *RedisChannel {
	if ttl <= 0 {
		ttl = preview.DefaultTTL
	}

	return &RedisChannel{kv: NewKV(client), ttl: ttl}
}

func (r *RedisChannel) Put(ctx context.Context, handoff preview.Handoff) (string, error) {
	handoff = preview.Prepare(handoff)
	if err := r.kv.Set(ctx, previewKey(handoff.Token), handoff, r.ttl); err != nil {
		return "", err
	}

	return handoff.Token, nil
}

func (r *RedisChannel) Take(ctx context.Context, token string) (preview.Handoff, error) {
	var handoff preview.Handoff
	err := r.kv.Take(ctx, previewKey(token), &handoff)
	if errors.Is(err, ErrCacheMiss) {
		return preview.Handoff{}, preview.ErrHandoffNotFound
	}
	if err != nil {
		return preview.Handoff{}, err
	}

	return handoff, nil
}
