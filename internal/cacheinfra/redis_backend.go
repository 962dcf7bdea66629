package cacheinfra

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-method-cache/cache"
)

// clearScanBatch is how many keys a namespace wipe deletes per round trip.
const clearScanBatch = 100

// RedisBackend is the remote cache.Backend. Values cross the wire as
// msgpack (see Codec); reads hand back cache.Raw and leave decoding to the
// typed edge. Every key is namespaced so Clear only ever touches entries
// this cache wrote.
type RedisBackend struct {
	client    *redis.Client
	namespace string
	codec     Codec
}

var _ cache.Backend = (*RedisBackend)(nil)

// NewRedisBackend connects to redis using the redis section of the cache
// configuration and verifies the connection with a ping.
func NewRedisBackend(cfg cache.Config) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrapf(err, "connecting to redis at %s", cfg.Redis.Addr)
	}

	return &RedisBackend{
		client:    client,
		namespace: cfg.Namespace,
		codec:     DefaultCodec,
	}, nil
}

func (b *RedisBackend) Read(ctx context.Context, key string) (any, bool, error) {
	data, err := b.client.Get(ctx, b.fullKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get")
	}
	return cache.Raw(data), true, nil
}

func (b *RedisBackend) ReadBatch(ctx context.Context, keys []string) (map[string]any, error) {
	if len(keys) == 0 {
		return map[string]any{}, nil
	}

	fullKeys := make([]string, len(keys))
	for i, key := range keys {
		fullKeys[i] = b.fullKey(key)
	}

	values, err := b.client.MGet(ctx, fullKeys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redis mget")
	}

	out := make(map[string]any, len(keys))
	for i, value := range values {
		// MGET reports absent keys as nil slots.
		s, ok := value.(string)
		if !ok {
			continue
		}
		out[keys[i]] = cache.Raw(s)
	}
	return out, nil
}

func (b *RedisBackend) Write(ctx context.Context, key string, value any, ttl cache.Expiry) error {
	if ttl.IsDisabled() {
		return nil
	}
	data, err := b.codec.Marshal(value)
	if err != nil {
		return err
	}
	// go-redis expresses "no expiry" as a zero duration, which is exactly
	// what Duration returns for Forever.
	if err := b.client.Set(ctx, b.fullKey(key), data, ttl.Duration()).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

func (b *RedisBackend) WriteBatch(ctx context.Context, entries map[string]any, ttl cache.Expiry) error {
	if ttl.IsDisabled() || len(entries) == 0 {
		return nil
	}

	pipe := b.client.Pipeline()
	for key, value := range entries {
		data, err := b.codec.Marshal(value)
		if err != nil {
			return err
		}
		pipe.Set(ctx, b.fullKey(key), data, ttl.Duration())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "redis pipelined set")
	}
	return nil
}

// Remove expands every key into the DEL call. Each element is deleted on
// its own; the key list is never collapsed into one stringified value.
func (b *RedisBackend) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	fullKeys := make([]string, len(keys))
	for i, key := range keys {
		fullKeys[i] = b.fullKey(key)
	}
	if err := b.client.Del(ctx, fullKeys...).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}
	return nil
}

// Clear scans the backend's own namespace and deletes what it finds. Other
// tenants of the same redis instance are never touched.
func (b *RedisBackend) Clear(ctx context.Context) error {
	pattern := b.namespace + ":*"
	iter := b.client.Scan(ctx, 0, pattern, clearScanBatch).Iterator()

	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= clearScanBatch {
			if err := b.client.Del(ctx, batch...).Err(); err != nil {
				return errors.Wrap(err, "redis del during clear")
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "redis scan during clear")
	}
	if len(batch) > 0 {
		if err := b.client.Del(ctx, batch...).Err(); err != nil {
			return errors.Wrap(err, "redis del during clear")
		}
	}
	return nil
}

// Close releases the underlying connection pool.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}

func (b *RedisBackend) fullKey(key string) string {
	return b.namespace + ":" + key
}
