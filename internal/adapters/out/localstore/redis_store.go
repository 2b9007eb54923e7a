// backend/internal/adapters/out/localstore/redis_store.go
package localstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	devicedom "sripavan/internal/domain/device"
)

// DefaultRedisTTL is how long an untouched device hash survives.
const DefaultRedisTTL = 30 * 24 * time.Hour

// RedisFactory stores every device as one hash: <prefix>device:<id>.
type RedisFactory struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisFactory(client redis.Cmdable, prefix string, ttl time.Duration) *RedisFactory {
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &RedisFactory{client: client, prefix: prefix, ttl: ttl}
}

func (f *RedisFactory) ForDevice(deviceID string) (devicedom.Store, error) {
	if f == nil || f.client == nil {
		return nil, errors.New("localstore: redis client is nil")
	}
	id, err := devicedom.NormalizeID(deviceID)
	if err != nil {
		return nil, err
	}
	return &RedisStore{client: f.client, key: f.key(id), ttl: f.ttl}, nil
}

func (f *RedisFactory) key(id string) string {
	return f.prefix + "device:" + id
}

// RedisStore is a device.Store over a Redis hash.
type RedisStore struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

func (s *RedisStore) Get(ctx context.Context, field string) (string, bool, error) {
	v, err := s.client.HGet(ctx, s.key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set writes the field and pushes the hash expiry forward.
func (s *RedisStore) Set(ctx context.Context, field, value string) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, s.key, field, value)
		p.Expire(ctx, s.key, s.ttl)
		return nil
	})
	return err
}

func (s *RedisStore) Remove(ctx context.Context, field string) error {
	return s.client.HDel(ctx, s.key, field).Err()
}

var _ devicedom.StoreFactory = (*RedisFactory)(nil)
