// Package repo holds the local storage behind the session controllers:
// the map side channel and the history cache, on Redis or in memory.
package repo

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	errx "github.com/krishthi-drishti/farmer-client/internal/core/error"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/model"
	logx "github.com/krishthi-drishti/farmer-client/pkg/logger"
)

// RedisSnapshotStore writes side-channel values as plain Redis strings so the
// map process can read them with a single GET.
type RedisSnapshotStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisSnapshotStore(rdb redis.Cmdable, ttl time.Duration) *RedisSnapshotStore {
	return &RedisSnapshotStore{rdb: rdb, ttl: ttl}
}

func (r *RedisSnapshotStore) Put(ctx context.Context, key string, value []byte) error {
	if err := r.rdb.Set(ctx, key, value, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to write snapshot")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisSnapshotStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, errx.WrapRedis(err)
	}
	return b, nil
}

var _ model.SnapshotStore = (*RedisSnapshotStore)(nil)

// MemorySnapshotStore keeps the side channel in process, for a map view
// embedded in the same binary.
type MemorySnapshotStore struct {
	c *cache.Cache
}

func NewMemorySnapshotStore(ttl time.Duration) *MemorySnapshotStore {
	return &MemorySnapshotStore{c: cache.New(ttl, 0)}
}

func (m *MemorySnapshotStore) Put(_ context.Context, key string, value []byte) error {
	m.c.SetDefault(key, append([]byte(nil), value...))
	return nil
}

func (m *MemorySnapshotStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, errx.ErrNotFound
	}
	return append([]byte(nil), v.([]byte)...), nil
}

var _ model.SnapshotStore = (*MemorySnapshotStore)(nil)
