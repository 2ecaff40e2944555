package redisstore

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-ddd-library/internal/domain/repository"
	"github.com/oksasatya/go-ddd-library/pkg/helpers"
)

// Store keeps every collection as one Redis string holding its JSON array.
// Keys never expire.
type Store struct {
	rdb    *redis.Client
	prefix string
}

func NewStore(rdb *redis.Client, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix}
}

func (s *Store) redisKey(key repository.CollectionKey) string {
	return s.prefix + string(key)
}

func (s *Store) Read(ctx context.Context, key repository.CollectionKey) ([]byte, error) {
	data, _, err := helpers.RedisGetBytes(ctx, s.rdb, s.redisKey(key))
	return data, err
}

func (s *Store) Write(ctx context.Context, key repository.CollectionKey, data []byte) error {
	return helpers.RedisSetBytes(ctx, s.rdb, s.redisKey(key), data, 0)
}

// Drop removes a collection so the next Read sees it as never written.
func (s *Store) Drop(ctx context.Context, key repository.CollectionKey) error {
	return helpers.RedisDel(ctx, s.rdb, s.redisKey(key))
}

var (
	_ repository.CollectionStore   = (*Store)(nil)
	_ repository.CollectionDropper = (*Store)(nil)
)
