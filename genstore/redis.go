package genstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisGenStore shares region generations across processes, so a region flush
// issued by one node invalidates the in-process entries of every node.
// Generation keys never expire: an expired generation would read back as 0 and
// resurrect entries written before the flush.
type RedisGenStore struct {
	rdb         redis.UniversalClient
	ns          string
	closeClient bool
}

var _ GenStore = (*RedisGenStore)(nil)

// NewRedisGenStore creates a Redis-backed generation store. namespace keeps
// generations of unrelated caches apart.
func NewRedisGenStore(client redis.UniversalClient, namespace string) *RedisGenStore {
	return &RedisGenStore{rdb: client, ns: namespace}
}

// NewOwnedRedisGenStore is like NewRedisGenStore but Close also closes client.
func NewOwnedRedisGenStore(client redis.UniversalClient, namespace string) *RedisGenStore {
	return &RedisGenStore{rdb: client, ns: namespace, closeClient: true}
}

func (s *RedisGenStore) key(region string) string { return "gen:" + s.ns + ":" + region }

// Current returns the region generation.
// Missing keys are treated as generation 0.
func (s *RedisGenStore) Current(ctx context.Context, region string) (uint64, error) {
	res, err := s.rdb.Get(ctx, s.key(region)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	u, err := strconv.ParseUint(res, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis gen parse: %w", err)
	}
	return u, nil
}

func (s *RedisGenStore) Bump(ctx context.Context, region string) (uint64, error) {
	return s.rdb.Incr(ctx, s.key(region)).Uint64()
}

func (s *RedisGenStore) Close(context.Context) error {
	if !s.closeClient {
		return nil
	}
	return s.rdb.Close()
}
