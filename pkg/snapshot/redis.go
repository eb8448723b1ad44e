package snapshot

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flowgrid/flowgrid/pkg/errors"
)

const redisKeyPrefix = "flowgrid:snapshot:"

// RedisStore keeps records as JSON values in Redis, one key per record,
// plus a set of known ids for listing.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(id string) string { return redisKeyPrefix + id }

const redisIndexKey = redisKeyPrefix + "ids"

func (s *RedisStore) Get(ctx context.Context, id string) (*Record, error) {
	data, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "redis get")
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCorrupted, err, "parse stored snapshot")
	}
	return &rec, nil
}

func (s *RedisStore) Set(ctx context.Context, rec *Record) error {
	rec.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "marshal snapshot")
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, redisKey(rec.ID), data, 0)
	pipe.SAdd(ctx, redisIndexKey, rec.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "redis set")
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, redisKey(id))
	pipe.SRem(ctx, redisIndexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "redis delete")
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]Info, error) {
	ids, err := s.client.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "redis list")
	}

	var infos []Info
	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if errors.Is(err, errors.ErrCodeSnapshotNotFound) {
			// Index entry with no value, drop it lazily.
			s.client.SRem(ctx, redisIndexKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		infos = append(infos, rec.info())
	}
	sortInfos(infos)
	return infos, nil
}

// Ping verifies connectivity, for health checks.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "redis ping")
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
