package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "vkbot"

// RedisStorage keeps state in Redis so it survives restarts and can be
// shared between bot instances.
type RedisStorage struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisStorage(rdb redis.UniversalClient) *RedisStorage {
	return &RedisStorage{rdb: rdb, prefix: defaultKeyPrefix}
}

// WithPrefix overrides the key namespace. Useful when several bots
// share one Redis database.
func (s *RedisStorage) WithPrefix(prefix string) *RedisStorage {
	if prefix != "" {
		s.prefix = prefix
	}
	return s
}

func (s *RedisStorage) stateKey(userID int64) string {
	return fmt.Sprintf("%s:state:%d", s.prefix, userID)
}

func (s *RedisStorage) dataKey(userID int64) string {
	return fmt.Sprintf("%s:data:%d", s.prefix, userID)
}

func (s *RedisStorage) State(ctx context.Context, userID int64) (string, error) {
	val, err := s.rdb.Get(ctx, s.stateKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("state: redis get: %w", err)
	}
	return val, nil
}

func (s *RedisStorage) SetState(ctx context.Context, userID int64, state string) error {
	if err := s.rdb.Set(ctx, s.stateKey(userID), state, 0).Err(); err != nil {
		return fmt.Errorf("state: redis set: %w", err)
	}
	return nil
}

func (s *RedisStorage) Data(ctx context.Context, userID int64) (map[string]any, error) {
	val, err := s.rdb.Get(ctx, s.dataKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("state: redis get data: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(val), &out); err != nil {
		return nil, fmt.Errorf("state: decode data: %w", err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func (s *RedisStorage) SetData(ctx context.Context, userID int64, data map[string]any) error {
	blob, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("state: encode data: %w", err)
	}
	if err := s.rdb.Set(ctx, s.dataKey(userID), blob, 0).Err(); err != nil {
		return fmt.Errorf("state: redis set data: %w", err)
	}
	return nil
}

func (s *RedisStorage) Delete(ctx context.Context, userID int64) error {
	if err := s.rdb.Del(ctx, s.stateKey(userID), s.dataKey(userID)).Err(); err != nil {
		return fmt.Errorf("state: redis delete: %w", err)
	}
	return nil
}
