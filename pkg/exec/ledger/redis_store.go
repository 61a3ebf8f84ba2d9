package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/joripage/execution-core/pkg/exec/model"
)

const redisStoreTimeout = 2 * time.Second

// RedisStore keeps the ledger snapshot as one JSON value under a single
// key, for deployments that already run Redis.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Save(positions map[string]*model.Position) error {
	data, err := json.Marshal(positions)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisStoreTimeout)
	defer cancel()
	return s.client.Set(ctx, s.key, data, 0).Err()
}

func (s *RedisStore) Load() (map[string]*model.Position, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisStoreTimeout)
	defer cancel()

	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return make(map[string]*model.Position), nil
	}
	if err != nil {
		return nil, err
	}

	positions := make(map[string]*model.Position)
	if err := json.Unmarshal(data, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}
