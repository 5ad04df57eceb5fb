package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	redisOrderKey  = "finconsol:uploads"
	redisRecordKey = "finconsol:upload:"
	maxWatchRetry  = 5
)

// RedisStore persists records as JSON strings with an ordered id list.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps a go-redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func recordKey(id string) string {
	return redisRecordKey + id
}

// Insert stores the record and appends its id.
func (s *RedisStore) Insert(ctx context.Context, file MarketFile) error {
	raw, err := json.Marshal(file)
	if err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, recordKey(file.ID), raw, 0).Result()
	if err != nil {
		return fmt.Errorf("ingest: redis insert: %w", err)
	}
	if !ok {
		return ErrDuplicateID
	}
	return s.client.RPush(ctx, redisOrderKey, file.ID).Err()
}

// Get loads a record by id.
func (s *RedisStore) Get(ctx context.Context, id string) (MarketFile, error) {
	raw, err := s.client.Get(ctx, recordKey(id)).Bytes()
	if err == redis.Nil {
		return MarketFile{}, ErrNotFound
	}
	if err != nil {
		return MarketFile{}, err
	}
	var file MarketFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return MarketFile{}, err
	}
	return file, nil
}

// List returns records in append order.
func (s *RedisStore) List(ctx context.Context) ([]MarketFile, error) {
	ids, err := s.client.LRange(ctx, redisOrderKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []MarketFile{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = recordKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]MarketFile, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var file MarketFile
		if err := json.Unmarshal([]byte(raw), &file); err != nil {
			return nil, err
		}
		out = append(out, file)
	}
	return out, nil
}

// Update applies fn inside WATCH/MULTI so concurrent resolves cannot both win.
func (s *RedisStore) Update(ctx context.Context, id string, fn func(MarketFile) (MarketFile, error)) (MarketFile, error) {
	key := recordKey(id)
	var result MarketFile
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var current MarketFile
		if err := json.Unmarshal(raw, &current); err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			result = current
			return err
		}
		encoded, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			return nil
		})
		if err == nil {
			result = next
		}
		return err
	}
	for i := 0; i < maxWatchRetry; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return result, err
	}
	return MarketFile{}, fmt.Errorf("ingest: redis update %s: too much contention", id)
}
