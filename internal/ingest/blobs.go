package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blobs holds raw upload content until the validation job consumes it.
type Blobs interface {
	Put(ctx context.Context, id string, data []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}

// MemoryBlobs stores content in process memory.
type MemoryBlobs struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryBlobs constructs an empty blob store.
func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{items: make(map[string][]byte)}
}

func (b *MemoryBlobs) Put(ctx context.Context, id string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items[id] = append([]byte(nil), data...)
	return nil
}

func (b *MemoryBlobs) Get(ctx context.Context, id string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

func (b *MemoryBlobs) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.items, id)
	return nil
}

// RedisBlobs keeps content under an expiring key so the worker process can read it.
type RedisBlobs struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBlobs wraps a client. A zero ttl defaults to one day.
func NewRedisBlobs(client *redis.Client, ttl time.Duration) *RedisBlobs {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisBlobs{client: client, ttl: ttl}
}

func blobKey(id string) string {
	return fmt.Sprintf("finconsol:upload:%s:blob", id)
}

func (b *RedisBlobs) Put(ctx context.Context, id string, data []byte) error {
	return b.client.Set(ctx, blobKey(id), data, b.ttl).Err()
}

func (b *RedisBlobs) Get(ctx context.Context, id string) ([]byte, error) {
	data, err := b.client.Get(ctx, blobKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	return data, err
}

func (b *RedisBlobs) Delete(ctx context.Context, id string) error {
	return b.client.Del(ctx, blobKey(id)).Err()
}
