package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "finconsol"

var generationKey = join("cache", "generation")

// Cache stores dashboard figures in Redis under a shared generation number.
// Bumping the generation orphans every entry written before it; orphans
// expire through their TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache builds the cache. A nil client turns every call into a passthrough.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// Version reports the current generation, starting at 1.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	if _, err := c.client.SetNX(ctx, generationKey, 1, 0).Result(); err != nil {
		return 0, err
	}
	return c.client.Get(ctx, generationKey).Int64()
}

// BuildKey appends the current generation to the joined parts.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	base := strings.Join(parts, ":")
	if !c.enabled() {
		return base, nil
	}
	gen, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return base + "@" + strconv.FormatInt(gen, 10), nil
}

// FetchJSON decodes the entry at key into dest, calling load and storing its
// result on a miss. Values round-trip through JSON in both paths so callers
// see identical shapes with and without Redis.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, load func(context.Context) (any, error)) error {
	if load == nil {
		return errors.New("analytics cache: loader required")
	}
	if c.enabled() {
		raw, err := c.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			return json.Unmarshal(raw, dest)
		case !errors.Is(err, redis.Nil):
			return err
		}
	}
	value, err := load(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c.enabled() {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return err
		}
	}
	return json.Unmarshal(raw, dest)
}

// Bump moves every instance onto a fresh generation.
func (c *Cache) Bump(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Incr(ctx, generationKey).Err()
}

func join(parts ...string) string {
	return keyPrefix + ":" + strings.Join(parts, ":")
}

func keyKPIs() string   { return join("kpi") }
func keyBridge() string { return join("bridge") }
func keyTrend() string  { return join("trend") }

func keyOverview(currency string, expanded []string) string {
	return join("overview", currency, strings.Join(expanded, ","))
}

func keyState(session string) string {
	return join("state", session)
}
