package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domain "github.com/bryanwahyu/lexiguard/internal/domain/analysis"
)

const keyPrefix = "analysis:"

// Redis is the shared Cache implementation. TTL expiry is delegated to
// Redis itself; SET is atomic so a reader never observes a torn entry.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

type redisEntry struct {
	Result    domain.Result `json:"result"`
	CreatedAt time.Time     `json:"created_at"`
}

func (r *Redis) Lookup(ctx context.Context, fp domain.Fingerprint) (*domain.CacheEntry, bool, error) {
	raw, err := r.client.Get(ctx, keyPrefix+string(fp)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	var e redisEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}
	return &domain.CacheEntry{
		Fingerprint: fp,
		Result:      e.Result,
		CreatedAt:   e.CreatedAt,
	}, true, nil
}

func (r *Redis) Store(ctx context.Context, fp domain.Fingerprint, res domain.Result, ttl time.Duration) error {
	raw, err := json.Marshal(redisEntry{Result: res, CreatedAt: res.GeneratedAt})
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := r.client.Set(ctx, keyPrefix+string(fp), raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Ping checks connectivity, used at startup to decide on the fallback.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
