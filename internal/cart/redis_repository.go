package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/agrostore-bff/pkg/redis"
)

type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CartKey(sessionID string) string
}

// RedisRepository stores each cart as one JSON document.
type RedisRepository struct {
	kv  kvStore
	ttl time.Duration
}

// NewRedisRepository persists carts in kv; ttl 0 keeps them forever.
func NewRedisRepository(kv kvStore, ttl time.Duration) (*RedisRepository, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisRepository{kv: kv, ttl: ttl}, nil
}

// Load returns the stored cart or an empty one when none exists.
func (r *RedisRepository) Load(ctx context.Context, sessionID string) (*Cart, error) {
	raw, err := r.kv.Get(ctx, r.kv.CartKey(sessionID))
	if redis.IsNil(err) {
		return &Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart: %w", err)
	}
	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	return &c, nil
}

// Save overwrites the stored document and refreshes its TTL.
func (r *RedisRepository) Save(ctx context.Context, sessionID string, c *Cart) error {
	if c.Lines == nil {
		c = &Cart{Lines: []Line{}, UpdatedAt: c.UpdatedAt}
	}
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := r.kv.Set(ctx, r.kv.CartKey(sessionID), string(b), r.ttl); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}
