package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"TragedyWatch/internal/config"
	"TragedyWatch/internal/ports"
)

const (
	defaultSetKey = "tragedywatch:seen"
	pingTimeout   = 5 * time.Second
	scopeHexLen   = 12
)

// ErrCacheDisabled is returned by New when no Redis address is configured.
var ErrCacheDisabled = errors.New("redis seen cache disabled")

// RedisSeen stores persisted URLs in a Redis set. Rows are never deleted from
// the store, so membership stays a valid "already persisted" signal.
type RedisSeen struct {
	client *redis.Client
	key    string
}

var _ ports.SeenCache = (*RedisSeen)(nil)

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, cfg config.RedisConfig) (*RedisSeen, error) {
	if cfg.Addr == "" {
		return nil, ErrCacheDisabled
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}

	return NewWithClient(client, cfg.Key), nil
}

// NewWithClient wraps an existing client; an empty key uses the default set.
func NewWithClient(client *redis.Client, key string) *RedisSeen {
	if key == "" {
		key = defaultSetKey
	}
	return &RedisSeen{client: client, key: key}
}

// ScopedKey suffixes base with a short digest of identity, typically the
// database DSN, so stores sharing one Redis never share a seen set.
func ScopedKey(base, identity string) string {
	if base == "" {
		base = defaultSetKey
	}
	sum := sha256.Sum256([]byte(identity))
	return base + ":" + hex.EncodeToString(sum[:])[:scopeHexLen]
}

// Seen reports whether url was marked before.
func (r *RedisSeen) Seen(ctx context.Context, url string) (bool, error) {
	ok, err := r.client.SIsMember(ctx, r.key, url).Result()
	if err != nil {
		return false, fmt.Errorf("sismember: %w", err)
	}
	return ok, nil
}

// Mark records url as persisted.
func (r *RedisSeen) Mark(ctx context.Context, url string) error {
	if err := r.client.SAdd(ctx, r.key, url).Err(); err != nil {
		return fmt.Errorf("sadd: %w", err)
	}
	return nil
}

// Size returns the number of marked URLs.
func (r *RedisSeen) Size(ctx context.Context) (int64, error) {
	n, err := r.client.SCard(ctx, r.key).Result()
	if err != nil {
		return 0, fmt.Errorf("scard: %w", err)
	}
	return n, nil
}

// Reset drops every marked URL.
func (r *RedisSeen) Reset(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("del: %w", err)
	}
	return nil
}

// Key returns the Redis set holding seen URLs.
func (r *RedisSeen) Key() string {
	return r.key
}

// Close releases the Redis connection pool.
func (r *RedisSeen) Close() error {
	return r.client.Close()
}
